package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// ===============================
// Domain Actions
// ===============================

// NewAppointment builds a REQUESTED appointment from a validated request.
// Times are stored in their zero-padded HH:MM form.
func NewAppointment(
	req Request,
	date time.Time,
	start timeutil.TimeOfDay,
	end timeutil.TimeOfDay,
	now time.Time,
	retention time.Duration,
) *models.Appointment {
	return &models.Appointment{
		AppointmentID:   uuid.NewString(),
		PatientID:       req.PatientID,
		AppointmentDate: date.Format(timeutil.DateLayout),
		StartTime:       start.String(),
		EndTime:         end.String(),
		Status:          string(InitialStatus()),
		Notes:           req.Notes,
		ReminderSent:    false,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       date.Add(retention),
	}
}

// StartsAt resolves the appointment's start instant in loc.
func StartsAt(ap *models.Appointment, loc *time.Location) (time.Time, error) {
	return timeutil.ParseDateTime(ap.AppointmentDate, ap.StartTime, loc)
}
