package appointment

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

const DefaultReminderLead = 24 * time.Hour

// ReminderPlan is a reminder ready to be enqueued for delivery at FireAt.
type ReminderPlan struct {
	Message dto.ReminderMessage
	FireAt  time.Time
}

type Scheduler struct {
	lead time.Duration
	loc  *time.Location
}

func NewScheduler(lead time.Duration, loc *time.Location) *Scheduler {
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{lead: lead, loc: loc}
}

// ComputeReminderTime is the appointment start minus the lead time.
func (s *Scheduler) ComputeReminderTime(date, start string) (time.Time, error) {
	at, err := timeutil.ParseDateTime(date, start, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return at.Add(-s.lead), nil
}

func ShouldEmit(reminderTime, now time.Time) bool {
	return timeutil.IsFuture(reminderTime, now)
}

// Plan builds the reminder for ap. ok is false when the reminder time has
// already passed; such reminders are dropped, not queued.
func (s *Scheduler) Plan(
	ap *models.Appointment,
	patient *models.Patient,
	now time.Time,
) (ReminderPlan, bool, error) {

	fireAt, err := s.ComputeReminderTime(ap.AppointmentDate, ap.StartTime)
	if err != nil {
		return ReminderPlan{}, false, err
	}
	if !ShouldEmit(fireAt, now) {
		return ReminderPlan{FireAt: fireAt}, false, nil
	}

	return ReminderPlan{
		FireAt: fireAt,
		Message: dto.ReminderMessage{
			AppointmentID:   ap.AppointmentID,
			PatientID:       ap.PatientID,
			ReminderTime:    fireAt.Format(time.RFC3339),
			AppointmentDate: ap.AppointmentDate,
			StartTime:       ap.StartTime,
			EndTime:         ap.EndTime,
			PatientName:     patient.FullName(),
			PatientEmail:    patient.Email,
			PatientPhone:    patient.Phone,
			Timestamp:       now.Format(time.RFC3339),
		},
	}, true, nil
}
