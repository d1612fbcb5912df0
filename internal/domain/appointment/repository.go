package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// DateRange is an inclusive YYYY-MM-DD range. Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// StatusUpdate is a conditional status write: it applies only while the
// stored status still equals From.
type StatusUpdate struct {
	AppointmentID string
	From          Status
	To            Status
	Note          string
	At            time.Time
}

// Repository is the record store used by the pipeline stages.
//
// Implementations return ErrAppointmentNotFound / ErrPatientNotFound for
// absent records, ErrStatusMismatch when a conditional write loses and
// wrap I/O failures with httperr.Unavailable.
type Repository interface {
	// -------- Patient --------
	GetPatient(
		ctx context.Context,
		patientID string,
	) (*models.Patient, error)

	// -------- Appointment (create / conflict) --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// ListActiveForPatientOnDate returns the patient's non-cancelled
	// appointments on the given date.
	ListActiveForPatientOnDate(
		ctx context.Context,
		patientID string,
		date string,
	) ([]models.Appointment, error)

	// -------- Appointment (state change) --------
	GetAppointment(
		ctx context.Context,
		appointmentID string,
	) (*models.Appointment, error)

	UpdateStatus(
		ctx context.Context,
		in StatusUpdate,
	) error

	MarkReminderSent(
		ctx context.Context,
		appointmentID string,
		at time.Time,
	) error
}

// QueryRepository backs the read-side lookups.
type QueryRepository interface {
	GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error)
	GetPatient(ctx context.Context, patientID string) (*models.Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error)

	// An empty status matches every status.
	ListByPatient(ctx context.Context, patientID string, status Status, dates DateRange) ([]models.Appointment, error)
	ListByStatus(ctx context.Context, status Status, dates DateRange) ([]models.Appointment, error)
	ListByDateRange(ctx context.Context, dates DateRange, status Status) ([]models.Appointment, error)
}

type PatientWriter interface {
	PutPatient(ctx context.Context, p *models.Patient) error
}

// Store is everything a single backend provides.
type Store interface {
	Repository
	QueryRepository
	PatientWriter
}
