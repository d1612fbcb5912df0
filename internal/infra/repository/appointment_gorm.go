package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Patient
// --------------------------------------------------

func (r *AppointmentGormRepository) GetPatient(
	ctx context.Context,
	patientID string,
) (*models.Patient, error) {

	var p models.Patient
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		First(&p).Error; err != nil {
		return nil, mapGormError(err, domain.ErrPatientNotFound)
	}
	return &p, nil
}

func (r *AppointmentGormRepository) GetPatientByEmail(
	ctx context.Context,
	email string,
) (*models.Patient, error) {

	var p models.Patient
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&p).Error; err != nil {
		return nil, mapGormError(err, domain.ErrPatientNotFound)
	}
	return &p, nil
}

func (r *AppointmentGormRepository) PutPatient(
	ctx context.Context,
	p *models.Patient,
) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePatient
		}
		return httperr.Unavailable(err)
	}
	return nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	if err := r.db.WithContext(ctx).Create(ap).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAppointment
		}
		if isExclusionConflict(err) {
			return domain.ErrTimeConflict
		}
		return httperr.Unavailable(err)
	}
	return nil
}

func (r *AppointmentGormRepository) ListActiveForPatientOnDate(
	ctx context.Context,
	patientID string,
	date string,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where(
			"patient_id = ? AND appointment_date = ? AND status <> ?",
			patientID, date, string(domain.StatusCancelled),
		).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, httperr.Unavailable(err)
	}
	return apps, nil
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	appointmentID string,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		First(&ap).Error; err != nil {
		return nil, mapGormError(err, domain.ErrAppointmentNotFound)
	}
	return &ap, nil
}

// UpdateStatus is a single conditional UPDATE. When no row matches, a
// follow-up count tells a missing record from a status that moved on.
func (r *AppointmentGormRepository) UpdateStatus(
	ctx context.Context,
	in domain.StatusUpdate,
) error {

	fields := map[string]any{
		"status":     string(in.To),
		"updated_at": in.At,
	}
	if in.Note != "" {
		fields["notes"] = in.Note
	}

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("appointment_id = ? AND status = ?", in.AppointmentID, string(in.From)).
		Updates(fields)
	if res.Error != nil {
		return httperr.Unavailable(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	return r.missOrMismatch(ctx, in.AppointmentID)
}

func (r *AppointmentGormRepository) MarkReminderSent(
	ctx context.Context,
	appointmentID string,
	at time.Time,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("appointment_id = ?", appointmentID).
		Updates(map[string]any{
			"reminder_sent": true,
			"updated_at":    at,
		})
	if res.Error != nil {
		return httperr.Unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) missOrMismatch(ctx context.Context, appointmentID string) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error; err != nil {
		return httperr.Unavailable(err)
	}
	if count == 0 {
		return domain.ErrAppointmentNotFound
	}
	return domain.ErrStatusMismatch
}

// --------------------------------------------------
// Queries
// --------------------------------------------------

func (r *AppointmentGormRepository) ListByPatient(
	ctx context.Context,
	patientID string,
	status domain.Status,
	dates domain.DateRange,
) ([]models.Appointment, error) {
	q := r.db.WithContext(ctx).Where("patient_id = ?", patientID)
	return r.list(q, status, dates)
}

func (r *AppointmentGormRepository) ListByStatus(
	ctx context.Context,
	status domain.Status,
	dates domain.DateRange,
) ([]models.Appointment, error) {
	return r.list(r.db.WithContext(ctx), status, dates)
}

func (r *AppointmentGormRepository) ListByDateRange(
	ctx context.Context,
	dates domain.DateRange,
	status domain.Status,
) ([]models.Appointment, error) {
	return r.list(r.db.WithContext(ctx), status, dates)
}

func (r *AppointmentGormRepository) list(
	q *gorm.DB,
	status domain.Status,
	dates domain.DateRange,
) ([]models.Appointment, error) {

	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if dates.From != "" {
		q = q.Where("appointment_date >= ?", dates.From)
	}
	if dates.To != "" {
		q = q.Where("appointment_date <= ?", dates.To)
	}

	var apps []models.Appointment
	if err := q.
		Order("appointment_date ASC, start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, httperr.Unavailable(err)
	}
	return apps, nil
}

func mapGormError(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return httperr.Unavailable(err)
}

// Compile-time check
var _ domain.Store = (*AppointmentGormRepository)(nil)
