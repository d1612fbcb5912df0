package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

const missingFieldsReason = "Missing required fields: appointmentId or patientId"

// ProcessConfirmations applies CONFIRM / CANCEL actions. A fresh
// confirmation notifies the patient and schedules the reminder; both are
// best effort.
type ProcessConfirmations struct {
	repo          domain.Repository
	lifecycle     *domain.Lifecycle
	scheduler     *domain.Scheduler
	notifier      notify.Sender
	publisher     queue.Publisher
	reminderQueue string
	clock         timeutil.Clock
	audit         *audit.Dispatcher
	logger        zerolog.Logger
}

func NewProcessConfirmations(
	repo domain.Repository,
	scheduler *domain.Scheduler,
	notifier notify.Sender,
	publisher queue.Publisher,
	reminderQueue string,
	clock timeutil.Clock,
	audit *audit.Dispatcher,
	logger zerolog.Logger,
) *ProcessConfirmations {
	return &ProcessConfirmations{
		repo:          repo,
		lifecycle:     domain.NewLifecycle(repo, clock),
		scheduler:     scheduler,
		notifier:      notifier,
		publisher:     publisher,
		reminderQueue: reminderQueue,
		clock:         clock,
		audit:         audit,
		logger:        logger.With().Str("stage", "confirmation").Logger(),
	}
}

func (uc *ProcessConfirmations) Execute(
	ctx context.Context,
	deliveries []queue.Delivery,
) Result {
	return runBatch(ctx, uc.logger, "confirmation message", deliveries, uc.process)
}

func (uc *ProcessConfirmations) process(
	ctx context.Context,
	messageID string,
	body []byte,
) ItemResult {

	log := uc.logger.With().Str("message_id", messageID).Logger()
	fail := func(appointmentID string, reason string, cause error) ItemResult {
		msg := fmt.Sprintf("Failed to process confirmation message %s: %s", messageID, reason)
		if cause != nil && !isDomainRejection(cause) {
			log.Error().Err(cause).Msg(msg)
		} else {
			log.Warn().Msg(msg)
		}
		return failed(appointmentID, msg, cause)
	}

	var in dto.ConfirmationMessage
	if err := json.Unmarshal(body, &in); err != nil {
		return fail("", "Invalid JSON: "+err.Error(), nil)
	}
	if in.AppointmentID == "" || in.PatientID == "" {
		return fail(in.AppointmentID, missingFieldsReason, nil)
	}

	log = log.With().
		Str("appointment_id", in.AppointmentID).
		Str("patient_id", in.PatientID).
		Logger()

	// -------- Load --------
	ap, patient, reason, err := loadOwned(ctx, uc.repo, in.AppointmentID, in.PatientID)
	if reason != "" {
		return fail(in.AppointmentID, reason, err)
	}

	action := domain.Action(in.Action)
	to, err := action.Target()
	if err != nil {
		return fail(in.AppointmentID, "Unknown action: "+in.Action, err)
	}

	// -------- Transition --------
	tr, err := uc.lifecycle.ApplyTransition(ctx, ap.AppointmentID, to, action.Note())
	if err != nil {
		return fail(in.AppointmentID, err.Error(), err)
	}

	if !tr.Changed {
		log.Info().Str("status", string(to)).Msg("appointment already in target status, nothing to do")
		return succeeded(ap.AppointmentID, string(to))
	}

	now := uc.clock.Now()
	ap.Status = string(to)
	ap.UpdatedAt = now

	uc.audit.Dispatch(audit.Event{
		Action:        "appointment_" + strings.ToLower(string(tr.To)),
		AppointmentID: ap.AppointmentID,
		PatientID:     ap.PatientID,
		Metadata: map[string]any{
			"from": string(tr.From),
			"to":   string(tr.To),
		},
		At: now,
	})

	if to == domain.StatusConfirmed {
		uc.notifyConfirmed(ctx, log, ap, patient, now)
		uc.scheduleReminder(ctx, log, ap, patient, now)
	}

	log.Info().Str("status", string(to)).Msg("appointment status updated")
	return succeeded(ap.AppointmentID, string(to))
}

func (uc *ProcessConfirmations) notifyConfirmed(
	ctx context.Context,
	log zerolog.Logger,
	ap *models.Appointment,
	patient *models.Patient,
	now time.Time,
) {
	to := notify.Recipient{
		Name:  patient.FullName(),
		Email: patient.Email,
		Phone: patient.Phone,
	}
	data := notificationData(ap, to, now)

	if err := uc.notifier.Notify(ctx, notify.KindConfirmation, to, data); err != nil {
		log.Warn().Err(err).Msg("confirmation notification failed")
	}
}

func (uc *ProcessConfirmations) scheduleReminder(
	ctx context.Context,
	log zerolog.Logger,
	ap *models.Appointment,
	patient *models.Patient,
	now time.Time,
) {
	plan, ok, err := uc.scheduler.Plan(ap, patient, now)
	if err != nil {
		log.Warn().Err(err).Msg("reminder not scheduled")
		return
	}
	if !ok {
		log.Info().Time("reminder_time", plan.FireAt).Msg("reminder time already passed, skipping reminder")
		return
	}

	msg, err := queue.NewJSONMessage(plan.Message, map[string]string{
		dto.AttrMessageType:  dto.MessageTypeReminder,
		dto.AttrReminderTime: plan.Message.ReminderTime,
	})
	if err != nil {
		log.Warn().Err(err).Msg("reminder not scheduled")
		return
	}
	msg.NotBefore = plan.FireAt

	if err := uc.publisher.Send(ctx, uc.reminderQueue, msg); err != nil {
		log.Warn().Err(err).Msg("reminder not scheduled")
		return
	}

	log.Info().Time("reminder_time", plan.FireAt).Msg("reminder scheduled")
}

// ======================================================
// SHARED HELPERS
// ======================================================

// loadOwned reads the appointment and patient and checks that one belongs
// to the other. A non-empty reason is the per-message failure text.
func loadOwned(
	ctx context.Context,
	repo domain.Repository,
	appointmentID string,
	patientID string,
) (*models.Appointment, *models.Patient, string, error) {

	ap, err := repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, domain.ErrAppointmentNotFound) {
			return nil, nil, fmt.Sprintf("Appointment %s not found", appointmentID), err
		}
		return nil, nil, err.Error(), err
	}

	patient, err := repo.GetPatient(ctx, patientID)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			return nil, nil, fmt.Sprintf("Patient %s not found", patientID), err
		}
		return nil, nil, err.Error(), err
	}

	if ap.PatientID != patientID {
		err := fmt.Errorf("%w: %s", domain.ErrPatientMismatch, patientID)
		return nil, nil, fmt.Sprintf("Appointment %s does not belong to patient %s", appointmentID, patientID), err
	}

	return ap, patient, "", nil
}

func notificationData(ap *models.Appointment, to notify.Recipient, now time.Time) map[string]string {
	return map[string]string{
		"appointmentId":   ap.AppointmentID,
		"patientId":       ap.PatientID,
		"patientName":     to.Name,
		"patientEmail":    to.Email,
		"patientPhone":    to.Phone,
		"appointmentDate": ap.AppointmentDate,
		"startTime":       ap.StartTime,
		"endTime":         ap.EndTime,
		"timestamp":       now.Format(time.RFC3339),
	}
}

// isDomainRejection reports whether err is an expected business outcome
// rather than an infrastructure failure.
func isDomainRejection(err error) bool {
	switch {
	case errors.Is(err, domain.ErrAppointmentNotFound),
		errors.Is(err, domain.ErrPatientNotFound),
		errors.Is(err, domain.ErrPatientMismatch),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrUnknownAction):
		return true
	}
	return false
}
