package appointment

import (
	"context"
	"encoding/json"
	"fmt"
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

const DefaultClaimTTL = 10 * time.Minute

// Claimer grants one worker at a time the right to send an appointment's
// reminder.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ProcessReminders sends reminders for confirmed, upcoming appointments
// and marks them as sent.
type ProcessReminders struct {
	repo     domain.Repository
	notifier notify.Sender
	claimer  Claimer
	claimTTL time.Duration
	clock    timeutil.Clock
	audit    *audit.Dispatcher
	logger   zerolog.Logger
}

// NewProcessReminders builds the reminder stage. claimer may be nil, in
// which case only the stored reminderSent flag guards against duplicates.
func NewProcessReminders(
	repo domain.Repository,
	notifier notify.Sender,
	claimer Claimer,
	claimTTL time.Duration,
	clock timeutil.Clock,
	audit *audit.Dispatcher,
	logger zerolog.Logger,
) *ProcessReminders {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &ProcessReminders{
		repo:     repo,
		notifier: notifier,
		claimer:  claimer,
		claimTTL: claimTTL,
		clock:    clock,
		audit:    audit,
		logger:   logger.With().Str("stage", "reminder").Logger(),
	}
}

func (uc *ProcessReminders) Execute(
	ctx context.Context,
	deliveries []queue.Delivery,
) Result {
	return runBatch(ctx, uc.logger, "reminder message", deliveries, uc.process)
}

func (uc *ProcessReminders) process(
	ctx context.Context,
	messageID string,
	body []byte,
) ItemResult {

	log := uc.logger.With().Str("message_id", messageID).Logger()
	fail := func(appointmentID string, reason string, cause error) ItemResult {
		msg := fmt.Sprintf("Failed to process reminder message %s: %s", messageID, reason)
		if cause != nil && !isDomainRejection(cause) {
			log.Error().Err(cause).Msg(msg)
		} else {
			log.Warn().Msg(msg)
		}
		return failed(appointmentID, msg, cause)
	}

	var in dto.ReminderMessage
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

	ap, patient, reason, err := loadOwned(ctx, uc.repo, in.AppointmentID, in.PatientID)
	if reason != "" {
		return fail(in.AppointmentID, reason, err)
	}

	// -------- Eligibility --------
	now := uc.clock.Now()
	if !domain.IsReminderEligible(ap, now) {
		log.Info().Str("status", ap.Status).Msg("appointment not eligible for reminder, skipping")
		return skipped(ap.AppointmentID, StatusReminderSkipped, "appointment is not confirmed or has already started")
	}
	if ap.ReminderSent {
		log.Info().Msg("reminder already sent, skipping")
		return skipped(ap.AppointmentID, StatusReminderSkipped, "reminder already sent")
	}

	// -------- Claim --------
	claimKey := "reminder:" + ap.AppointmentID
	if uc.claimer != nil {
		won, err := uc.claimer.Claim(ctx, claimKey, uc.claimTTL)
		if err != nil {
			return fail(ap.AppointmentID, err.Error(), err)
		}
		if !won {
			log.Info().Msg("reminder claimed by another worker, skipping")
			return skipped(ap.AppointmentID, StatusReminderSkipped, "reminder in progress elsewhere")
		}
	}

	// -------- Send --------
	to := reminderRecipient(in, patient)
	if err := uc.notifier.Notify(ctx, notify.KindReminder, to, notificationData(ap, to, now)); err != nil {
		if uc.claimer != nil {
			if rerr := uc.claimer.Release(ctx, claimKey); rerr != nil {
				log.Warn().Err(rerr).Msg("reminder claim not released")
			}
		}
		log.Error().Err(err).Msg("reminder notification failed, leaving for redelivery")
		return retryLater(
			ap.AppointmentID,
			fmt.Sprintf("Failed to send reminder notification for appointment %s", ap.AppointmentID),
		)
	}

	if err := uc.repo.MarkReminderSent(ctx, ap.AppointmentID, now); err != nil {
		log.Warn().Err(err).Msg("reminder sent but flag not updated")
	}

	uc.audit.Dispatch(audit.Event{
		Action:        "reminder_sent",
		AppointmentID: ap.AppointmentID,
		PatientID:     ap.PatientID,
		Metadata:      map[string]any{"reminderTime": in.ReminderTime},
		At:            now,
	})

	log.Info().Msg("reminder sent")
	return succeeded(ap.AppointmentID, StatusReminderSent)
}

// reminderRecipient prefers the contact snapshot taken when the reminder
// was scheduled and falls back to the stored patient per field.
func reminderRecipient(in dto.ReminderMessage, patient *models.Patient) notify.Recipient {
	to := notify.Recipient{
		Name:  in.PatientName,
		Email: in.PatientEmail,
		Phone: in.PatientPhone,
	}
	if to.Name == "" {
		to.Name = patient.FullName()
	}
	if to.Email == "" {
		to.Email = patient.Email
	}
	if to.Phone == "" {
		to.Phone = patient.Phone
	}
	return to
}
