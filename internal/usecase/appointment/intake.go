package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// ProcessRequests is the intake stage: it turns appointment requests into
// REQUESTED appointments and emits one confirm message per created record.
type ProcessRequests struct {
	repo              domain.Repository
	validator         *domain.Validator
	publisher         queue.Publisher
	confirmationQueue string
	clock             timeutil.Clock
	retention         time.Duration
	audit             *audit.Dispatcher
	logger            zerolog.Logger
}

func NewProcessRequests(
	repo domain.Repository,
	validator *domain.Validator,
	publisher queue.Publisher,
	confirmationQueue string,
	clock timeutil.Clock,
	retention time.Duration,
	audit *audit.Dispatcher,
	logger zerolog.Logger,
) *ProcessRequests {
	return &ProcessRequests{
		repo:              repo,
		validator:         validator,
		publisher:         publisher,
		confirmationQueue: confirmationQueue,
		clock:             clock,
		retention:         retention,
		audit:             audit,
		logger:            logger.With().Str("stage", "intake").Logger(),
	}
}

func (uc *ProcessRequests) Execute(
	ctx context.Context,
	deliveries []queue.Delivery,
) Result {
	return runBatch(ctx, uc.logger, "request", deliveries, uc.process)
}

func (uc *ProcessRequests) process(
	ctx context.Context,
	messageID string,
	body []byte,
) ItemResult {

	log := uc.logger.With().Str("message_id", messageID).Logger()
	now := uc.clock.Now()

	// -------- Parse + validate --------
	req, err := domain.DecodeRequest(body)
	if err != nil {
		msg := fmt.Sprintf("Validation failed for request %s: %s", messageID, err.Error())
		log.Warn().Err(err).Msg("malformed request")
		return failed("", msg, err)
	}

	if violations := uc.validator.Validate(req, now); len(violations) > 0 {
		msg := fmt.Sprintf("Validation failed for request %s: %s", messageID, strings.Join(violations, "; "))
		log.Warn().Strs("violations", violations).Msg("request rejected")
		return failed("", msg, nil)
	}

	date, start, end, err := uc.validator.Parse(req)
	if err != nil {
		return failed("", fmt.Sprintf("Validation failed for request %s: %s", messageID, err.Error()), err)
	}

	log = log.With().Str("patient_id", req.PatientID).Logger()

	// -------- Patient --------
	if _, err := uc.repo.GetPatient(ctx, req.PatientID); err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			log.Warn().Msg("patient not found")
			return failed("", fmt.Sprintf("Patient %s not found for request %s", req.PatientID, messageID), err)
		}
		log.Error().Err(err).Msg("patient lookup failed")
		return failed("", fmt.Sprintf("Failed to process request %s: %v", messageID, err), err)
	}

	// -------- Conflicts --------
	dateKey := date.Format(timeutil.DateLayout)
	existing, err := uc.repo.ListActiveForPatientOnDate(ctx, req.PatientID, dateKey)
	if err != nil {
		log.Error().Err(err).Msg("conflict lookup failed")
		return failed("", fmt.Sprintf("Failed to process request %s: %v", messageID, err), err)
	}

	conflicts, err := domain.FindConflicts(existing, start, end)
	if err != nil {
		log.Error().Err(err).Msg("conflict check failed")
		return failed("", fmt.Sprintf("Failed to process request %s: %v", messageID, err), err)
	}
	if len(conflicts) > 0 {
		descs := domain.DescribeConflicts(conflicts)
		log.Warn().Strs("conflicts", descs).Msg("request conflicts with existing appointments")
		return failed("", fmt.Sprintf("Conflicts found for request %s: %s", messageID, strings.Join(descs, "; ")), nil)
	}

	// -------- Create --------
	ap := domain.NewAppointment(req, date, start, end, now, uc.retention)
	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		log.Error().Err(err).Msg("create appointment failed")
		return failed("", fmt.Sprintf("Failed to process request %s: %v", messageID, err), err)
	}

	log = log.With().Str("appointment_id", ap.AppointmentID).Logger()

	uc.audit.Dispatch(audit.Event{
		Action:        "appointment_requested",
		AppointmentID: ap.AppointmentID,
		PatientID:     ap.PatientID,
		Metadata: map[string]any{
			"date":  ap.AppointmentDate,
			"start": ap.StartTime,
			"end":   ap.EndTime,
		},
		At: now,
	})

	// -------- Confirm message --------
	msg, err := queue.NewJSONMessage(dto.ConfirmationMessage{
		AppointmentID: ap.AppointmentID,
		PatientID:     ap.PatientID,
		Action:        string(domain.ActionConfirm),
		Timestamp:     now.Format(time.RFC3339),
	}, map[string]string{
		dto.AttrMessageType: dto.MessageTypeConfirmation,
	})
	if err == nil {
		err = uc.publisher.Send(ctx, uc.confirmationQueue, msg)
	}
	if err != nil {
		// The appointment exists; redelivering the request would only
		// produce a conflict, so this failure is never retried.
		log.Error().Err(err).Msg("confirm message not sent")
		return ItemResult{
			AppointmentID: ap.AppointmentID,
			Status:        StatusFailed,
			Error:         fmt.Sprintf("Failed to process request %s: %v", messageID, err),
			Outcome:       OutcomeFailed,
		}
	}

	log.Info().Msg("appointment requested")
	return succeeded(ap.AppointmentID, ap.Status)
}
