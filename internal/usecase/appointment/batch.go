package appointment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
)

// ======================================================
// RESULT
// ======================================================

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

// Per-message statuses reported in ItemResult.Status.
const (
	StatusFailed          = "FAILED"
	StatusReminderSent    = "REMINDER_SENT"
	StatusReminderSkipped = "REMINDER_SKIPPED"
)

type ItemResult struct {
	MessageID     string  `json:"messageId"`
	AppointmentID string  `json:"appointmentId,omitempty"`
	Status        string  `json:"status"`
	Reason        string  `json:"reason,omitempty"`
	Error         string  `json:"error,omitempty"`
	Outcome       Outcome `json:"-"`

	// Retryable marks failures caused by an unavailable collaborator or a
	// failed reminder delivery. The worker leaves those messages on the
	// queue for redelivery.
	Retryable bool `json:"-"`
}

// Result aggregates one batch. Items are in delivery order.
type Result struct {
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Errors     []string     `json:"errors"`
	Items      []ItemResult `json:"items"`
}

func (r *Result) add(item ItemResult) {
	switch item.Outcome {
	case OutcomeSuccess:
		r.Successful++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
		r.Errors = append(r.Errors, item.Error)
	}
	r.Items = append(r.Items, item)
}

func succeeded(appointmentID, status string) ItemResult {
	return ItemResult{AppointmentID: appointmentID, Status: status, Outcome: OutcomeSuccess}
}

func skipped(appointmentID, status, reason string) ItemResult {
	return ItemResult{AppointmentID: appointmentID, Status: status, Reason: reason, Outcome: OutcomeSkipped}
}

func failed(appointmentID, msg string, cause error) ItemResult {
	return ItemResult{
		AppointmentID: appointmentID,
		Status:        StatusFailed,
		Error:         msg,
		Outcome:       OutcomeFailed,
		Retryable:     httperr.Is(cause, httperr.KindStoreUnavailable),
	}
}

// retryLater is a failure the worker must not acknowledge.
func retryLater(appointmentID, msg string) ItemResult {
	item := failed(appointmentID, msg, nil)
	item.Retryable = true
	return item
}

// ======================================================
// BATCH LOOP
// ======================================================

type messageFunc func(ctx context.Context, messageID string, body []byte) ItemResult

// runBatch processes every delivery independently. A panic in one message
// is recovered and recorded as that message's failure.
func runBatch(
	ctx context.Context,
	logger zerolog.Logger,
	noun string,
	deliveries []queue.Delivery,
	process messageFunc,
) Result {

	logger.Info().Int("count", len(deliveries)).Msgf("processing %d %s(s)", len(deliveries), noun)

	res := Result{Errors: []string{}, Items: make([]ItemResult, 0, len(deliveries))}
	for _, d := range deliveries {
		res.add(runOne(ctx, logger, noun, d, process))
	}

	logger.Info().
		Int("successful", res.Successful).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("processing complete")
	return res
}

func runOne(
	ctx context.Context,
	logger zerolog.Logger,
	noun string,
	d queue.Delivery,
	process messageFunc,
) (item ItemResult) {

	id := d.ID
	if id == "" {
		id = "unknown"
	}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("Unexpected error processing %s %s: %v", noun, id, r)
			logger.Error().Str("message_id", id).Interface("panic", r).Msg(msg)
			item = ItemResult{MessageID: id, Status: StatusFailed, Error: msg, Outcome: OutcomeFailed}
		}
	}()

	item = process(ctx, id, d.Body)
	item.MessageID = id
	return item
}
