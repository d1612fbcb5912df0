// Package worker polls a queue and feeds each batch to a pipeline stage.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	uc "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

const (
	DefaultBatchSize    = 10
	DefaultPollInterval = 5 * time.Second
)

// Processor is a pipeline stage.
type Processor interface {
	Execute(ctx context.Context, deliveries []queue.Delivery) uc.Result
}

type Options struct {
	BatchSize    int
	PollInterval time.Duration
}

type Worker struct {
	name      string
	consumer  queue.Consumer
	queueName string
	processor Processor
	opts      Options
	logger    zerolog.Logger
}

func New(
	name string,
	consumer queue.Consumer,
	queueName string,
	processor Processor,
	opts Options,
	logger zerolog.Logger,
) *Worker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Worker{
		name:      name,
		consumer:  consumer,
		queueName: queueName,
		processor: processor,
		opts:      opts,
		logger:    logger.With().Str("worker", name).Str("queue", queueName).Logger(),
	}
}

// Run polls until ctx is cancelled. Receive errors are logged and retried
// after the poll interval.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker started")
	defer w.logger.Info().Msg("worker stopped")

	for {
		n, err := w.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			w.logger.Error().Err(err).Msg("poll failed")
		}
		if err != nil || n == 0 {
			if !sleep(ctx, w.opts.PollInterval) {
				return nil
			}
		}
	}
}

// RunOnce receives one batch, processes it and acknowledges every message
// except retryable failures, which the queue redelivers. It returns the
// number of messages received.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	deliveries, err := w.consumer.Receive(ctx, w.queueName, w.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(deliveries) == 0 {
		return 0, nil
	}

	res := w.processor.Execute(ctx, deliveries)

	ack := make([]queue.Delivery, 0, len(deliveries))
	for i, d := range deliveries {
		if i < len(res.Items) && res.Items[i].Retryable {
			w.logger.Warn().
				Str("message_id", res.Items[i].MessageID).
				Msg("leaving message for redelivery")
			continue
		}
		ack = append(ack, d)
	}

	w.logger.Info().
		Int("received", len(deliveries)).
		Int("successful", res.Successful).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("batch processed")

	if err := w.consumer.Ack(ctx, w.queueName, ack); err != nil {
		return len(deliveries), errors.Join(errors.New("ack failed"), err)
	}
	return len(deliveries), nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
