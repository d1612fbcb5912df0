package broker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

const (
	// SQS rejects delays above 15 minutes.
	maxSQSDelay = 15 * time.Minute

	sqsMaxBatch          = 10
	sqsWaitTimeSeconds   = 20
	sqsVisibilitySeconds = 60 * 5

	// attrNotBefore carries the remaining deferral of a message whose delay
	// exceeded maxSQSDelay.
	attrNotBefore = "NotBefore"
)

// SQSAPI is the subset of the SQS client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, in *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// SQS is a broker over Amazon SQS. Queue names are queue URLs.
//
// Delays longer than SQS allows are split into hops: the message carries its
// NotBefore as an attribute and Receive re-sends it until it is due.
type SQS struct {
	api    SQSAPI
	clock  timeutil.Clock
	logger zerolog.Logger
}

func NewSQS(api SQSAPI, clock timeutil.Clock, logger zerolog.Logger) *SQS {
	return &SQS{api: api, clock: clock, logger: logger.With().Str("broker", "sqs").Logger()}
}

func (s *SQS) Send(ctx context.Context, queueURL string, msg queue.Message) error {
	attrs := msg.Attributes
	if !msg.NotBefore.IsZero() && msg.NotBefore.Sub(s.clock.Now()) > maxSQSDelay {
		attrs = make(map[string]string, len(msg.Attributes)+1)
		for k, v := range msg.Attributes {
			attrs[k] = v
		}
		attrs[attrNotBefore] = msg.NotBefore.UTC().Format(time.RFC3339)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(string(msg.Body)),
		DelaySeconds:      s.delaySeconds(msg.NotBefore),
		MessageAttributes: toSQSAttributes(attrs),
	}

	if _, err := s.api.SendMessage(ctx, in); err != nil {
		return httperr.Unavailable(fmt.Errorf("sqs send: %w", err))
	}
	return nil
}

func (s *SQS) delaySeconds(notBefore time.Time) int32 {
	if notBefore.IsZero() {
		return 0
	}
	d := notBefore.Sub(s.clock.Now())
	if d <= 0 {
		return 0
	}
	if d > maxSQSDelay {
		d = maxSQSDelay
	}
	return int32(d / time.Second)
}

func (s *SQS) Receive(ctx context.Context, queueURL string, max int) ([]queue.Delivery, error) {
	if max <= 0 || max > sqsMaxBatch {
		max = sqsMaxBatch
	}

	out, err := s.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(queueURL),
		MaxNumberOfMessages:   int32(max),
		WaitTimeSeconds:       sqsWaitTimeSeconds,
		VisibilityTimeout:     sqsVisibilitySeconds,
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, httperr.Unavailable(fmt.Errorf("sqs receive: %w", err))
	}

	now := s.clock.Now()
	deliveries := make([]queue.Delivery, 0, len(out.Messages))
	var early []queue.Delivery
	for _, m := range out.Messages {
		d := queue.Delivery{
			ID:         aws.ToString(m.MessageId),
			Body:       []byte(aws.ToString(m.Body)),
			Attributes: fromSQSAttributes(m.MessageAttributes),
			Receipt:    aws.ToString(m.ReceiptHandle),
		}
		if notBefore, ok := deferredUntil(d.Attributes); ok && notBefore.After(now) {
			early = append(early, d)
			continue
		}
		delete(d.Attributes, attrNotBefore)
		deliveries = append(deliveries, d)
	}

	s.rehop(ctx, queueURL, early)
	return deliveries, nil
}

// rehop sends early deliveries back with their remaining delay and removes
// the originals. A delivery that cannot be re-sent is left in flight and
// comes back after the visibility timeout.
func (s *SQS) rehop(ctx context.Context, queueURL string, early []queue.Delivery) {
	resent := make([]queue.Delivery, 0, len(early))
	for _, d := range early {
		notBefore, _ := deferredUntil(d.Attributes)
		attrs := make(map[string]string, len(d.Attributes))
		for k, v := range d.Attributes {
			if k != attrNotBefore {
				attrs[k] = v
			}
		}
		err := s.Send(ctx, queueURL, queue.Message{
			ID:         d.ID,
			Body:       d.Body,
			Attributes: attrs,
			NotBefore:  notBefore,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("message_id", d.ID).Msg("deferred message not re-sent")
			continue
		}
		resent = append(resent, d)
	}
	if err := s.Ack(ctx, queueURL, resent); err != nil {
		s.logger.Warn().Err(err).Int("count", len(resent)).Msg("re-sent originals not deleted")
	}
}

func deferredUntil(attrs map[string]string) (time.Time, bool) {
	raw, ok := attrs[attrNotBefore]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *SQS) Ack(ctx context.Context, queueURL string, deliveries []queue.Delivery) error {
	for start := 0; start < len(deliveries); start += sqsMaxBatch {
		end := min(start+sqsMaxBatch, len(deliveries))

		entries := make([]types.DeleteMessageBatchRequestEntry, 0, end-start)
		for i, d := range deliveries[start:end] {
			entries = append(entries, types.DeleteMessageBatchRequestEntry{
				Id:            aws.String(strconv.Itoa(start + i)),
				ReceiptHandle: aws.String(d.Receipt),
			})
		}

		out, err := s.api.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
			QueueUrl: aws.String(queueURL),
			Entries:  entries,
		})
		if err != nil {
			return httperr.Unavailable(fmt.Errorf("sqs delete: %w", err))
		}
		if len(out.Failed) > 0 {
			f := out.Failed[0]
			return httperr.Unavailable(fmt.Errorf(
				"sqs delete: %d of %d entries failed, first: %s %s",
				len(out.Failed), len(entries), aws.ToString(f.Code), aws.ToString(f.Message),
			))
		}
	}
	return nil
}

func toSQSAttributes(attrs map[string]string) map[string]types.MessageAttributeValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		out[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}
	return out
}

func fromSQSAttributes(attrs map[string]types.MessageAttributeValue) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = aws.ToString(v.StringValue)
	}
	return out
}

var _ queue.Broker = (*SQS)(nil)
