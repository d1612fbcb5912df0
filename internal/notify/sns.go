package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender sends transactional SMS through SNS.
type SNSSender struct {
	api       SNSAPI
	senderID  string
	templates *TemplateEngine
}

func NewSNSSender(api SNSAPI, senderID string, templates *TemplateEngine) *SNSSender {
	return &SNSSender{api: api, senderID: senderID, templates: templates}
}

// Notify is a no-op for recipients without a phone number.
func (s *SNSSender) Notify(ctx context.Context, kind Kind, to Recipient, data map[string]string) error {
	if to.Phone == "" {
		return nil
	}
	_, body, err := s.templates.Render(kind, data)
	if err != nil {
		return err
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(s.senderID)}
	}

	if _, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to.Phone),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	}); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
