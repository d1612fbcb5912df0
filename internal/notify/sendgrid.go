package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridClient is satisfied by *sendgrid.Client.
type SendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client    SendGridClient
	from      *mail.Email
	templates *TemplateEngine
}

func NewSendGridSender(apiKey, fromName, fromEmail string, templates *TemplateEngine) *SendGridSender {
	return NewSendGridSenderWithClient(sendgrid.NewSendClient(apiKey), fromName, fromEmail, templates)
}

func NewSendGridSenderWithClient(client SendGridClient, fromName, fromEmail string, templates *TemplateEngine) *SendGridSender {
	return &SendGridSender{
		client:    client,
		from:      mail.NewEmail(fromName, fromEmail),
		templates: templates,
	}
}

// Notify is a no-op for recipients without an email address.
func (s *SendGridSender) Notify(ctx context.Context, kind Kind, to Recipient, data map[string]string) error {
	if to.Email == "" {
		return nil
	}
	subject, body, err := s.templates.Render(kind, data)
	if err != nil {
		return err
	}

	m := mail.NewV3MailInit(
		s.from, subject,
		mail.NewEmail(to.Name, to.Email),
		mail.NewContent("text/plain", body))
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
