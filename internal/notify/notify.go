// Package notify delivers patient notifications over email, SMS and logs.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind names a notification and the template used to render it.
type Kind string

const (
	KindConfirmation Kind = "appointment-confirmation"
	KindReminder     Kind = "appointment-reminder"
)

type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Sender delivers one notification. Callers treat errors as best-effort
// failures.
type Sender interface {
	Notify(ctx context.Context, kind Kind, to Recipient, data map[string]string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

type Template struct {
	Subject string
	Body    string
}

// TemplateEngine renders {{key}} placeholders from a data map.
type TemplateEngine struct {
	templates map[Kind]Template
}

func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		templates: map[Kind]Template{
			KindConfirmation: {
				Subject: "Your appointment is confirmed",
				Body: "Dear {{patientName}}, your appointment on {{appointmentDate}} from {{startTime}} " +
					"to {{endTime}} is confirmed. Reference: {{appointmentId}}.",
			},
			KindReminder: {
				Subject: "Appointment Reminder for {{patientName}}",
				Body: "Dear {{patientName}}, this is a reminder of your appointment on {{appointmentDate}} " +
					"from {{startTime}} to {{endTime}}.",
			},
		},
	}
}

// Render leaves placeholders without data untouched.
func (e *TemplateEngine) Render(kind Kind, data map[string]string) (subject, body string, err error) {
	t, ok := e.templates[kind]
	if !ok {
		return "", "", fmt.Errorf("template %q not found", kind)
	}

	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Fan-out
// ---------------------------------------------------------------------------

// Fanout sends through every sender and joins their errors.
type Fanout []Sender

func (f Fanout) Notify(ctx context.Context, kind Kind, to Recipient, data map[string]string) error {
	var errs []error
	for _, s := range f {
		if err := s.Notify(ctx, kind, to, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
