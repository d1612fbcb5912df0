package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes rendered notifications to the log instead of delivering them.
type LogSender struct {
	logger    zerolog.Logger
	templates *TemplateEngine
}

func NewLogSender(logger zerolog.Logger, templates *TemplateEngine) *LogSender {
	return &LogSender{
		logger:    logger.With().Str("component", "notify.log").Logger(),
		templates: templates,
	}
}

func (s *LogSender) Notify(ctx context.Context, kind Kind, to Recipient, data map[string]string) error {
	subject, body, err := s.templates.Render(kind, data)
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("kind", string(kind)).
		Str("to_email", to.Email).
		Str("to_phone", to.Phone).
		Str("subject", subject).
		Str("body", body).
		Msg("notification")
	return nil
}
