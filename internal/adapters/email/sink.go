package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventparticipation/internal/domain"
)

// templateData is what every notification template receives.
type templateData struct {
	EventID   string
	EventName string
	Message   string
}

// Sink delivers notifications by email. Users without an address on file are skipped.
type Sink struct {
	directory domain.RecipientDirectory
	renderer  domain.EmailTemplateRenderer
	mailer    domain.Mailer
	logger    *slog.Logger
}

// NewSink returns a NotificationSink that emails the notified user.
func NewSink(directory domain.RecipientDirectory, renderer domain.EmailTemplateRenderer, mailer domain.Mailer, logger *slog.Logger) *Sink {
	return &Sink{directory: directory, renderer: renderer, mailer: mailer, logger: logger}
}

// Deliver implements domain.NotificationSink.
func (s *Sink) Deliver(ctx context.Context, n domain.Notification) error {
	to, err := s.directory.EmailByUserID(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.DebugContext(ctx, "no email on file, skipping", "user_id", n.UserID)
			return nil
		}
		return fmt.Errorf("lookup recipient: %w", err)
	}

	eventName := n.EventName
	if eventName == "" {
		eventName = n.EventID
	}
	subject, html, text, err := s.renderer.Render(string(n.Type), templateData{
		EventID:   n.EventID,
		EventName: eventName,
		Message:   n.Message,
	})
	if err != nil {
		return fmt.Errorf("render %s email: %w", n.Type, err)
	}
	if err := s.mailer.Send(ctx, to, subject, html, text); err != nil {
		return fmt.Errorf("send %s email: %w", n.Type, err)
	}
	return nil
}
