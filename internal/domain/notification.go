package domain

import (
	"context"
	"time"
)

// NotificationType identifies the kind of message sent to a user.
type NotificationType string

const (
	NotificationEventCancelled   NotificationType = "event_cancelled"
	NotificationWaitlistPromoted NotificationType = "waitlist_promoted"
)

// Notification is a message to a user about an event. It is append-only.
// swagger:model Notification
type Notification struct {
	UserID    string           `json:"user_id"`
	EventID   string           `json:"event_id"`
	EventName string           `json:"event_name,omitempty"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// Notifier accepts notifications for best-effort delivery. Notify must not block
// on delivery and has no failure mode visible to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotificationSink delivers a rendered notification to one channel.
type NotificationSink interface {
	Deliver(ctx context.Context, n Notification) error
}

// MessageTranslator renders a user-facing message for a key and locale.
type MessageTranslator interface {
	T(locale, key string, data map[string]any) string
}

// RecipientDirectory resolves the email address of a user.
type RecipientDirectory interface {
	EmailByUserID(ctx context.Context, userID string) (string, error)
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// NotificationLedger records which (user, event, type) notifications were already
// issued. Claim reports false when the triple was claimed before.
type NotificationLedger interface {
	Claim(ctx context.Context, userID, eventID string, t NotificationType) (bool, error)
}
