package postgres

import (
	"context"
	"database/sql"

	"eventparticipation/internal/domain"
)

// notificationRepository appends delivered notifications to the notifications log.
type notificationRepository struct {
	DB *sql.DB
}

// NewNotificationRepository returns a NotificationSink backed by the notifications table.
func NewNotificationRepository(db *sql.DB) domain.NotificationSink {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) Deliver(ctx context.Context, n domain.Notification) error {
	query := `
		INSERT INTO notifications (user_id, event_id, type, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, n.UserID, n.EventID, string(n.Type), n.Message, n.CreatedAt)
	return err
}
