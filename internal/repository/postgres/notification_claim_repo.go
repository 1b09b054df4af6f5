package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventparticipation/internal/domain"
)

type notificationClaimRepository struct {
	DB *sql.DB
}

// NewNotificationClaimRepository returns a NotificationLedger backed by notification_claims.
func NewNotificationClaimRepository(db *sql.DB) domain.NotificationLedger {
	return &notificationClaimRepository{DB: db}
}

func (r *notificationClaimRepository) Claim(ctx context.Context, userID, eventID string, t domain.NotificationType) (bool, error) {
	query := `
		INSERT INTO notification_claims (user_id, event_id, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, event_id, type) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, query, userID, eventID, string(t))
	if err != nil {
		return false, fmt.Errorf("claim notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim notification: %w", err)
	}
	return n == 1, nil
}
