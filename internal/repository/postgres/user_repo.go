package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"eventparticipation/internal/domain"
)

// userRepository resolves notification recipients from the account-owned users table.
type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.RecipientDirectory {
	return &userRepository{DB: db}
}

func (r *userRepository) EmailByUserID(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT email
		FROM users
		WHERE id = $1
	`
	var email sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	addr := strings.TrimSpace(email.String)
	if !email.Valid || addr == "" {
		return "", domain.ErrNotFound
	}
	return addr, nil
}
