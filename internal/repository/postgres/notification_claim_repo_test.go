package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventparticipation/internal/domain"
)

func TestNotificationClaimRepository_Claim(t *testing.T) {
	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    bool
		wantErr bool
	}{
		{
			name: "first claim",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO notification_claims \(user_id, event_id, type\)`).
					WithArgs("user-1", "ev-1", "event_cancelled").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			want: true,
		},
		{
			name: "already claimed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`ON CONFLICT \(user_id, event_id, type\) DO NOTHING`).
					WithArgs("user-1", "ev-1", "event_cancelled").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			want: false,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO notification_claims`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
		{
			name: "rows affected error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO notification_claims`).
					WillReturnResult(sqlmock.NewErrorResult(errors.New("driver")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewNotificationClaimRepository(db).Claim(context.Background(), "user-1", "ev-1", domain.NotificationEventCancelled)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
