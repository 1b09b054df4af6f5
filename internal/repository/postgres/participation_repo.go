package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventparticipation/internal/domain"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const participationColumns = `id, user_id, event_id, status, registered_at`

type participationRepository struct {
	DB *sql.DB
}

func NewParticipationRepository(db *sql.DB) domain.ParticipationRepository {
	return &participationRepository{
		DB: db,
	}
}

// WithinEventLock runs fn in a transaction holding a transaction-scoped advisory
// lock keyed by the event id.
func (r *participationRepository) WithinEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.ParticipationTx) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
		return fmt.Errorf("lock event: %w", err)
	}
	if err = fn(ctx, &participationTx{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *participationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	return getByEventAndUser(ctx, r.DB, eventID, userID)
}

func (r *participationRepository) ListByUserAndEvents(ctx context.Context, userID string, eventIDs []string) ([]*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE user_id = $1 AND event_id = ANY($2)
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	return scanParticipations(rows)
}

func (r *participationRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return scanParticipations(rows)
}

func (r *participationRepository) CountByStatus(ctx context.Context, eventID string) (map[domain.ParticipationStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM participations
		WHERE event_id = $1
		GROUP BY status
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ParticipationStatus]int)
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, err
		}
		status, err := domain.ParseParticipationStatus(raw)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

type participationTx struct {
	q querier
}

func (t *participationTx) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	return getByEventAndUser(ctx, t.q, eventID, userID)
}

func (t *participationTx) CountActive(ctx context.Context, eventID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM participations
		WHERE event_id = $1 AND status IN ('REGISTERED', 'CONFIRMED')
	`
	var n int
	if err := t.q.QueryRowContext(ctx, query, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *participationTx) Create(ctx context.Context, p *domain.Participation) error {
	query := `
		INSERT INTO participations (user_id, event_id, status, registered_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := t.q.QueryRowContext(ctx, query, p.UserID, p.EventID, string(p.Status), p.RegisteredAt).Scan(&p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (t *participationTx) Update(ctx context.Context, p *domain.Participation) error {
	query := `
		UPDATE participations
		SET status = $2, registered_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	res, err := t.q.ExecContext(ctx, query, p.ID, string(p.Status), p.RegisteredAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *participationTx) NextWaitlisted(ctx context.Context, eventID string) (*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1 AND status = 'WAITLISTED'
		ORDER BY registered_at ASC, seq ASC
		LIMIT 1
	`
	return scanParticipation(t.q.QueryRowContext(ctx, query, eventID))
}

func getByEventAndUser(ctx context.Context, q querier, eventID, userID string) (*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1 AND user_id = $2
	`
	return scanParticipation(q.QueryRowContext(ctx, query, eventID, userID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipation(row rowScanner) (*domain.Participation, error) {
	p := &domain.Participation{}
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.EventID, &status, &p.RegisteredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	st, err := domain.ParseParticipationStatus(status)
	if err != nil {
		return nil, err
	}
	p.Status = st
	p.RegisteredAt = p.RegisteredAt.UTC()
	return p, nil
}

func scanParticipations(rows *sql.Rows) ([]*domain.Participation, error) {
	defer rows.Close()
	out := make([]*domain.Participation, 0)
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
