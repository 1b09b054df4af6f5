package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventparticipation/internal/domain"
)

// eventRepository reads the catalog-owned events table. It never writes.
type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventCatalog {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, organizer_id, max_participants, status, starts_at
		FROM events
		WHERE id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	query := `
		SELECT id, name, organizer_id, max_participants, status, starts_at
		FROM events
		WHERE organizer_id = $1
		ORDER BY starts_at DESC NULLS LAST
	`
	rows, err := r.DB.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	var startsAt sql.NullTime
	if err := row.Scan(&e.ID, &e.Name, &e.OrganizerID, &e.MaxParticipants, &status, &startsAt); err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	if startsAt.Valid {
		e.StartsAt = startsAt.Time.UTC()
	}
	return e, nil
}
