package memory

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"eventparticipation/internal/domain"
)

type seedFile struct {
	Events []seedEvent `toml:"events"`
}

type seedEvent struct {
	ID              string    `toml:"id"`
	Name            string    `toml:"name"`
	OrganizerID     string    `toml:"organizer_id"`
	MaxParticipants int       `toml:"max_participants"`
	Status          string    `toml:"status"`
	StartsAt        time.Time `toml:"starts_at"`
}

// LoadEventCatalog builds a catalog from a TOML document of [[events]] tables.
// Status defaults to active.
func LoadEventCatalog(r io.Reader) (*EventCatalog, error) {
	var f seedFile
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&f); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]*domain.Event, 0, len(f.Events))
	seen := make(map[string]bool, len(f.Events))
	for i, se := range f.Events {
		e, err := se.toEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("event %d: %w: duplicate id %q", i, domain.ErrInvalidInput, e.ID)
		}
		seen[e.ID] = true
		events = append(events, e)
	}
	return NewEventCatalog(events...), nil
}

func (se seedEvent) toEvent() (*domain.Event, error) {
	id := strings.TrimSpace(se.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	if se.MaxParticipants < 0 {
		return nil, fmt.Errorf("%w: max_participants must not be negative", domain.ErrInvalidInput)
	}
	status := domain.EventStatus(strings.ToLower(strings.TrimSpace(se.Status)))
	switch status {
	case "":
		status = domain.EventStatusActive
	case domain.EventStatusActive, domain.EventStatusCancelled, domain.EventStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, se.Status)
	}
	return &domain.Event{
		ID:              id,
		Name:            se.Name,
		OrganizerID:     se.OrganizerID,
		MaxParticipants: se.MaxParticipants,
		Status:          status,
		StartsAt:        se.StartsAt.UTC(),
	}, nil
}
