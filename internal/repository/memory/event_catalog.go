package memory

import (
	"context"
	"sort"
	"sync"

	"eventparticipation/internal/domain"
)

// EventCatalog is a process-local domain.EventCatalog.
type EventCatalog struct {
	mu     sync.RWMutex
	events map[string]domain.Event
}

// NewEventCatalog returns a catalog seeded with events.
func NewEventCatalog(events ...*domain.Event) *EventCatalog {
	c := &EventCatalog{events: make(map[string]domain.Event, len(events))}
	for _, e := range events {
		c.Put(e)
	}
	return c
}

// Put inserts or replaces an event.
func (c *EventCatalog) Put(e *domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[e.ID] = *e
}

// SetStatus changes the status of a stored event.
func (c *EventCatalog) SetStatus(id string, status domain.EventStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	c.events[id] = e
	return nil
}

func (c *EventCatalog) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (c *EventCatalog) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Event, 0)
	for _, e := range c.events {
		if e.OrganizerID == organizerID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out, nil
}
