package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle status of an event as published by the catalog.
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// Event is the read-only view of a catalog event consumed by the participation engine.
// swagger:model Event
type Event struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	OrganizerID     string      `json:"organizer_id"`
	MaxParticipants int         `json:"max_participants"`
	Status          EventStatus `json:"status"`
	StartsAt        time.Time   `json:"starts_at"`
}

// Joinable reports whether new registrations are accepted.
func (e *Event) Joinable() bool {
	return e.Status == EventStatusActive
}

// HasStarted reports whether the event date is at or before now.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.IsZero() && !e.StartsAt.After(now)
}

// EventCatalog is the read port onto the external event catalog.
type EventCatalog interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
}
