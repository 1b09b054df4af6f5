package domain

import (
	"context"
	"fmt"
	"time"
)

// ParticipationStatus is the state of one user's participation in one event.
type ParticipationStatus string

const (
	StatusRegistered ParticipationStatus = "REGISTERED"
	StatusConfirmed  ParticipationStatus = "CONFIRMED"
	StatusWaitlisted ParticipationStatus = "WAITLISTED"
	StatusCancelled  ParticipationStatus = "CANCELLED"
	StatusAttended   ParticipationStatus = "ATTENDED"
)

// AllStatuses lists every participation status in display order.
var AllStatuses = []ParticipationStatus{
	StatusRegistered,
	StatusConfirmed,
	StatusWaitlisted,
	StatusCancelled,
	StatusAttended,
}

// ParseParticipationStatus converts a stored string into a ParticipationStatus.
func ParseParticipationStatus(s string) (ParticipationStatus, error) {
	switch st := ParticipationStatus(s); st {
	case StatusRegistered, StatusConfirmed, StatusWaitlisted, StatusCancelled, StatusAttended:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown participation status %q", ErrInvalidInput, s)
}

// CountsAgainstCapacity reports whether the status occupies one of the event's slots.
func (s ParticipationStatus) CountsAgainstCapacity() bool {
	return s == StatusRegistered || s == StatusConfirmed
}

// Leavable reports whether a participant in this status may leave the event.
func (s ParticipationStatus) Leavable() bool {
	switch s {
	case StatusRegistered, StatusConfirmed, StatusWaitlisted:
		return true
	}
	return false
}

// Participation is the single row tracking a user's relationship to an event.
// RegisteredAt is refreshed on every (re)admission and orders the waitlist.
// swagger:model Participation
type Participation struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	EventID      string              `json:"event_id"`
	Status       ParticipationStatus `json:"status"`
	RegisteredAt time.Time           `json:"registered_at"`
}

// NewParticipation returns a Participation for a first join. ID is set by the repository on create.
func NewParticipation(userID, eventID string, status ParticipationStatus, registeredAt time.Time) *Participation {
	return &Participation{
		UserID:       userID,
		EventID:      eventID,
		Status:       status,
		RegisteredAt: registeredAt,
	}
}

// ParticipationTx is the view of one event's participations while its lock is held.
type ParticipationTx interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Participation, error)
	// CountActive counts REGISTERED and CONFIRMED rows; this is the capacity query.
	CountActive(ctx context.Context, eventID string) (int, error)
	Create(ctx context.Context, p *Participation) error
	// Update persists Status and RegisteredAt of an existing row.
	Update(ctx context.Context, p *Participation) error
	// NextWaitlisted returns the WAITLISTED row with the smallest RegisteredAt,
	// ties broken by insertion order, or ErrNotFound.
	NextWaitlisted(ctx context.Context, eventID string) (*Participation, error)
}

// ParticipationRepository stores one participation per (user, event) pair.
type ParticipationRepository interface {
	// WithinEventLock runs fn with exclusive access to eventID's participations.
	// Changes made through tx are committed only when fn returns nil.
	WithinEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx ParticipationTx) error) error

	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Participation, error)
	ListByUserAndEvents(ctx context.Context, userID string, eventIDs []string) ([]*Participation, error)
	ListByEvent(ctx context.Context, eventID string) ([]*Participation, error)
	CountByStatus(ctx context.Context, eventID string) (map[ParticipationStatus]int, error)
}

// ParticipationService is the participation lifecycle engine.
type ParticipationService interface {
	JoinEvent(ctx context.Context, userID, eventID string) (*Participation, error)
	LeaveEvent(ctx context.Context, userID, eventID string) (*Participation, error)
	GetParticipationsForEvents(ctx context.Context, userID string, eventIDs []string) (map[string]ParticipationStatus, error)
	// HandleEventCancelled notifies every non-cancelled participant of a cancelled event.
	// It returns the number of notifications emitted.
	HandleEventCancelled(ctx context.Context, eventID string) (int, error)
}
