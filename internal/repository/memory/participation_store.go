// Package memory provides process-local storage for participations.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"eventparticipation/internal/domain"
)

// ParticipationStore keeps participations in insertion order. Each event has its
// own lock; operations on different events never contend on it.
type ParticipationStore struct {
	mu    sync.RWMutex
	rows  []*domain.Participation
	index map[rowKey]int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type rowKey struct {
	eventID string
	userID  string
}

// NewParticipationStore returns an empty store.
func NewParticipationStore() *ParticipationStore {
	return &ParticipationStore{
		index: make(map[rowKey]int),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *ParticipationStore) eventLock(eventID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[eventID] = l
	}
	return l
}

// WithinEventLock implements domain.ParticipationRepository. Writes made through
// tx are staged and applied only when fn returns nil.
func (s *ParticipationStore) WithinEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.ParticipationTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	tx := &participationTx{store: s, eventID: eventID, updated: make(map[string]*domain.Participation)}
	s.mu.RLock()
	for _, r := range s.rows {
		if r.EventID == eventID {
			tx.rows = append(tx.rows, clone(r))
		}
	}
	s.mu.RUnlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *ParticipationStore) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[rowKey{eventID, userID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(s.rows[i]), nil
}

func (s *ParticipationStore) ListByUserAndEvents(ctx context.Context, userID string, eventIDs []string) ([]*domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Participation, 0, len(eventIDs))
	for _, eventID := range eventIDs {
		if i, ok := s.index[rowKey{eventID, userID}]; ok {
			out = append(out, clone(s.rows[i]))
		}
	}
	return out, nil
}

func (s *ParticipationStore) ListByEvent(ctx context.Context, eventID string) ([]*domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Participation, 0)
	for _, r := range s.rows {
		if r.EventID == eventID {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (s *ParticipationStore) CountByStatus(ctx context.Context, eventID string) (map[domain.ParticipationStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.ParticipationStatus]int)
	for _, r := range s.rows {
		if r.EventID == eventID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

// participationTx works on copies of one event's rows.
type participationTx struct {
	store   *ParticipationStore
	eventID string
	rows    []*domain.Participation
	created []*domain.Participation
	updated map[string]*domain.Participation
}

func (tx *participationTx) find(eventID, userID string) *domain.Participation {
	for _, r := range tx.rows {
		if r.EventID == eventID && r.UserID == userID {
			return r
		}
	}
	return nil
}

func (tx *participationTx) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	r := tx.find(eventID, userID)
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return clone(r), nil
}

func (tx *participationTx) CountActive(ctx context.Context, eventID string) (int, error) {
	n := 0
	for _, r := range tx.rows {
		if r.EventID == eventID && r.Status.CountsAgainstCapacity() {
			n++
		}
	}
	return n, nil
}

func (tx *participationTx) Create(ctx context.Context, p *domain.Participation) error {
	if p.EventID != tx.eventID {
		return domain.ErrInvalidInput
	}
	if tx.find(p.EventID, p.UserID) != nil {
		return domain.ErrAlreadyRegistered
	}
	p.ID = uuid.NewString()
	row := clone(p)
	tx.rows = append(tx.rows, row)
	tx.created = append(tx.created, row)
	return nil
}

func (tx *participationTx) Update(ctx context.Context, p *domain.Participation) error {
	for _, r := range tx.rows {
		if r.ID == p.ID {
			r.Status = p.Status
			r.RegisteredAt = p.RegisteredAt
			tx.updated[r.ID] = r
			return nil
		}
	}
	return domain.ErrNotFound
}

func (tx *participationTx) NextWaitlisted(ctx context.Context, eventID string) (*domain.Participation, error) {
	var next *domain.Participation
	for _, r := range tx.rows {
		if r.EventID != eventID || r.Status != domain.StatusWaitlisted {
			continue
		}
		// Strict comparison keeps the earliest-inserted row on equal timestamps.
		if next == nil || r.RegisteredAt.Before(next.RegisteredAt) {
			next = r
		}
	}
	if next == nil {
		return nil, domain.ErrNotFound
	}
	return clone(next), nil
}

func (tx *participationTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range tx.updated {
		for _, row := range s.rows {
			if row.ID == id {
				row.Status = r.Status
				row.RegisteredAt = r.RegisteredAt
				break
			}
		}
	}
	for _, r := range tx.created {
		s.index[rowKey{r.EventID, r.UserID}] = len(s.rows)
		s.rows = append(s.rows, clone(r))
	}
}

func clone(p *domain.Participation) *domain.Participation {
	c := *p
	return &c
}
