package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"eventparticipation/internal/domain"
	"eventparticipation/internal/repository/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

type fakeStatsCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.EventStatistics
	generations map[string]int64
	invalidated []string
	getErr      error
	genErr      error
	sets        int
	reads       int
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{
		entries:     make(map[string]*domain.EventStatistics),
		generations: make(map[string]int64),
	}
}

func statsKey(eventID string, generation int64) string {
	return fmt.Sprintf("%s:%d", eventID, generation)
}

func (c *fakeStatsCache) Generation(ctx context.Context, eventID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genErr != nil {
		return 0, c.genErr
	}
	return c.generations[eventID], nil
}

func (c *fakeStatsCache) Get(ctx context.Context, eventID string, generation int64) (*domain.EventStatistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.getErr != nil {
		return nil, c.getErr
	}
	st, ok := c.entries[statsKey(eventID, generation)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (c *fakeStatsCache) Set(ctx context.Context, st *domain.EventStatistics, generation int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *st
	c.entries[statsKey(st.EventID, generation)] = &cp
	c.sets++
	return nil
}

func (c *fakeStatsCache) Invalidate(ctx context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[eventID]++
	c.invalidated = append(c.invalidated, eventID)
	return nil
}

func (c *fakeStatsCache) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// gatedRepository pauses CountByStatus after counting until release is closed.
type gatedRepository struct {
	*memory.ParticipationStore
	counted chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedRepository(store *memory.ParticipationStore) *gatedRepository {
	return &gatedRepository{
		ParticipationStore: store,
		counted:            make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (g *gatedRepository) CountByStatus(ctx context.Context, eventID string) (map[domain.ParticipationStatus]int, error) {
	counts, err := g.ParticipationStore.CountByStatus(ctx, eventID)
	g.once.Do(func() { close(g.counted) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return counts, err
}

type failingCatalog struct {
	err error
}

func (f *failingCatalog) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return nil, f.err
}

func (f *failingCatalog) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	return nil, f.err
}

// failingRepository wraps a real store and fails selected calls.
type failingRepository struct {
	*memory.ParticipationStore
	listErr  error
	countErr error
}

func (f *failingRepository) ListByUserAndEvents(ctx context.Context, userID string, eventIDs []string) ([]*domain.Participation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ParticipationStore.ListByUserAndEvents(ctx, userID, eventIDs)
}

func (f *failingRepository) CountByStatus(ctx context.Context, eventID string) (map[domain.ParticipationStatus]int, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.ParticipationStore.CountByStatus(ctx, eventID)
}

type failingLedger struct {
	err error
}

func (f failingLedger) Claim(ctx context.Context, userID, eventID string, t domain.NotificationType) (bool, error) {
	return false, f.err
}

type failingSink struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSink) Deliver(ctx context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("sink unavailable")
}

type recordingSink struct {
	mu        sync.Mutex
	delivered []domain.Notification
	block     chan struct{}
}

func (r *recordingSink) Deliver(ctx context.Context, n domain.Notification) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, n)
	return nil
}

func (r *recordingSink) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.delivered...)
}

type staticTranslator struct{}

func (staticTranslator) T(locale, key string, data map[string]any) string {
	name, _ := data["EventName"].(string)
	return locale + ":" + key + ":" + name
}

// steppingClock returns strictly increasing times so registeredAt orders joins.
type steppingClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newSteppingClock(start time.Time) *steppingClock {
	return &steppingClock{cur: start}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}
