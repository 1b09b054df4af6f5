package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventparticipation/internal/domain"
	"eventparticipation/internal/repository/memory"
)

func newStatsService(catalog domain.EventCatalog, repo domain.ParticipationRepository, cache domain.StatisticsCache, now time.Time) *statisticsService {
	return &statisticsService{
		catalog:        catalog,
		repo:           repo,
		cache:          cache,
		cacheTTL:       time.Minute,
		logger:         discardLogger(),
		now:            func() time.Time { return now },
		contextTimeout: 5 * time.Second,
	}
}

func seedStatuses(t *testing.T, store *memory.ParticipationStore, eventID string, statuses map[domain.ParticipationStatus]int) {
	t.Helper()
	i := 0
	err := store.WithinEventLock(context.Background(), eventID, func(ctx context.Context, tx domain.ParticipationTx) error {
		for _, st := range domain.AllStatuses {
			for range statuses[st] {
				i++
				p := domain.NewParticipation(eventID+"-u"+string(rune('a'+i)), eventID, st, testStart)
				if err := tx.Create(ctx, p); err != nil {
					return err
				}
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestProjectEventStatistics(t *testing.T) {
	past := &domain.Event{ID: "e1", MaxParticipants: 3, StartsAt: testStart.Add(-time.Hour)}
	future := &domain.Event{ID: "e2", MaxParticipants: 4, StartsAt: testStart.Add(time.Hour)}
	noCapacity := &domain.Event{ID: "e3", MaxParticipants: 0, StartsAt: testStart.Add(-time.Hour)}

	tests := []struct {
		name           string
		event          *domain.Event
		counts         map[domain.ParticipationStatus]int
		wantActive     int
		wantTotal      int
		wantFill       float64
		wantAttendance float64
		wantPast       bool
	}{
		{
			name:           "past event attendance over expected participants",
			event:          past,
			counts:         map[domain.ParticipationStatus]int{domain.StatusAttended: 2, domain.StatusRegistered: 1},
			wantActive:     1,
			wantTotal:      1,
			wantFill:       1.0 / 3.0,
			wantAttendance: 2.0 / 3.0,
			wantPast:       true,
		},
		{
			name:       "future event has no attendance rate",
			event:      future,
			counts:     map[domain.ParticipationStatus]int{domain.StatusRegistered: 1, domain.StatusConfirmed: 1, domain.StatusWaitlisted: 3},
			wantActive: 2,
			wantTotal:  5,
			wantFill:   0.5,
		},
		{
			name:     "zero capacity and no participants",
			event:    noCapacity,
			counts:   map[domain.ParticipationStatus]int{},
			wantPast: true,
		},
		{
			name:       "cancelled rows are excluded from totals",
			event:      future,
			counts:     map[domain.ParticipationStatus]int{domain.StatusCancelled: 4, domain.StatusRegistered: 4},
			wantActive: 4,
			wantTotal:  4,
			wantFill:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ProjectEventStatistics(tt.event, tt.counts, testStart)
			assert.Equal(t, tt.event.ID, st.EventID)
			assert.Equal(t, tt.wantActive, st.ActiveCount)
			assert.Equal(t, tt.wantTotal, st.TotalCount)
			assert.InDelta(t, tt.wantFill, st.FillRate, 1e-9)
			assert.InDelta(t, tt.wantAttendance, st.AttendanceRate, 1e-9)
			assert.Equal(t, tt.wantPast, st.Past)
		})
	}
}

func TestStatisticsService_GetEventStatistics(t *testing.T) {
	event := &domain.Event{ID: "e1", Name: "Past", OrganizerID: "org1", MaxParticipants: 3,
		Status: domain.EventStatusCompleted, StartsAt: testStart.Add(-24 * time.Hour)}
	store := memory.NewParticipationStore()
	seedStatuses(t, store, "e1", map[domain.ParticipationStatus]int{
		domain.StatusAttended:   2,
		domain.StatusRegistered: 1,
		domain.StatusCancelled:  1,
	})
	cache := newFakeStatsCache()
	svc := newStatsService(memory.NewEventCatalog(event), store, cache, testStart)

	st, err := svc.GetEventStatistics(context.Background(), "e1")
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, st.AttendanceRate, 1e-9)
	assert.Equal(t, 1, st.CancelledCount)
	assert.Equal(t, 1, cache.sets)

	// Served from cache without touching the repository.
	svc.repo = &failingRepository{ParticipationStore: store, countErr: errors.New("must not be called")}
	again, err := svc.GetEventStatistics(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, st, again)
	assert.Equal(t, 1, cache.sets)
}

func TestStatisticsService_GetEventStatistics_Errors(t *testing.T) {
	store := memory.NewParticipationStore()

	svc := newStatsService(memory.NewEventCatalog(), store, nil, testStart)
	_, err := svc.GetEventStatistics(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	boom := errors.New("count failed")
	svc = newStatsService(memory.NewEventCatalog(activeEvent("e1", 2)),
		&failingRepository{ParticipationStore: store, countErr: boom}, nil, testStart)
	_, err = svc.GetEventStatistics(context.Background(), "e1")
	assert.ErrorIs(t, err, boom)
}

func TestStatisticsService_CacheReadFailureFallsBack(t *testing.T) {
	store := memory.NewParticipationStore()
	seedStatuses(t, store, "e1", map[domain.ParticipationStatus]int{domain.StatusRegistered: 1})
	cache := newFakeStatsCache()
	cache.getErr = errors.New("redis down")
	svc := newStatsService(memory.NewEventCatalog(activeEvent("e1", 2)), store, cache, testStart)

	st, err := svc.GetEventStatistics(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.ActiveCount)
	assert.InDelta(t, 0.5, st.FillRate, 1e-9)
}

func TestStatisticsService_InvalidatedAfterJoin(t *testing.T) {
	f := newFixture(activeEvent("e1", 2))
	stats := newStatsService(f.catalog, f.store, f.cache, testStart)

	before, err := stats.GetEventStatistics(context.Background(), "e1")
	require.NoError(t, err)
	assert.Zero(t, before.ActiveCount)

	f.join(t, "u1", "e1")

	after, err := stats.GetEventStatistics(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.ActiveCount)
}

func TestStatisticsService_ReadRacingJoinDoesNotCacheStaleCounts(t *testing.T) {
	f := newFixture(activeEvent("e1", 2))
	gated := newGatedRepository(f.store)
	stats := newStatsService(f.catalog, gated, f.cache, testStart)

	type result struct {
		st  *domain.EventStatistics
		err error
	}
	done := make(chan result, 1)
	go func() {
		st, err := stats.GetEventStatistics(context.Background(), "e1")
		done <- result{st, err}
	}()

	<-gated.counted
	f.join(t, "u1", "e1")
	close(gated.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Zero(t, first.st.ActiveCount, "counted before the join committed")

	after, err := stats.GetEventStatistics(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.ActiveCount)
}

func TestStatisticsService_WaiterSurvivesFirstCallerCancellation(t *testing.T) {
	store := memory.NewParticipationStore()
	seedStatuses(t, store, "e1", map[domain.ParticipationStatus]int{domain.StatusRegistered: 1})
	gated := newGatedRepository(store)
	cache := newFakeStatsCache()
	stats := newStatsService(memory.NewEventCatalog(activeEvent("e1", 2)), gated, cache, testStart)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := stats.GetEventStatistics(ctxA, "e1")
		errA <- err
	}()
	<-gated.counted

	type result struct {
		st  *domain.EventStatistics
		err error
	}
	doneB := make(chan result, 1)
	go func() {
		st, err := stats.GetEventStatistics(context.Background(), "e1")
		doneB <- result{st, err}
	}()
	// B has missed the cache and is about to wait on the shared computation.
	require.Eventually(t, func() bool { return cache.readCount() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(gated.release)
	b := <-doneB
	require.NoError(t, b.err)
	assert.Equal(t, 1, b.st.ActiveCount)
}

func TestStatisticsService_GenerationReadFailureSkipsCache(t *testing.T) {
	store := memory.NewParticipationStore()
	seedStatuses(t, store, "e1", map[domain.ParticipationStatus]int{domain.StatusRegistered: 2})
	cache := newFakeStatsCache()
	cache.genErr = errors.New("redis down")
	svc := newStatsService(memory.NewEventCatalog(activeEvent("e1", 4)), store, cache, testStart)

	st, err := svc.GetEventStatistics(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.ActiveCount)
	assert.Zero(t, cache.sets)
}

func TestStatisticsService_GetOrganizerStatistics(t *testing.T) {
	pastEvent := &domain.Event{ID: "p1", OrganizerID: "org1", MaxParticipants: 4,
		Status: domain.EventStatusCompleted, StartsAt: testStart.Add(-48 * time.Hour)}
	futureEvent := &domain.Event{ID: "f1", OrganizerID: "org1", MaxParticipants: 2,
		Status: domain.EventStatusActive, StartsAt: testStart.Add(48 * time.Hour)}
	otherOrganizer := &domain.Event{ID: "x1", OrganizerID: "org2", MaxParticipants: 2,
		Status: domain.EventStatusActive, StartsAt: testStart}

	store := memory.NewParticipationStore()
	seedStatuses(t, store, "p1", map[domain.ParticipationStatus]int{domain.StatusAttended: 3, domain.StatusConfirmed: 1})
	seedStatuses(t, store, "f1", map[domain.ParticipationStatus]int{domain.StatusRegistered: 2, domain.StatusWaitlisted: 1})
	seedStatuses(t, store, "x1", map[domain.ParticipationStatus]int{domain.StatusRegistered: 2})

	svc := newStatsService(memory.NewEventCatalog(pastEvent, futureEvent, otherOrganizer), store, newFakeStatsCache(), testStart)

	got, err := svc.GetOrganizerStatistics(context.Background(), "org1")
	require.NoError(t, err)
	assert.Equal(t, "org1", got.OrganizerID)
	assert.Equal(t, 2, got.EventCount)
	assert.Equal(t, 3, got.ActiveCount)
	assert.Equal(t, 1, got.WaitlistedCount)
	assert.Equal(t, 3, got.AttendedCount)
	assert.InDelta(t, 0.75, got.AttendanceRate, 1e-9)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "f1", got.Events[0].EventID)

	empty, err := svc.GetOrganizerStatistics(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.EventCount)
	assert.NotNil(t, empty.Events)
}

func TestStatisticsService_AuthorizeEventAccess(t *testing.T) {
	svc := newStatsService(memory.NewEventCatalog(activeEvent("e1", 2)), memory.NewParticipationStore(), nil, testStart)

	tests := []struct {
		name    string
		eventID string
		caller  domain.Identity
		wantErr error
	}{
		{"organizer of the event", "e1", domain.Identity{UserID: "org1", Role: domain.RoleOrganizer}, nil},
		{"admin", "e1", domain.Identity{UserID: "root", Role: domain.RoleAdmin}, nil},
		{"admin on unknown event", "missing", domain.Identity{UserID: "root", Role: domain.RoleAdmin}, nil},
		{"other organizer", "e1", domain.Identity{UserID: "org2", Role: domain.RoleOrganizer}, domain.ErrForbidden},
		{"participant", "e1", domain.Identity{UserID: "u1", Role: domain.RoleUser}, domain.ErrForbidden},
		{"unknown event", "missing", domain.Identity{UserID: "org1", Role: domain.RoleOrganizer}, domain.ErrEventNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AuthorizeEventAccess(context.Background(), tt.eventID, tt.caller)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
