package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"eventparticipation/internal/domain"
)

const organizerStatsConcurrency = 4

type statisticsService struct {
	catalog        domain.EventCatalog
	repo           domain.ParticipationRepository
	cache          domain.StatisticsCache
	cacheTTL       time.Duration
	group          singleflight.Group
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewStatisticsService creates the read-only statistics projector. cache may be nil.
func NewStatisticsService(
	catalog domain.EventCatalog,
	repo domain.ParticipationRepository,
	cache domain.StatisticsCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
	timeout time.Duration,
) domain.StatisticsService {
	return &statisticsService{
		catalog:        catalog,
		repo:           repo,
		cache:          cache,
		cacheTTL:       cacheTTL,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *statisticsService) GetEventStatistics(ctx context.Context, eventID string) (*domain.EventStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.eventStatistics(ctx, event)
}

func (s *statisticsService) GetOrganizerStatistics(ctx context.Context, organizerID string) (*domain.OrganizerStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.catalog.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}

	perEvent := make([]*domain.EventStatistics, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(organizerStatsConcurrency)
	for i, event := range events {
		g.Go(func() error {
			st, err := s.eventStatistics(gctx, event)
			if err != nil {
				return err
			}
			perEvent[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aggregateOrganizer(organizerID, perEvent), nil
}

func (s *statisticsService) AuthorizeEventAccess(ctx context.Context, eventID string, caller domain.Identity) error {
	if caller.IsAdmin() {
		return nil
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != caller.UserID {
		return domain.ErrForbidden
	}
	return nil
}

// eventStatistics serves from cache, coalescing concurrent misses per event and
// cache generation. The shared computation is detached from any one caller's
// context; each caller stops waiting only when its own context ends.
func (s *statisticsService) eventStatistics(ctx context.Context, event *domain.Event) (*domain.EventStatistics, error) {
	gen, cacheable := s.cacheGeneration(ctx, event.ID)
	if cacheable {
		cached, err := s.cache.Get(ctx, event.ID, gen)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "statistics cache read failed", "event_id", event.ID, "err", err)
		}
	}

	key := event.ID
	if cacheable {
		key = fmt.Sprintf("%s#%d", event.ID, gen)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
		defer cancel()

		counts, err := s.repo.CountByStatus(fctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("count participations: %w", err)
		}
		st := ProjectEventStatistics(event, counts, s.now())
		if cacheable {
			// Stored under the generation read before counting; a mutation in
			// between has already moved readers to a newer generation.
			if err := s.cache.Set(fctx, st, gen, s.cacheTTL); err != nil {
				s.logger.WarnContext(fctx, "statistics cache write failed", "event_id", event.ID, "err", err)
			}
		}
		return st, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		st := *res.Val.(*domain.EventStatistics)
		return &st, nil
	}
}

// cacheGeneration reports the event's cache generation, or false when there is
// no cache or the generation cannot be read.
func (s *statisticsService) cacheGeneration(ctx context.Context, eventID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "statistics cache generation read failed", "event_id", eventID, "err", err)
		return 0, false
	}
	return gen, true
}

func (s *statisticsService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.catalog.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ProjectEventStatistics derives the reporting view of one event from its status counts.
// Attendance is only measured once the event has started; before that it is 0.
func ProjectEventStatistics(event *domain.Event, counts map[domain.ParticipationStatus]int, now time.Time) *domain.EventStatistics {
	st := &domain.EventStatistics{
		EventID:         event.ID,
		Capacity:        event.MaxParticipants,
		RegisteredCount: counts[domain.StatusRegistered],
		ConfirmedCount:  counts[domain.StatusConfirmed],
		WaitlistedCount: counts[domain.StatusWaitlisted],
		CancelledCount:  counts[domain.StatusCancelled],
		AttendedCount:   counts[domain.StatusAttended],
		Past:            event.HasStarted(now),
	}
	st.ActiveCount = st.RegisteredCount + st.ConfirmedCount
	st.TotalCount = st.ActiveCount + st.WaitlistedCount
	st.FillRate = ratio(st.ActiveCount, st.Capacity)
	if st.Past {
		st.AttendanceRate = ratio(st.AttendedCount, st.ActiveCount+st.AttendedCount)
	}
	return st
}

func aggregateOrganizer(organizerID string, events []*domain.EventStatistics) *domain.OrganizerStatistics {
	out := &domain.OrganizerStatistics{
		OrganizerID: organizerID,
		EventCount:  len(events),
		Events:      events,
	}
	var attended, expected int
	for _, st := range events {
		out.ActiveCount += st.ActiveCount
		out.WaitlistedCount += st.WaitlistedCount
		out.CancelledCount += st.CancelledCount
		out.AttendedCount += st.AttendedCount
		if st.Past {
			attended += st.AttendedCount
			expected += st.ActiveCount + st.AttendedCount
		}
	}
	out.AttendanceRate = ratio(attended, expected)
	if out.Events == nil {
		out.Events = []*domain.EventStatistics{}
	}
	return out
}

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
