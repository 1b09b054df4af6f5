package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventparticipation/internal/domain"
	"eventparticipation/internal/metrics"
)

type participationService struct {
	catalog        domain.EventCatalog
	repo           domain.ParticipationRepository
	notifier       domain.Notifier
	ledger         domain.NotificationLedger
	statsCache     domain.StatisticsCache
	promoter       WaitlistPromoter
	recorder       metrics.Recorder
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewParticipationService creates the participation lifecycle engine. ledger and
// statsCache may be nil; without a ledger a redelivered cancellation notifies again.
func NewParticipationService(
	catalog domain.EventCatalog,
	repo domain.ParticipationRepository,
	notifier domain.Notifier,
	ledger domain.NotificationLedger,
	statsCache domain.StatisticsCache,
	recorder metrics.Recorder,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ParticipationService {
	if recorder == nil {
		recorder = metrics.NoOp{}
	}
	return &participationService{
		catalog:        catalog,
		repo:           repo,
		notifier:       notifier,
		ledger:         ledger,
		statsCache:     statsCache,
		recorder:       recorder,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *participationService) JoinEvent(ctx context.Context, userID, eventID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	defer s.observe("join", time.Now())

	userID, eventID = strings.TrimSpace(userID), strings.TrimSpace(eventID)
	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("%w: user and event are required", domain.ErrInvalidInput)
	}

	var joined *domain.Participation
	err := s.repo.WithinEventLock(ctx, eventID, func(ctx context.Context, tx domain.ParticipationTx) error {
		// Capacity is read under the lock so the decision uses the value in effect at write time.
		event, err := s.getEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.Joinable() {
			return domain.ErrEventNotJoinable
		}

		existing, err := tx.GetByEventAndUser(ctx, eventID, userID)
		switch {
		case err == nil:
			if existing.Status != domain.StatusCancelled {
				return domain.ErrAlreadyRegistered
			}
		case errors.Is(err, domain.ErrNotFound):
			// first join
		default:
			return fmt.Errorf("get participation: %w", err)
		}

		active, err := tx.CountActive(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count active participants: %w", err)
		}
		status := DecideAdmission(active, event.MaxParticipants)
		now := s.now().UTC()

		if existing != nil {
			existing.Status = status
			existing.RegisteredAt = now
			if err := tx.Update(ctx, existing); err != nil {
				return fmt.Errorf("reinstate participation: %w", err)
			}
			joined = existing
			return nil
		}

		p := domain.NewParticipation(userID, eventID, status, now)
		if err := tx.Create(ctx, p); err != nil {
			if errors.Is(err, domain.ErrAlreadyRegistered) {
				return err
			}
			return fmt.Errorf("create participation: %w", err)
		}
		joined = p
		return nil
	})
	if err != nil {
		s.recorder.JoinCompleted(joinOutcome("", err))
		return nil, err
	}

	s.recorder.JoinCompleted(joinOutcome(joined.Status, nil))
	s.invalidateStats(ctx, eventID)
	s.logger.InfoContext(ctx, "participation joined",
		"event_id", eventID, "user_id", userID, "status", joined.Status)
	return joined, nil
}

func (s *participationService) LeaveEvent(ctx context.Context, userID, eventID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	defer s.observe("leave", time.Now())

	userID, eventID = strings.TrimSpace(userID), strings.TrimSpace(eventID)
	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("%w: user and event are required", domain.ErrInvalidInput)
	}

	var (
		event    *domain.Event
		left     *domain.Participation
		promoted *domain.Participation
	)
	err := s.repo.WithinEventLock(ctx, eventID, func(ctx context.Context, tx domain.ParticipationTx) error {
		var err error
		event, err = s.getEvent(ctx, eventID)
		if err != nil {
			return err
		}

		existing, err := tx.GetByEventAndUser(ctx, eventID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotRegistered
			}
			return fmt.Errorf("get participation: %w", err)
		}
		if existing.Status == domain.StatusCancelled {
			return domain.ErrAlreadyCancelled
		}
		if !existing.Status.Leavable() {
			return fmt.Errorf("%w: %s participation cannot be cancelled", domain.ErrInvalidInput, existing.Status)
		}

		existing.Status = domain.StatusCancelled
		if err := tx.Update(ctx, existing); err != nil {
			return fmt.Errorf("cancel participation: %w", err)
		}
		left = existing

		// Closed events keep their waitlist frozen.
		if !event.Joinable() {
			return nil
		}
		active, err := tx.CountActive(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count active participants: %w", err)
		}
		if active >= event.MaxParticipants {
			return nil
		}
		promoted, err = s.promoter.PromoteNext(ctx, tx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recorder.LeaveCompleted(promoted != nil)
	s.invalidateStats(ctx, eventID)
	s.logger.InfoContext(ctx, "participation cancelled", "event_id", eventID, "user_id", userID)

	if promoted != nil {
		s.logger.InfoContext(ctx, "waitlist promoted", "event_id", eventID, "user_id", promoted.UserID)
		s.notifier.Notify(ctx, domain.Notification{
			UserID:    promoted.UserID,
			EventID:   eventID,
			EventName: event.Name,
			Type:      domain.NotificationWaitlistPromoted,
		})
	}
	return left, nil
}

func (s *participationService) GetParticipationsForEvents(ctx context.Context, userID string, eventIDs []string) (map[string]domain.ParticipationStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	result := make(map[string]domain.ParticipationStatus, len(eventIDs))
	ids := uniqueNonEmpty(eventIDs)
	if strings.TrimSpace(userID) == "" || len(ids) == 0 {
		return result, nil
	}

	parts, err := s.repo.ListByUserAndEvents(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	for _, p := range parts {
		result[p.EventID] = p.Status
	}
	return result, nil
}

func (s *participationService) HandleEventCancelled(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var eventName string
	if event, err := s.catalog.GetByID(ctx, eventID); err == nil {
		eventName = event.Name
	} else {
		s.logger.WarnContext(ctx, "cancelled event lookup failed", "event_id", eventID, "err", err)
	}

	parts, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("list participations: %w", err)
	}

	notified := 0
	for _, p := range parts {
		if p.Status == domain.StatusCancelled {
			continue
		}
		first, err := s.claimNotification(ctx, p.UserID, eventID, domain.NotificationEventCancelled)
		if err != nil {
			return notified, err
		}
		if !first {
			continue
		}
		s.notifier.Notify(ctx, domain.Notification{
			UserID:    p.UserID,
			EventID:   eventID,
			EventName: eventName,
			Type:      domain.NotificationEventCancelled,
		})
		notified++
	}
	s.recorder.CancellationFanout(notified)
	s.invalidateStats(ctx, eventID)
	s.logger.InfoContext(ctx, "event cancellation fanned out", "event_id", eventID, "notified", notified)
	return notified, nil
}

// claimNotification reports whether this is the first notification of its kind
// for the user and event.
func (s *participationService) claimNotification(ctx context.Context, userID, eventID string, t domain.NotificationType) (bool, error) {
	if s.ledger == nil {
		return true, nil
	}
	first, err := s.ledger.Claim(ctx, userID, eventID, t)
	if err != nil {
		return false, fmt.Errorf("claim notification: %w", err)
	}
	return first, nil
}

// getEvent maps a catalog miss to ErrEventNotFound.
func (s *participationService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.catalog.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *participationService) invalidateStats(ctx context.Context, eventID string) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx, eventID); err != nil {
		s.logger.WarnContext(ctx, "statistics cache invalidation failed", "event_id", eventID, "err", err)
	}
}

func (s *participationService) observe(op string, start time.Time) {
	s.recorder.ObserveOperation(op, time.Since(start))
}

func joinOutcome(status domain.ParticipationStatus, err error) string {
	switch {
	case err == nil && status == domain.StatusWaitlisted:
		return metrics.OutcomeWaitlisted
	case err == nil:
		return metrics.OutcomeRegistered
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrEventNotJoinable),
		errors.Is(err, domain.ErrAlreadyRegistered):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
