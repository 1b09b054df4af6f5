package services

import (
	"context"
	"errors"
	"fmt"

	"eventparticipation/internal/domain"
)

// WaitlistPromoter moves the earliest waitlisted participant into a freed slot.
type WaitlistPromoter struct{}

// PromoteNext promotes the WAITLISTED participation of eventID with the smallest
// RegisteredAt to REGISTERED. It must run under the event's lock. It returns
// (nil, nil) when the waitlist is empty.
func (WaitlistPromoter) PromoteNext(ctx context.Context, tx domain.ParticipationTx, eventID string) (*domain.Participation, error) {
	next, err := tx.NextWaitlisted(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("next waitlisted: %w", err)
	}
	next.Status = domain.StatusRegistered
	if err := tx.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("promote participation: %w", err)
	}
	return next, nil
}
