package memory

import (
	"context"
	"sync"

	"eventparticipation/internal/domain"
)

type claimKey struct {
	userID  string
	eventID string
	kind    domain.NotificationType
}

// NotificationLedger remembers issued notifications for the life of the process.
type NotificationLedger struct {
	mu      sync.Mutex
	claimed map[claimKey]struct{}
}

func NewNotificationLedger() *NotificationLedger {
	return &NotificationLedger{claimed: make(map[claimKey]struct{})}
}

func (l *NotificationLedger) Claim(_ context.Context, userID, eventID string, t domain.NotificationType) (bool, error) {
	k := claimKey{userID: userID, eventID: eventID, kind: t}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.claimed[k]; ok {
		return false, nil
	}
	l.claimed[k] = struct{}{}
	return true, nil
}
