package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventparticipation/internal/domain"
)

func TestNotificationLedger_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	l := NewNotificationLedger()

	ok, err := l.Claim(ctx, "u1", "e1", domain.NotificationEventCancelled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Claim(ctx, "u1", "e1", domain.NotificationEventCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = l.Claim(ctx, "u1", "e1", domain.NotificationWaitlistPromoted)
	assert.True(t, ok, "different type is a separate claim")
	ok, _ = l.Claim(ctx, "u2", "e1", domain.NotificationEventCancelled)
	assert.True(t, ok, "different user is a separate claim")
}

func TestNotificationLedger_ConcurrentClaims(t *testing.T) {
	l := NewNotificationLedger()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Claim(context.Background(), "u1", "e1", domain.NotificationEventCancelled); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
