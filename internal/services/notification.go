package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"eventparticipation/internal/domain"
	"eventparticipation/internal/metrics"
)

const deliveryTimeout = 10 * time.Second

type queuedNotification struct {
	ctx context.Context
	n   domain.Notification
}

// NotificationDispatcher is an asynchronous domain.Notifier. Notify enqueues and
// returns immediately; workers render the message and hand it to the sink.
// Delivery failures are logged and counted, never returned.
type NotificationDispatcher struct {
	sink       domain.NotificationSink
	translator domain.MessageTranslator
	locale     string
	recorder   metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan queuedNotification
	wg     sync.WaitGroup
}

// NewNotificationDispatcher starts workers goroutines draining a queue of queueSize.
func NewNotificationDispatcher(
	sink domain.NotificationSink,
	translator domain.MessageTranslator,
	locale string,
	queueSize, workers int,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *NotificationDispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	if recorder == nil {
		recorder = metrics.NoOp{}
	}
	d := &NotificationDispatcher{
		sink:       sink,
		translator: translator,
		locale:     locale,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
		queue:      make(chan queuedNotification, queueSize),
	}
	d.wg.Add(workers)
	for range workers {
		go d.run()
	}
	return d
}

// Notify implements domain.Notifier.
func (d *NotificationDispatcher) Notify(ctx context.Context, n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ctx, n, "dispatcher closed")
		return
	}
	// Delivery outlives the request, so only the context values are kept.
	item := queuedNotification{ctx: context.WithoutCancel(ctx), n: n}
	select {
	case d.queue <- item:
	default:
		d.drop(ctx, n, "queue full")
	}
}

// Close stops accepting notifications and waits for queued ones to be delivered
// or for ctx to expire.
func (d *NotificationDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *NotificationDispatcher) run() {
	defer d.wg.Done()
	for item := range d.queue {
		d.deliver(item.ctx, item.n)
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, n domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now().UTC()
	}
	if n.Message == "" && d.translator != nil {
		n.Message = d.translator.T(d.locale, "notification."+string(n.Type), map[string]any{
			"EventName": n.EventName,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	if err := d.sink.Deliver(ctx, n); err != nil {
		d.recorder.NotificationHandled(n.Type, metrics.ResultFailed)
		d.logger.WarnContext(ctx, "notification delivery failed",
			"user_id", n.UserID, "event_id", n.EventID, "type", n.Type, "err", err)
		return
	}
	d.recorder.NotificationHandled(n.Type, metrics.ResultDelivered)
}

func (d *NotificationDispatcher) drop(ctx context.Context, n domain.Notification, reason string) {
	d.recorder.NotificationHandled(n.Type, metrics.ResultDropped)
	d.logger.WarnContext(ctx, "notification dropped",
		"user_id", n.UserID, "event_id", n.EventID, "type", n.Type, "reason", reason)
}

// MultiSink delivers to every sink and joins their errors.
type MultiSink []domain.NotificationSink

// Deliver implements domain.NotificationSink.
func (m MultiSink) Deliver(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
