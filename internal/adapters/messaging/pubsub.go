// Package messaging wires the watermill message bus used for catalog events and
// notification fan-out.
package messaging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Topics consumed and produced by this service.
const (
	TopicEventCancelled      = "catalog.event_cancelled"
	TopicNotificationCreated = "notifications.created"
)

// Backend names accepted by Config.Backend.
const (
	BackendGoChannel = "gochannel"
	BackendRedis     = "redis"
)

// Config selects the message bus backend.
type Config struct {
	Backend       string
	ConsumerGroup string
	MaxRetries    int
}

// Bus bundles a publisher and subscriber sharing one backend.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Logger     watermill.LoggerAdapter
	retries    int
}

// NewBus builds the bus. The redis backend requires client; gochannel keeps
// messages in process and is used for local runs and tests.
func NewBus(cfg Config, client redis.UniversalClient, logger *slog.Logger) (*Bus, error) {
	wlog := watermill.NewSlogLogger(logger)
	bus := &Bus{Logger: wlog, retries: cfg.MaxRetries}

	switch cfg.Backend {
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis bus: client is required")
		}
		pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, wlog)
		if err != nil {
			return nil, fmt.Errorf("create redis publisher: %w", err)
		}
		group := cfg.ConsumerGroup
		if group == "" {
			group = "eventparticipation"
		}
		sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: group,
		}, wlog)
		if err != nil {
			_ = pub.Close()
			return nil, fmt.Errorf("create redis subscriber: %w", err)
		}
		bus.Publisher, bus.Subscriber = pub, sub
	case BackendGoChannel, "":
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wlog)
		bus.Publisher, bus.Subscriber = ch, ch
	default:
		return nil, fmt.Errorf("unknown message bus backend %q", cfg.Backend)
	}
	return bus, nil
}

// NewRouter returns a router with panic recovery and, when configured, retries.
func (b *Bus) NewRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, b.Logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	if b.retries > 0 {
		retry := middleware.Retry{
			MaxRetries:      b.retries,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			Logger:          b.Logger,
		}
		router.AddMiddleware(retry.Middleware)
	}
	return router, nil
}

// Close closes the publisher and subscriber.
func (b *Bus) Close() error {
	if err := b.Publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	// gochannel serves both roles through one value.
	if any(b.Subscriber) == any(b.Publisher) {
		return nil
	}
	if err := b.Subscriber.Close(); err != nil {
		return fmt.Errorf("close subscriber: %w", err)
	}
	return nil
}
