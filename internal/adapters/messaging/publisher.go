package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"eventparticipation/internal/domain"
)

// NotificationPublisher publishes every delivered notification on
// TopicNotificationCreated so other services can react to it.
type NotificationPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewNotificationPublisher returns a NotificationSink backed by publisher.
func NewNotificationPublisher(publisher message.Publisher) *NotificationPublisher {
	return &NotificationPublisher{publisher: publisher, topic: TopicNotificationCreated}
}

// Deliver implements domain.NotificationSink.
func (p *NotificationPublisher) Deliver(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(n.Type))
	msg.Metadata.Set("event_id", n.EventID)
	msg.SetContext(ctx)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
