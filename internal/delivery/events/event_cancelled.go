// Package events consumes catalog events from the message bus.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"eventparticipation/internal/domain"
)

// EventCancelledMessage is the payload of catalog.event_cancelled.
type EventCancelledMessage struct {
	EventID     string    `json:"event_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// EventCancelledHandler fans an event cancellation out to its participants.
type EventCancelledHandler struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

// Register subscribes the handler to topic on router.
func (h *EventCancelledHandler) Register(router *message.Router, subscriber message.Subscriber, topic string) {
	router.AddNoPublisherHandler("participation.event_cancelled", topic, subscriber, h.Handle)
}

// Handle processes one message. Malformed payloads are acked and logged;
// service failures are returned so the router retries and nacks.
func (h *EventCancelledHandler) Handle(msg *message.Message) error {
	ctx := msg.Context()

	var payload EventCancelledMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.Logger.ErrorContext(ctx, "dropping malformed event_cancelled message", "message_id", msg.UUID, "err", err)
		return nil
	}
	eventID := strings.TrimSpace(payload.EventID)
	if eventID == "" {
		h.Logger.ErrorContext(ctx, "dropping event_cancelled message without event_id", "message_id", msg.UUID)
		return nil
	}

	notified, err := h.Service.HandleEventCancelled(ctx, eventID)
	if err != nil {
		return fmt.Errorf("handle event cancelled %s: %w", eventID, err)
	}
	h.Logger.InfoContext(ctx, "event cancellation processed",
		"event_id", eventID, "notified", notified, "message_id", msg.UUID)
	return nil
}
