package service

import (
	"context"
	"time"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/events"
)

const eventPublishTimeout = 3 * time.Second

// EventPublisher emits domain events to the outside world (JetStream in production).
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// publishEvent is best effort: a missing or failing bus never fails the caller.
func publishEvent(ctx context.Context, pub EventPublisher, log logger.ILogger, event events.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("EventPublisher", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
