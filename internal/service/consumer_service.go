package service

import (
	"context"
	"encoding/json"
	"time"

	"research-agent-be/internal/dto"
	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	// Consume blocks until ctx ends or the subscription closes.
	Consume(ctx context.Context) error
}

// ExchangeRecorder appends a finished exchange to session memory.
type ExchangeRecorder interface {
	Record(ctx context.Context, sessionID, userMessage, assistantMessage string) ([]string, error)
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	recorder   ExchangeRecorder
	events     EventPublisher
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	recorder ExchangeRecorder,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		recorder:   recorder,
		events:     eventPublisher,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	for msg := range messages {
		cs.processMessage(ctx, msg)
	}
	return nil
}

// processMessage always acks. The window is saved before archival starts, so
// redelivering a message would record the exchange twice.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.ExchangeCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal exchange", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	ids, err := cs.recorder.Record(ctx, payload.SessionId, payload.UserMessage, payload.AssistantMessage)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to record exchange", map[string]interface{}{
			"session_id": payload.SessionId,
			"trace_id":   payload.TraceId,
			"archived":   len(ids),
			"error":      err.Error(),
		})
	}
	if len(ids) == 0 {
		return
	}

	cs.logger.Info("ConsumerService", "Archived exchanges", map[string]interface{}{
		"session_id": payload.SessionId,
		"records":    ids,
	})
	publishEvent(ctx, cs.events, cs.logger, events.MemoryArchived{
		SessionID: payload.SessionId,
		RecordIDs: ids,
		At:        time.Now(),
	})
}
