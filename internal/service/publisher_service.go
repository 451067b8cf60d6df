package service

import (
	"context"
	"encoding/json"
	"fmt"

	"research-agent-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	PublishExchange(ctx context.Context, msg dto.ExchangeCompletedMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) PublishExchange(ctx context.Context, msg dto.ExchangeCompletedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.Metadata.Set("session_id", msg.SessionId)
	m.Metadata.Set("trace_id", msg.TraceId)

	if err := ps.publisher.Publish(ps.topicName, m); err != nil {
		return fmt.Errorf("publish exchange: %w", err)
	}
	return nil
}
