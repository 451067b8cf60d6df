package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"research-agent-be/internal/dto"
	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerService_RecordsPublishedExchanges(t *testing.T) {
	tests := []struct {
		name       string
		ids        []string
		recordErr  error
		wantEvents int
	}{
		{"nothing archived", nil, nil, 0},
		{"archived pair", []string{"s_1700000000000"}, nil, 1},
		{"partial archival before failure", []string{"s_1700000000000"}, errors.New("embed down"), 1},
		{"failure before archival", nil, errors.New("window store down"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
			defer pubSub.Close()

			mem := &fakeMemory{ids: tt.ids, err: tt.recordErr}
			bus := &fakeEvents{}
			consumer := NewConsumerService(pubSub, "EXCHANGE_COMPLETED", mem, bus, logger.NewNopLogger())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- consumer.Consume(ctx) }()

			publisher := NewPublisherService("EXCHANGE_COMPLETED", pubSub)
			require.NoError(t, publisher.PublishExchange(ctx, dto.ExchangeCompletedMessage{
				TraceId:          "trace",
				SessionId:        "s",
				UserMessage:      "q",
				AssistantMessage: "a",
			}))

			assert.Eventually(t, func() bool { return len(mem.records()) == 1 }, time.Second, 10*time.Millisecond)
			assert.Eventually(t, func() bool { return len(bus.published()) == tt.wantEvents }, time.Second, 10*time.Millisecond)

			if tt.wantEvents > 0 {
				archived, ok := bus.published()[0].(events.MemoryArchived)
				require.True(t, ok)
				assert.Equal(t, "s", archived.SessionID)
				assert.Equal(t, tt.ids, archived.RecordIDs)
			}

			cancel()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("consumer did not stop")
			}
		})
	}
}
