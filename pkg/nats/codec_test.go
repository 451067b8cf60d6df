package nats

import (
	"encoding/json"
	"testing"
	"time"

	"research-agent-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "agent.run_completed", Subject(events.TypeRunCompleted))
	assert.Equal(t, "agent.custom", Subject("custom"))
}

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	src := events.RunCompleted{SessionID: "s1", Searches: 2, At: at}
	raw, err := json.Marshal(envelope{Type: src.EventType(), OccurredAt: src.Timestamp(), Data: src.Payload()})
	require.NoError(t, err)

	got, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, events.TypeRunCompleted, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "s1", got.Payload()["session_id"])
	assert.Equal(t, float64(2), got.Payload()["searches"])

	_, err = DecodeEvent([]byte("{"))
	assert.Error(t, err)
}
