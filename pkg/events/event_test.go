package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunCompletedPayload(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := RunCompleted{TraceID: "t1", SessionID: "s1", LatencyMs: 420, Searches: 2, RAGHits: 3, Hops: 5, At: at}

	var ev Event = e
	assert.Equal(t, TypeRunCompleted, ev.EventType())
	assert.Equal(t, at, ev.Timestamp())

	p := ev.Payload()
	assert.Equal(t, "s1", p["session_id"])
	assert.Equal(t, int64(420), p["latency_ms"])
	assert.Equal(t, 3, p["rag_hits"])
	assert.Equal(t, false, p["forced"])
	assert.Equal(t, "2025-03-01T12:00:00Z", p["at"])
}

func TestMemoryArchivedPayload(t *testing.T) {
	e := MemoryArchived{SessionID: "s1", RecordIDs: []string{"s1_1"}, At: time.Unix(0, 0)}
	assert.Equal(t, TypeMemoryArchived, e.EventType())
	assert.Equal(t, []string{"s1_1"}, e.Payload()["record_ids"])
}
