package events

import "time"

const (
	TypeRunCompleted   = "agent.run_completed"
	TypeMemoryArchived = "agent.memory_archived"
)

// Event is anything published on the event bus.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// RunCompleted summarises one chat run for downstream evaluation.
type RunCompleted struct {
	TraceID   string
	SessionID string
	LatencyMs int64
	Searches  int
	RAGHits   int
	ToolCalls int
	Hops      int
	Forced    bool
	At        time.Time
}

func (e RunCompleted) EventType() string { return TypeRunCompleted }

func (e RunCompleted) Timestamp() time.Time { return e.At }

func (e RunCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"trace_id":   e.TraceID,
		"session_id": e.SessionID,
		"latency_ms": e.LatencyMs,
		"searches":   e.Searches,
		"rag_hits":   e.RAGHits,
		"tool_calls": e.ToolCalls,
		"hops":       e.Hops,
		"forced":     e.Forced,
		"at":         e.At.UTC().Format(time.RFC3339Nano),
	}
}

type MemoryArchived struct {
	SessionID string
	RecordIDs []string
	At        time.Time
}

func (e MemoryArchived) EventType() string { return TypeMemoryArchived }

func (e MemoryArchived) Timestamp() time.Time { return e.At }

func (e MemoryArchived) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id": e.SessionID,
		"record_ids": e.RecordIDs,
		"at":         e.At.UTC().Format(time.RFC3339Nano),
	}
}
