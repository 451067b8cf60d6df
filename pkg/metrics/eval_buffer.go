package metrics

import "sync"

const DefaultEvalCapacity = 50

// EvalEntry summarises one completed chat run.
type EvalEntry struct {
	SessionID string `json:"sessionId"`
	LatencyMs int64  `json:"latencyMs"`
	Searches  int    `json:"searches"`
	RAGHits   int    `json:"ragHits"`
}

// EvalBuffer is a fixed size ring of the most recent runs.
type EvalBuffer struct {
	mu      sync.Mutex
	entries []EvalEntry
	next    int
	size    int
}

func NewEvalBuffer(capacity int) *EvalBuffer {
	if capacity <= 0 {
		capacity = DefaultEvalCapacity
	}
	return &EvalBuffer{entries: make([]EvalEntry, capacity)}
}

func (b *EvalBuffer) Add(e EvalEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.size < len(b.entries) {
		b.size++
	}
}

// Recent returns a copy, newest first.
func (b *EvalBuffer) Recent() []EvalEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]EvalEntry, 0, b.size)
	for i := 1; i <= b.size; i++ {
		idx := (b.next - i + len(b.entries)) % len(b.entries)
		out = append(out, b.entries[idx])
	}
	return out
}

func (b *EvalBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}
