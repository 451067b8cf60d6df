package memory

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// DefaultWindowSize holds three exchanges.
	DefaultWindowSize = 6
)

// Message is one role-tagged entry of the short-term window.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Pair is one archived exchange.
type Pair struct {
	User      Message `json:"user"`
	Assistant Message `json:"assistant"`
}

// WindowStore keeps the short-term window of each session.
// Load returns an empty window for an unknown session.
type WindowStore interface {
	Load(ctx context.Context, sessionID string) ([]Message, error)
	Save(ctx context.Context, sessionID string, window []Message) error
	Delete(ctx context.Context, sessionID string) error
	Name() string
}

func ShouldArchive(window []Message, capacity int) bool {
	return len(window) > capacity
}

// ExtractOldestPair splits off the first two entries. With fewer than two
// messages nothing is removed and the pair is nil.
func ExtractOldestPair(window []Message) (*Pair, []Message) {
	if len(window) < 2 {
		return nil, window
	}
	pair := &Pair{User: window[0], Assistant: window[1]}
	remaining := make([]Message, len(window)-2)
	copy(remaining, window[2:])
	return pair, remaining
}
