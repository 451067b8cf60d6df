package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"research-agent-be/pkg/embedding"
	"research-agent-be/pkg/vectorstore"
)

const (
	// RecordType tags conversation memories inside a store shared with document chunks.
	RecordType = "conversation_memory"

	maxStoredRunes = 1000

	metaSessionID = "session_id"
	metaUser      = "user_message"
	metaAssistant = "assistant_message"
	metaTimestamp = "timestamp"
	metaType      = "type"
)

// Recollection is the best long-term match for a query.
type Recollection struct {
	ID        string  `json:"id"`
	Pair      Pair    `json:"pair"`
	Score     float64 `json:"score"`
	Timestamp int64   `json:"timestamp"`
}

type LongTermStats struct {
	SessionID     string `json:"sessionId"`
	TotalMemories int    `json:"totalMemories"`
}

// LongTerm archives exchanges into a vector store. Sessions share one index
// and are kept apart by the metadata filter alone.
type LongTerm struct {
	store        vectorstore.Store
	embedder     embedding.EmbeddingProvider
	embedTimeout time.Duration
	now          func() time.Time

	mu     sync.Mutex
	lastMs map[string]int64
}

type LongTermOption func(*LongTerm)

// WithEmbedTimeout bounds each embedding call made while archiving or recalling.
func WithEmbedTimeout(d time.Duration) LongTermOption {
	return func(l *LongTerm) {
		l.embedTimeout = d
	}
}

func NewLongTerm(store vectorstore.Store, embedder embedding.EmbeddingProvider, opts ...LongTermOption) *LongTerm {
	l := &LongTerm{
		store:    store,
		embedder: embedder,
		now:      time.Now,
		lastMs:   make(map[string]int64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LongTerm) embed(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if l.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.embedTimeout)
		defer cancel()
	}
	return l.embedder.Generate(ctx, text, taskType)
}

func conversationText(pair Pair) string {
	return fmt.Sprintf("User: %s Assistant: %s", pair.User.Content, pair.Assistant.Content)
}

// EmbedConversation produces one vector for the whole exchange.
func (l *LongTerm) EmbedConversation(ctx context.Context, pair Pair) ([]float32, error) {
	resp, err := l.embed(ctx, conversationText(pair), embedding.TaskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("embed conversation: %w", err)
	}
	if resp == nil || len(resp.Embedding.Values) == 0 {
		return nil, vectorstore.ErrEmptyVector
	}
	return resp.Embedding.Values, nil
}

// nextID returns "<session>_<unixMillis>", bumping the millisecond so ids
// within a session never repeat.
func (l *LongTerm) nextID(sessionID string, at time.Time) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ms := at.UnixMilli()
	if last, ok := l.lastMs[sessionID]; ok && ms <= last {
		ms = last + 1
	}
	l.lastMs[sessionID] = ms
	return fmt.Sprintf("%s_%d", sessionID, ms)
}

func (l *LongTerm) Add(ctx context.Context, sessionID string, pair Pair, vector []float32) (string, error) {
	at := l.now()
	id := l.nextID(sessionID, at)

	record := vectorstore.Record{
		ID:     id,
		Vector: vector,
		Metadata: map[string]any{
			metaSessionID: sessionID,
			metaUser:      truncateRunes(pair.User.Content, maxStoredRunes),
			metaAssistant: truncateRunes(pair.Assistant.Content, maxStoredRunes),
			metaTimestamp: at.Unix(),
			metaType:      RecordType,
		},
	}
	if err := l.store.Upsert(ctx, record); err != nil {
		return "", fmt.Errorf("store memory %s: %w", id, err)
	}
	return id, nil
}

// Retrieve returns the closest archived exchange of the session, or nil.
func (l *LongTerm) Retrieve(ctx context.Context, sessionID, query string, k int) (*Recollection, error) {
	if k <= 0 {
		k = 1
	}
	resp, err := l.embed(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if resp == nil || len(resp.Embedding.Values) == 0 {
		return nil, vectorstore.ErrEmptyVector
	}

	matches, err := l.store.Query(ctx, resp.Embedding.Values, sessionFilter(sessionID), k)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	best := matches[0]
	ts, _ := strconv.ParseInt(vectorstore.MetaString(best.Metadata[metaTimestamp]), 10, 64)
	return &Recollection{
		ID: best.ID,
		Pair: Pair{
			User:      Message{Role: RoleUser, Content: vectorstore.MetaString(best.Metadata[metaUser])},
			Assistant: Message{Role: RoleAssistant, Content: vectorstore.MetaString(best.Metadata[metaAssistant])},
		},
		Score:     best.Score,
		Timestamp: ts,
	}, nil
}

func (l *LongTerm) Stats(ctx context.Context, sessionID string) (LongTermStats, error) {
	n, err := l.store.Count(ctx, sessionFilter(sessionID))
	if err != nil {
		return LongTermStats{}, fmt.Errorf("count memories: %w", err)
	}
	return LongTermStats{SessionID: sessionID, TotalMemories: n}, nil
}

func (l *LongTerm) Clear(ctx context.Context, sessionID string) (int, error) {
	n, err := l.store.Delete(ctx, sessionFilter(sessionID))
	if err != nil {
		return 0, fmt.Errorf("clear memories: %w", err)
	}

	l.mu.Lock()
	delete(l.lastMs, sessionID)
	l.mu.Unlock()
	return n, nil
}

func sessionFilter(sessionID string) vectorstore.Filter {
	return vectorstore.Filter{metaSessionID: sessionID, metaType: RecordType}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
