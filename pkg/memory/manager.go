package memory

import (
	"context"
	"fmt"
	"sync"

	"research-agent-be/internal/pkg/logger"
)

// Archiver is notified for every exchange moved into long-term storage.
type Archiver interface {
	ObserveArchived(sessionID string)
}

type Stats struct {
	SessionID     string `json:"sessionId"`
	TotalMemories int    `json:"totalMemories"`
	WindowSize    int    `json:"windowSize"`
	Backend       string `json:"backend"`
}

// Manager combines the short-term window with the long-term store.
// Writes to one session are serialised; different sessions proceed in parallel.
type Manager struct {
	window   WindowStore
	longTerm *LongTerm
	capacity int
	recallK  int
	archiver Archiver
	logger   logger.ILogger

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// sessionLock is shared by the writers of one session. It is dropped from
// the map when the last holder releases it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type ManagerOption func(*Manager)

func WithCapacity(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.capacity = n
		}
	}
}

func WithRecallK(k int) ManagerOption {
	return func(m *Manager) {
		if k > 0 {
			m.recallK = k
		}
	}
}

func WithArchiver(a Archiver) ManagerOption {
	return func(m *Manager) { m.archiver = a }
}

func NewManager(window WindowStore, longTerm *LongTerm, log logger.ILogger, opts ...ManagerOption) *Manager {
	m := &Manager{
		window:   window,
		longTerm: longTerm,
		capacity: DefaultWindowSize,
		recallK:  1,
		logger:   log,
		locks:    make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Capacity() int { return m.capacity }

func (m *Manager) lock(sessionID string) func() {
	m.locksMu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.locksMu.Unlock()
	}
}

func (m *Manager) Window(ctx context.Context, sessionID string) ([]Message, error) {
	return m.window.Load(ctx, sessionID)
}

// Record appends one exchange to the window and archives any overflow.
// It returns the ids of the long-term records written.
func (m *Manager) Record(ctx context.Context, sessionID, userMessage, assistantMessage string) ([]string, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	window, err := m.window.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load window: %w", err)
	}
	window = append(window,
		Message{Role: RoleUser, Content: userMessage},
		Message{Role: RoleAssistant, Content: assistantMessage},
	)
	if err := m.window.Save(ctx, sessionID, window); err != nil {
		return nil, fmt.Errorf("save window: %w", err)
	}
	return m.archiveLocked(ctx, sessionID)
}

// Archive runs one archival pass over the session window.
func (m *Manager) Archive(ctx context.Context, sessionID string) ([]string, error) {
	unlock := m.lock(sessionID)
	defer unlock()
	return m.archiveLocked(ctx, sessionID)
}

// archiveLocked moves the oldest pair out while the window is over capacity.
// The window is saved after each pair so a failure never drops an exchange
// that was not stored.
func (m *Manager) archiveLocked(ctx context.Context, sessionID string) ([]string, error) {
	window, err := m.window.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load window: %w", err)
	}

	var ids []string
	for ShouldArchive(window, m.capacity) {
		pair, remaining := ExtractOldestPair(window)
		if pair == nil {
			break
		}

		vector, err := m.longTerm.EmbedConversation(ctx, *pair)
		if err != nil {
			return ids, err
		}
		id, err := m.longTerm.Add(ctx, sessionID, *pair, vector)
		if err != nil {
			return ids, err
		}
		if err := m.window.Save(ctx, sessionID, remaining); err != nil {
			return ids, fmt.Errorf("save window: %w", err)
		}

		ids = append(ids, id)
		window = remaining
		if m.archiver != nil {
			m.archiver.ObserveArchived(sessionID)
		}
		m.logger.Debug("MemoryManager", "Archived exchange", map[string]interface{}{
			"session_id": sessionID,
			"record_id":  id,
			"remaining":  len(remaining),
		})
	}
	return ids, nil
}

// Recall finds the best archived exchange for the query. A store failure is
// logged and treated as no match.
func (m *Manager) Recall(ctx context.Context, sessionID, query string) *Recollection {
	rec, err := m.longTerm.Retrieve(ctx, sessionID, query, m.recallK)
	if err != nil {
		m.logger.Warn("MemoryManager", "Recall failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil
	}
	return rec
}

func (m *Manager) Stats(ctx context.Context, sessionID string) (Stats, error) {
	lt, err := m.longTerm.Stats(ctx, sessionID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		SessionID:     sessionID,
		TotalMemories: lt.TotalMemories,
		WindowSize:    m.capacity,
		Backend:       m.window.Name(),
	}, nil
}

// Clear drops the window and every archived exchange of the session.
func (m *Manager) Clear(ctx context.Context, sessionID string) (int, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	if err := m.window.Delete(ctx, sessionID); err != nil {
		return 0, fmt.Errorf("delete window: %w", err)
	}
	return m.longTerm.Clear(ctx, sessionID)
}
