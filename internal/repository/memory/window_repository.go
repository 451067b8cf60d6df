package memory

import (
	"context"
	"time"

	agentmemory "research-agent-be/pkg/memory"

	"github.com/patrickmn/go-cache"
)

// WindowRepository keeps short-term windows in process memory.
type WindowRepository struct {
	cache *cache.Cache
}

func NewWindowRepository(ttl time.Duration) *WindowRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &WindowRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *WindowRepository) Name() string { return "memory" }

func (r *WindowRepository) Load(_ context.Context, sessionID string) ([]agentmemory.Message, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return []agentmemory.Message{}, nil
	}
	stored := x.([]agentmemory.Message)
	window := make([]agentmemory.Message, len(stored))
	copy(window, stored)
	return window, nil
}

func (r *WindowRepository) Save(_ context.Context, sessionID string, window []agentmemory.Message) error {
	stored := make([]agentmemory.Message, len(window))
	copy(stored, window)
	r.cache.Set(sessionID, stored, cache.DefaultExpiration)
	return nil
}

func (r *WindowRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
