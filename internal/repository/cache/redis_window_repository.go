package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	agentmemory "research-agent-be/pkg/memory"

	"github.com/redis/go-redis/v9"
)

const windowKeyPrefix = "research-agent:window:"

// RedisWindowRepository stores each window as one JSON value so several API
// replicas share the same short-term memory.
type RedisWindowRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisWindowRepository(rdb *redis.Client, ttl time.Duration) *RedisWindowRepository {
	return &RedisWindowRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisWindowRepository) Name() string { return "redis" }

func windowKey(sessionID string) string {
	return windowKeyPrefix + sessionID
}

func (r *RedisWindowRepository) Load(ctx context.Context, sessionID string) ([]agentmemory.Message, error) {
	raw, err := r.rdb.Get(ctx, windowKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []agentmemory.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get window: %w", err)
	}

	var window []agentmemory.Message
	if err := json.Unmarshal(raw, &window); err != nil {
		return nil, fmt.Errorf("decode window: %w", err)
	}
	return window, nil
}

func (r *RedisWindowRepository) Save(ctx context.Context, sessionID string, window []agentmemory.Message) error {
	raw, err := json.Marshal(window)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}
	if err := r.rdb.Set(ctx, windowKey(sessionID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set window: %w", err)
	}
	return nil
}

func (r *RedisWindowRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, windowKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del window: %w", err)
	}
	return nil
}
