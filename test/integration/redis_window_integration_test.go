package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"research-agent-be/internal/repository/cache"
	agentmemory "research-agent-be/pkg/memory"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisWindowRepository(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}

	opt, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	repo := cache.NewRedisWindowRepository(rdb, time.Minute)
	session := fmt.Sprintf("it_%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = repo.Delete(context.Background(), session) })

	empty, err := repo.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, empty)

	window := []agentmemory.Message{
		{Role: agentmemory.RoleUser, Content: "hi"},
		{Role: agentmemory.RoleAssistant, Content: "hello"},
	}
	require.NoError(t, repo.Save(ctx, session, window))

	got, err := repo.Load(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, window, got)
	assert.Equal(t, "redis", repo.Name())

	require.NoError(t, repo.Delete(ctx, session))
	got, err = repo.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, got)
}
