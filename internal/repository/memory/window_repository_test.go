package memory

import (
	"context"
	"testing"
	"time"

	agentmemory "research-agent-be/pkg/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWindowRepository(time.Minute)

	empty, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	window := []agentmemory.Message{
		{Role: agentmemory.RoleUser, Content: "hi"},
		{Role: agentmemory.RoleAssistant, Content: "hello"},
	}
	require.NoError(t, repo.Save(ctx, "s1", window))

	// callers mutating their slice must not leak into the stored window
	window[0].Content = "changed"

	got, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hi", got[0].Content)

	other, err := repo.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, repo.Delete(ctx, "s1"))
	got, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "memory", repo.Name())
}
