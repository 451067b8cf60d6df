package agent

import (
	"context"
	"time"

	"research-agent-be/pkg/mcp"
	"research-agent-be/pkg/rag"
)

// ToolCaller lists and invokes external tools. CallTool reports failures in
// the returned string.
type ToolCaller interface {
	ListTools(ctx context.Context) []mcp.ToolDescriptor
	CallTool(ctx context.Context, name string, args map[string]any) string
}

type DocumentRetriever interface {
	Search(ctx context.Context, vec []float32, k int) ([]rag.Document, error)
}

type noTools struct{}

func (noTools) ListTools(context.Context) []mcp.ToolDescriptor { return nil }

func (noTools) CallTool(_ context.Context, name string, _ map[string]any) string {
	provider, _, ok := mcp.SplitToolName(name)
	if !ok {
		return "Error: Invalid tool name format: " + name
	}
	return "Error: Unknown server: " + provider
}

// withCallTimeout bounds one collaborator call. A zero timeout leaves ctx as is.
func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
