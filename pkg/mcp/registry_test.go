package mcp

import (
	"context"
	"errors"
	"testing"

	"research-agent-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	tools    []RemoteTool
	result   string
	callErr  error
	gotName  *string
	gotArgs  *map[string]any
	listings *int
}

func (f *fakeSession) ListTools(context.Context) ([]RemoteTool, error) {
	if f.listings != nil {
		*f.listings++
	}
	return f.tools, nil
}

func (f *fakeSession) CallTool(_ context.Context, name string, args map[string]any) (string, error) {
	if f.gotName != nil {
		*f.gotName = name
	}
	if f.gotArgs != nil {
		*f.gotArgs = args
	}
	return f.result, f.callErr
}

func (f *fakeSession) Close() error { return nil }

type countingObserver struct{ calls map[string]int }

func (c *countingObserver) ObserveToolCall(p string) { c.calls[p]++ }

func testProviders() []Provider {
	return []Provider{
		{Name: "weather", URL: "http://weather.test/mcp", Enabled: false},
		{Name: "langfuse", URL: "http://langfuse.test/mcp", Enabled: true},
	}
}

func TestRegistry_CallToolErrors(t *testing.T) {
	dialed := false
	r := NewRegistry(testProviders(), logger.NewNopLogger(), WithDialer(func(context.Context, Provider) (Session, error) {
		dialed = true
		return nil, errors.New("should not dial")
	}))

	tests := []struct {
		name string
		tool string
		want string
	}{
		{"no separator", "forecast", "Error: Invalid tool name format: forecast"},
		{"empty tool", "weather_", "Error: Invalid tool name format: weather_"},
		{"unknown provider", "github_search", "Error: Unknown server: github"},
		{"disabled provider", "weather_getForecast", "Error: Server weather is not configured (missing credentials)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CallTool(context.Background(), tt.tool, nil))
		})
	}
	assert.False(t, dialed)
}

func TestRegistry_CallToolDispatches(t *testing.T) {
	var gotName string
	var gotArgs map[string]any
	obs := &countingObserver{calls: map[string]int{}}
	r := NewRegistry(testProviders(), logger.NewNopLogger(),
		WithCallObserver(obs),
		WithDialer(func(_ context.Context, p Provider) (Session, error) {
			assert.Equal(t, "langfuse", p.Name)
			return &fakeSession{result: "3 traces", gotName: &gotName, gotArgs: &gotArgs}, nil
		}))

	out := r.CallTool(context.Background(), "langfuse_list_traces", map[string]any{"limit": 3})
	assert.Equal(t, "3 traces", out)
	assert.Equal(t, "list_traces", gotName)
	assert.Equal(t, 3, gotArgs["limit"])
	assert.Equal(t, 1, obs.calls["langfuse"])
}

func TestRegistry_CallToolTransportError(t *testing.T) {
	r := NewRegistry(testProviders(), logger.NewNopLogger(), WithDialer(func(context.Context, Provider) (Session, error) {
		return nil, errors.New("connection refused")
	}))

	out := r.CallTool(context.Background(), "langfuse_list_traces", nil)
	assert.Equal(t, "Error executing tool langfuse_list_traces: connection refused", out)
}

func TestRegistry_ListToolsNamespacesAndCaches(t *testing.T) {
	listings := 0
	r := NewRegistry(testProviders(), logger.NewNopLogger(), WithDialer(func(context.Context, Provider) (Session, error) {
		return &fakeSession{
			listings: &listings,
			tools: []RemoteTool{
				{Name: "list_traces", Description: "List recent traces"},
				{Name: "get_trace", Description: "Fetch one trace"},
			},
		}, nil
	}))

	tools := r.ListTools(context.Background())
	require.Len(t, tools, 2)
	assert.Equal(t, "langfuse_get_trace", tools[0].Name)
	assert.Equal(t, "[LANGFUSE] Fetch one trace", tools[0].Description)
	assert.Equal(t, "get_trace", tools[0].OriginalName)

	_ = r.ListTools(context.Background())
	assert.Equal(t, 1, listings)

	status := r.Providers()
	require.Len(t, status, 2)
	assert.Equal(t, "weather", status[0].Name)
	assert.False(t, status[0].Enabled)
}

func TestSplitToolName(t *testing.T) {
	p, tool, ok := SplitToolName("weather_get_forecast")
	require.True(t, ok)
	assert.Equal(t, "weather", p)
	assert.Equal(t, "get_forecast", tool)

	_, _, ok = SplitToolName("_x")
	assert.False(t, ok)
}
