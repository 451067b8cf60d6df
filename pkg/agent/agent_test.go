package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/embedding"
	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/llm"
	"research-agent-be/pkg/mcp"
	"research-agent-be/pkg/rag"
	"research-agent-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPolicy replays decisions for JSON-mode calls and a fixed answer otherwise.
type scriptedPolicy struct {
	decisions    []string
	repeatLast   bool
	decideErr    error
	answer       string
	answerErr    error
	decideCalls  int
	answerCalls  int
	lastDecision string
}

func (p *scriptedPolicy) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return p.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (p *scriptedPolicy) Generate(_ context.Context, prompt string, opts ...llm.Option) (string, error) {
	if llm.Apply(llm.Options{}, opts...).JSONMode {
		p.decideCalls++
		p.lastDecision = prompt
		if p.decideErr != nil {
			return "", p.decideErr
		}
		if len(p.decisions) == 0 {
			return `{"action":"answer"}`, nil
		}
		next := p.decisions[0]
		if len(p.decisions) > 1 || !p.repeatLast {
			p.decisions = p.decisions[1:]
		}
		return next, nil
	}
	p.answerCalls++
	return p.answer, p.answerErr
}

// stalledPolicy never answers on its own; it only returns when ctx ends.
type stalledPolicy struct {
	calls int
}

func (p *stalledPolicy) Chat(ctx context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return p.Generate(ctx, "")
}

func (p *stalledPolicy) Generate(ctx context.Context, _ string, _ ...llm.Option) (string, error) {
	p.calls++
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Second):
		return `{"action":"answer","answer":"too late"}`, nil
	}
}

type stubSearcher struct{ queries []string }

func (s *stubSearcher) Search(_ context.Context, query string, _ int) []search.Result {
	s.queries = append(s.queries, query)
	return []search.Result{{Title: "Paris", Href: "https://example.com/paris", Body: "Paris is the capital of France."}}
}

type stubEmbedder struct {
	calls int
	err   error
}

func (e *stubEmbedder) Generate(context.Context, string, string) (*embedding.EmbeddingResponse, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

type stubRetriever struct {
	docs  []rag.Document
	err   error
	calls int
}

func (r *stubRetriever) Search(context.Context, []float32, int) ([]rag.Document, error) {
	r.calls++
	return r.docs, r.err
}

type harness struct {
	policy *scriptedPolicy
	// provider replaces policy when set.
	provider    llm.LLMProvider
	callTimeout time.Duration
	searcher    *stubSearcher
	embedder    *stubEmbedder
	retriever   *stubRetriever
	tools       ToolCaller
}

func newHarness(policy *scriptedPolicy) *harness {
	return &harness{
		policy:    policy,
		searcher:  &stubSearcher{},
		embedder:  &stubEmbedder{},
		retriever: &stubRetriever{docs: []rag.Document{}},
	}
}

func (h *harness) run(t *testing.T, ctx context.Context, maxHops int) (*State, flow.Result, error) {
	t.Helper()
	var policy llm.LLMProvider = h.policy
	if h.provider != nil {
		policy = h.provider
	}
	g, err := NewResearchGraph(Deps{
		Policy:      policy,
		Embedder:    h.embedder,
		Searcher:    h.searcher,
		Retriever:   h.retriever,
		Tools:       h.tools,
		Logger:      logger.NewNopLogger(),
		CallTimeout: h.callTimeout,
	}, maxHops, nil)
	require.NoError(t, err)

	s := NewState("What is the capital of France?", "s1")
	res, err := g.Run(ctx, s)
	return s, res, err
}

func TestParseDecision(t *testing.T) {
	const q = "What is the capital of France?"
	tests := []struct {
		name string
		raw  string
		want Decision
	}{
		{"search", `{"action":"search","reason":"need facts","search_query":"france capital"}`,
			Decision{Action: ActionSearch, Reason: "need facts", SearchQuery: "france capital"}},
		{"search without query uses question", `{"action":"search","reason":"r"}`,
			Decision{Action: ActionSearch, Reason: "r", SearchQuery: q}},
		{"fenced answer", "```json\n{\"action\":\"answer\",\"reason\":\"known\",\"answer\":\"Paris\"}\n```",
			Decision{Action: ActionAnswer, Reason: "known", Answer: "Paris"}},
		{"one-line fenced answer", "```json {\"action\":\"answer\",\"reason\":\"known\",\"answer\":\"Paris\"}```",
			Decision{Action: ActionAnswer, Reason: "known", Answer: "Paris"}},
		{"fence without tag", "```{\"action\":\"rag\",\"reason\":\"docs\"}```",
			Decision{Action: ActionRAG, Reason: "docs"}},
		{"fence with tag and no newline before brace", "```JSON{\"action\":\"search\",\"reason\":\"r\",\"search_query\":\"paris\"}\n```",
			Decision{Action: ActionSearch, Reason: "r", SearchQuery: "paris"}},
		{"uppercase action", `{"action":"RAG","reason":"docs"}`,
			Decision{Action: ActionRAG, Reason: "docs"}},
		{"tool", `{"action":"tool","reason":"weather","tool_name":"weather_getForecast","tool_args":{"city":"Paris"}}`,
			Decision{Action: ActionTool, Reason: "weather", ToolName: "weather_getForecast", ToolArgs: map[string]any{"city": "Paris"}}},
		{"not json", "I think you should search", FallbackDecision(q)},
		{"unknown action", `{"action":"dance"}`, FallbackDecision(q)},
		{"tool without name", `{"action":"tool"}`, FallbackDecision(q)},
		{"empty", "", FallbackDecision(q)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDecision(tt.raw, q))
		})
	}

	fb := ParseDecision("not json", q)
	assert.Equal(t, ActionRAG, fb.Action)
	assert.Equal(t, q, fb.SearchQuery)
}

func TestDecisionToken(t *testing.T) {
	assert.Equal(t, flow.TokenEnd, Decision{Action: ActionAnswer, Answer: "Paris"}.Token())
	assert.Equal(t, flow.TokenAnswer, Decision{Action: ActionAnswer}.Token())
	assert.Equal(t, flow.TokenSearch, Decision{Action: ActionSearch}.Token())
	assert.Equal(t, flow.TokenTool, Decision{Action: ActionTool}.Token())
	assert.Equal(t, flow.TokenRAG, Decision{Action: ActionRAG}.Token())
}

func TestRun_DirectAnswer(t *testing.T) {
	h := newHarness(&scriptedPolicy{decisions: []string{`{"action":"answer","reason":"known","answer":"Paris is the capital of France."}`}})

	s, res, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", s.Answer)
	assert.Equal(t, []flow.Name{NodeDecide}, res.Path)
	assert.Equal(t, 1, h.policy.decideCalls)
	assert.Zero(t, h.policy.answerCalls)
	assert.Empty(t, s.Sources())
	assert.False(t, res.Forced)
}

func TestRun_AnswerWithoutTextSynthesises(t *testing.T) {
	h := newHarness(&scriptedPolicy{decisions: []string{`{"action":"answer"}`}, answer: "Paris."})

	s, res, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", s.Answer)
	assert.Equal(t, []flow.Name{NodeDecide, NodeAnswer}, res.Path)
}

func TestRun_SearchThenAnswer(t *testing.T) {
	h := newHarness(&scriptedPolicy{decisions: []string{
		`{"action":"search","reason":"look up","search_query":"capital of france"}`,
		`{"action":"search","reason":"again"}`,
		`{"action":"answer","reason":"done","answer":"Paris"}`,
	}})

	s, res, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, "Paris", s.Answer)
	assert.Equal(t, 2, s.Metrics.SearchCount)
	assert.Len(t, s.SearchHistory, 2)
	assert.Equal(t, []string{"capital of france", "What is the capital of France?"}, h.searcher.queries)
	assert.Contains(t, s.Context, "Paris - https://example.com/paris\nParis is the capital of France.")
	assert.Contains(t, h.policy.lastDecision, "Paris is the capital of France.")

	searchVisits := 0
	for _, n := range res.Path {
		if n == NodeSearch {
			searchVisits++
		}
	}
	assert.Equal(t, s.Metrics.SearchCount, searchVisits)
}

func TestRun_RetrievalPath(t *testing.T) {
	h := newHarness(&scriptedPolicy{
		decisions: []string{`{"action":"rag","reason":"docs"}`},
		answer:    "Paris (paris.md)",
	})
	h.retriever.docs = []rag.Document{
		{Text: "Paris is the capital.", Source: "paris.md", Score: 0.9},
		{Text: "Paris has 2M people.", Source: "paris.md", Score: 0.8},
		{Text: "France is in Europe.", Source: "france.md", Score: 0.7},
	}

	s, res, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, []flow.Name{NodeDecide, NodeEmbed, NodeRetrieve, NodeAnswer}, res.Path)
	assert.Equal(t, "Paris (paris.md)", s.Answer)
	assert.Equal(t, 3, s.Metrics.RAGHits)
	assert.Equal(t, []string{"paris.md", "france.md"}, s.Sources())
	assert.Equal(t, []float32{1, 0}, s.QueryEmbedding)
}

func TestRun_EmbedFailureSkipsRetrieval(t *testing.T) {
	h := newHarness(&scriptedPolicy{decisions: []string{`{"action":"rag"}`}, answer: "I am not sure."})
	h.embedder.err = errors.New("embedding service down")

	s, _, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, s.QueryEmbedding)
	assert.Zero(t, h.retriever.calls)
	assert.Empty(t, s.RAGResults)
	assert.Equal(t, "I am not sure.", s.Answer)
}

func TestRun_RetrieverErrorIsEmptyBatch(t *testing.T) {
	h := newHarness(&scriptedPolicy{decisions: []string{`{"action":"rag"}`}, answer: "unsure"})
	h.retriever.err = errors.New("store offline")

	s, _, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, s.RAGResults)
	assert.Zero(t, s.Metrics.RAGHits)
}

func TestRun_DisabledToolIsData(t *testing.T) {
	h := newHarness(&scriptedPolicy{decisions: []string{
		`{"action":"tool","reason":"forecast","tool_name":"weather_getForecast","tool_args":{"city":"Paris"}}`,
		`{"action":"answer","reason":"no tool","answer":"I could not fetch the forecast."}`,
	}})
	h.tools = mcp.NewRegistry([]mcp.Provider{{Name: "weather", Enabled: false}}, logger.NewNopLogger())

	s, res, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, s.ToolCalls, 1)
	assert.Equal(t, "weather_getForecast", s.ToolCalls[0].Name)
	assert.Contains(t, s.ToolCalls[0].Result, "not configured")
	assert.Contains(t, s.Context, "Tool weather_getForecast result:")
	assert.Equal(t, 1, s.Metrics.ToolCalls)
	assert.Nil(t, s.PendingTool)
	assert.NotEmpty(t, s.Answer)
	assert.Equal(t, []flow.Name{NodeDecide, NodeTool, NodeDecide}, res.Path)
}

func TestRun_NoToolCallerConfigured(t *testing.T) {
	h := newHarness(&scriptedPolicy{decisions: []string{
		`{"action":"tool","tool_name":"github_search"}`,
		`{"action":"answer","answer":"done"}`,
	}})

	s, _, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, s.ToolCalls, 1)
	assert.Equal(t, "Error: Unknown server: github", s.ToolCalls[0].Result)
}

func TestRun_HopCeilingForcesAnswer(t *testing.T) {
	h := newHarness(&scriptedPolicy{
		decisions:  []string{`{"action":"search","search_query":"loop"}`},
		repeatLast: true,
		answer:     "Forced synthesis.",
	})

	s, res, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)

	assert.True(t, res.Forced)
	assert.Equal(t, flow.DefaultMaxHops+1, res.Hops)
	assert.Equal(t, NodeAnswer, res.Path[len(res.Path)-1])
	assert.Equal(t, "Forced synthesis.", s.Answer)

	searchVisits := 0
	for _, n := range res.Path {
		if n == NodeSearch {
			searchVisits++
		}
	}
	assert.Equal(t, searchVisits, s.Metrics.SearchCount)
}

func TestRun_ContextIsNonDecreasing(t *testing.T) {
	s := NewState("q", "s")
	node := NewSearchNode(&stubSearcher{}, 3)
	prev := 0
	for i := 0; i < 3; i++ {
		out, _ := node.Execute(context.Background(), node.Prepare(s))
		node.Finalize(s, "q", out, nil)
		assert.Greater(t, len(s.Context), prev)
		prev = len(s.Context)
	}
}

func TestRun_PolicyDownStillAnswers(t *testing.T) {
	h := newHarness(&scriptedPolicy{
		decideErr: errors.New("policy unavailable"),
		answerErr: errors.New("policy unavailable"),
	})
	h.retriever.docs = []rag.Document{{Text: "Paris is the capital of France.", Source: "paris.md"}}

	s, res, err := h.run(t, context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, []flow.Name{NodeDecide, NodeEmbed, NodeRetrieve, NodeAnswer}, res.Path)
	assert.True(t, strings.Contains(s.Answer, "Paris is the capital of France. (paris.md)"))
	assert.Equal(t, []string{"paris.md"}, s.Sources())
}

func TestRun_CancelledContextStillAnswers(t *testing.T) {
	h := newHarness(&scriptedPolicy{answerErr: context.Canceled})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, res, err := h.run(t, ctx, 0)
	require.NoError(t, err)
	assert.True(t, res.Forced)
	assert.Equal(t, []flow.Name{NodeAnswer}, res.Path)
	assert.NotEmpty(t, s.Answer)
}

func TestStateSetAnswerOnce(t *testing.T) {
	s := NewState("q", "s")
	assert.False(t, s.Done())
	s.SetAnswer("first")
	s.SetAnswer("second")
	assert.True(t, s.Done())
	assert.Equal(t, "first", s.Answer)
}

func TestEdgesCoverEveryNode(t *testing.T) {
	targets := map[flow.Name]bool{}
	for _, e := range Edges() {
		targets[e.To] = true
	}
	for _, n := range []flow.Name{NodeSearch, NodeEmbed, NodeRetrieve, NodeTool, NodeAnswer, NodeDecide} {
		assert.True(t, targets[n], "node %s is unreachable", n)
	}
}

func TestRun_StalledPolicyDegradesWithinCallTimeout(t *testing.T) {
	policy := &stalledPolicy{}
	h := newHarness(nil)
	h.provider = policy
	h.callTimeout = 50 * time.Millisecond
	h.retriever.docs = []rag.Document{{Text: "Paris is the capital of France.", Source: "paris.md"}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now()
	s, res, err := h.run(t, ctx, 0)
	elapsed := time.Since(started)
	require.NoError(t, err)

	assert.Less(t, elapsed, 2*time.Second)
	assert.False(t, res.Forced)
	assert.Equal(t, []flow.Name{NodeDecide, NodeEmbed, NodeRetrieve, NodeAnswer}, res.Path)
	assert.Equal(t, 2, policy.calls)
	assert.Contains(t, s.Answer, "Paris is the capital of France. (paris.md)")
	assert.NoError(t, ctx.Err())
}
