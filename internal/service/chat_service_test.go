package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"research-agent-be/internal/constant"
	"research-agent-be/internal/dto"
	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/agent"
	"research-agent-be/pkg/events"
	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/llm"
	"research-agent-be/pkg/memory"
	"research-agent-be/pkg/metrics"
	"research-agent-be/pkg/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, state *agent.State) (flow.Result, error)

func (f runnerFunc) Run(ctx context.Context, state *agent.State) (flow.Result, error) {
	return f(ctx, state)
}

type fakeMemory struct {
	mu       sync.Mutex
	window   []memory.Message
	recalled *memory.Recollection
	recorded []dto.ExchangeCompletedMessage
	ids      []string
	err      error
}

func (m *fakeMemory) Window(context.Context, string) ([]memory.Message, error) {
	return m.window, nil
}

func (m *fakeMemory) Recall(context.Context, string, string) *memory.Recollection {
	return m.recalled
}

func (m *fakeMemory) Record(_ context.Context, sessionID, user, assistant string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, dto.ExchangeCompletedMessage{
		SessionId:        sessionID,
		UserMessage:      user,
		AssistantMessage: assistant,
	})
	return m.ids, m.err
}

func (m *fakeMemory) records() []dto.ExchangeCompletedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dto.ExchangeCompletedMessage(nil), m.recorded...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEvents) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) published() []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Event(nil), f.events...)
}

type fakeRunObserver struct{ outcomes []string }

func (o *fakeRunObserver) ObserveRun(outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

type fakeArchive struct {
	msgs []dto.ExchangeCompletedMessage
	err  error
}

func (a *fakeArchive) PublishExchange(_ context.Context, msg dto.ExchangeCompletedMessage) error {
	a.msgs = append(a.msgs, msg)
	return a.err
}

// directPolicy answers in the decision step.
type directPolicy struct{ answer string }

func (p directPolicy) Chat(ctx context.Context, h []llm.Message, opts ...llm.Option) (string, error) {
	return p.Generate(ctx, h[len(h)-1].Content, opts...)
}

func (p directPolicy) Generate(context.Context, string, ...llm.Option) (string, error) {
	return fmt.Sprintf(`{"action":"answer","reason":"known","answer":%q}`, p.answer), nil
}

type noSearch struct{}

func (noSearch) Search(context.Context, string, int) []search.Result { return nil }

func newTestChatService(t *testing.T, runner GraphRunner, mem *fakeMemory, archive IPublisherService) (IChatService, *metrics.EvalBuffer, *fakeRunObserver, *fakeEvents) {
	t.Helper()
	evals := metrics.NewEvalBuffer(5)
	obs := &fakeRunObserver{}
	bus := &fakeEvents{}
	svc := NewChatService(ChatServiceDeps{
		Graph:      runner,
		Memory:     mem,
		Evals:      evals,
		Observer:   obs,
		Events:     bus,
		Archive:    archive,
		RunTimeout: time.Second,
		Logger:     logger.NewNopLogger(),
	})
	return svc, evals, obs, bus
}

func TestChatService_AnswersThroughGraph(t *testing.T) {
	graph, err := agent.NewResearchGraph(agent.Deps{
		Policy:   directPolicy{answer: "Paris is the capital of France."},
		Searcher: noSearch{},
		Logger:   logger.NewNopLogger(),
	}, flow.DefaultMaxHops, nil)
	require.NoError(t, err)

	mem := &fakeMemory{}
	svc, evals, obs, bus := newTestChatService(t, graph, mem, nil)

	res, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "What is the capital of France?"})
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", res.Answer)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	_, err = uuid.Parse(res.TraceId)
	assert.NoError(t, err)

	recent := evals.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, dto.AnonymousSession, recent[0].SessionID)
	assert.Equal(t, []string{OutcomeAnswered}, obs.outcomes)

	published := bus.published()
	require.Len(t, published, 1)
	run, ok := published[0].(events.RunCompleted)
	require.True(t, ok)
	assert.Equal(t, res.TraceId, run.TraceID)
	assert.Equal(t, 1, run.Hops)

	records := mem.records()
	require.Len(t, records, 1)
	assert.Equal(t, "What is the capital of France?", records[0].UserMessage)
	assert.Equal(t, res.Answer, records[0].AssistantMessage)
}

func TestChatService_SeedsStateFromMemory(t *testing.T) {
	window := []memory.Message{
		{Role: memory.RoleUser, Content: "hi"},
		{Role: memory.RoleAssistant, Content: "hello"},
	}
	recalled := &memory.Recollection{ID: "s_1"}
	mem := &fakeMemory{window: window, recalled: recalled}

	var seen *agent.State
	runner := runnerFunc(func(_ context.Context, s *agent.State) (flow.Result, error) {
		seen = s
		s.SetAnswer("ok")
		return flow.Result{Hops: 1}, nil
	})
	svc, _, _, _ := newTestChatService(t, runner, mem, nil)

	_, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "  again?  ", SessionIdAlt: "s"})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "again?", seen.Question)
	assert.Equal(t, "s", seen.SessionID)
	assert.Equal(t, window, seen.History)
	assert.Same(t, recalled, seen.Recalled)
}

func TestChatService_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		result      flow.Result
		err         error
		wantOutcome string
		wantAnswer  string
	}{
		{
			name:        "forced by hop ceiling",
			result:      flow.Result{Hops: 26, Forced: true},
			wantOutcome: OutcomeForced,
			wantAnswer:  "best effort",
		},
		{
			name:        "missing route",
			result:      flow.Result{Hops: 2},
			err:         fmt.Errorf("%w: search from node %q", flow.ErrNoRoute, "decide"),
			wantOutcome: OutcomeNoRoute,
			wantAnswer:  constant.RoutingFailureAnswer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := runnerFunc(func(_ context.Context, s *agent.State) (flow.Result, error) {
				if tt.err == nil {
					s.SetAnswer("best effort")
				}
				return tt.result, tt.err
			})
			svc, _, obs, _ := newTestChatService(t, runner, &fakeMemory{}, nil)

			res, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "q", SessionId: "s"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnswer, res.Answer)
			assert.Equal(t, []string{tt.wantOutcome}, obs.outcomes)
		})
	}
}

func TestChatService_ArchivalPublisher(t *testing.T) {
	answer := runnerFunc(func(_ context.Context, s *agent.State) (flow.Result, error) {
		s.SetAnswer("42")
		return flow.Result{Hops: 1}, nil
	})

	t.Run("published exchanges are not recorded inline", func(t *testing.T) {
		mem := &fakeMemory{}
		archive := &fakeArchive{}
		svc, _, _, _ := newTestChatService(t, answer, mem, archive)

		res, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "q", SessionId: "s"})
		require.NoError(t, err)
		require.Len(t, archive.msgs, 1)
		assert.Equal(t, res.TraceId, archive.msgs[0].TraceId)
		assert.Equal(t, "42", archive.msgs[0].AssistantMessage)
		assert.Empty(t, mem.records())
	})

	t.Run("publish failure falls back to inline recording", func(t *testing.T) {
		mem := &fakeMemory{}
		archive := &fakeArchive{err: errors.New("closed")}
		svc, _, _, _ := newTestChatService(t, answer, mem, archive)

		_, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "q", SessionId: "s"})
		require.NoError(t, err)
		assert.Len(t, mem.records(), 1)
	})
}
