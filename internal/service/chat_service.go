package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"research-agent-be/internal/constant"
	"research-agent-be/internal/dto"
	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/agent"
	"research-agent-be/pkg/events"
	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/memory"
	"research-agent-be/pkg/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	OutcomeAnswered = "answered"
	OutcomeForced   = "forced"
	OutcomeNoRoute  = "no_route"
)

type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

// GraphRunner executes one research run over a fresh state.
type GraphRunner interface {
	Run(ctx context.Context, state *agent.State) (flow.Result, error)
}

type SessionMemory interface {
	ExchangeRecorder
	Window(ctx context.Context, sessionID string) ([]memory.Message, error)
	Recall(ctx context.Context, sessionID, query string) *memory.Recollection
}

type RunObserver interface {
	ObserveRun(outcome string, elapsed time.Duration)
}

type ChatServiceDeps struct {
	Graph      GraphRunner
	Memory     SessionMemory
	Evals      *metrics.EvalBuffer
	Observer   RunObserver
	Events     EventPublisher
	Archive    IPublisherService
	RunTimeout time.Duration
	Logger     logger.ILogger
}

type chatService struct {
	graph      GraphRunner
	memory     SessionMemory
	evals      *metrics.EvalBuffer
	observer   RunObserver
	events     EventPublisher
	archive    IPublisherService
	runTimeout time.Duration
	logger     logger.ILogger
	now        func() time.Time
}

func NewChatService(deps ChatServiceDeps) IChatService {
	return &chatService{
		graph:      deps.Graph,
		memory:     deps.Memory,
		evals:      deps.Evals,
		observer:   deps.Observer,
		events:     deps.Events,
		archive:    deps.Archive,
		runTimeout: deps.RunTimeout,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

func (s *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	started := s.now()
	question := strings.TrimSpace(req.Message)
	sessionID := req.Session()
	traceID := uuid.NewString()

	ctx, span := otel.Tracer("research-agent-be/chat").Start(ctx, "agent.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.trace_id", traceID),
		attribute.String("agent.session_id", sessionID),
	)

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	state := agent.NewState(question, sessionID)
	history, err := s.memory.Window(runCtx, sessionID)
	if err != nil {
		s.logger.Warn("ChatService", "Failed to load conversation window", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	state.History = history
	state.Recalled = s.memory.Recall(runCtx, sessionID, question)

	outcome := OutcomeAnswered
	result, err := s.graph.Run(runCtx, state)
	switch {
	case errors.Is(err, flow.ErrNoRoute):
		outcome = OutcomeNoRoute
		state.SetAnswer(constant.RoutingFailureAnswer)
		s.logger.Error("ChatService", "Run stopped without a route", map[string]interface{}{
			"trace_id": traceID,
			"path":     result.Path,
			"error":    err.Error(),
		})
		span.SetStatus(codes.Error, err.Error())
	case err != nil:
		return nil, err
	case result.Forced:
		outcome = OutcomeForced
	}
	state.Metrics.Hops = result.Hops

	elapsed := s.now().Sub(started)
	span.SetAttributes(
		attribute.String("agent.outcome", outcome),
		attribute.Int("agent.hops", result.Hops),
		attribute.Int("agent.searches", state.Metrics.SearchCount),
	)

	s.evals.Add(metrics.EvalEntry{
		SessionID: sessionID,
		LatencyMs: elapsed.Milliseconds(),
		Searches:  state.Metrics.SearchCount,
		RAGHits:   state.Metrics.RAGHits,
	})
	if s.observer != nil {
		s.observer.ObserveRun(outcome, elapsed)
	}
	publishEvent(ctx, s.events, s.logger, events.RunCompleted{
		TraceID:   traceID,
		SessionID: sessionID,
		LatencyMs: elapsed.Milliseconds(),
		Searches:  state.Metrics.SearchCount,
		RAGHits:   state.Metrics.RAGHits,
		ToolCalls: state.Metrics.ToolCalls,
		Hops:      result.Hops,
		Forced:    result.Forced,
		At:        s.now(),
	})

	s.remember(ctx, traceID, sessionID, question, state.Answer)

	s.logger.Info("ChatService", "Run completed", map[string]interface{}{
		"trace_id":   traceID,
		"session_id": sessionID,
		"outcome":    outcome,
		"hops":       result.Hops,
		"latency_ms": elapsed.Milliseconds(),
	})

	sources := state.Sources()
	if sources == nil {
		sources = []string{}
	}
	return &dto.ChatResponse{
		Answer:  state.Answer,
		Sources: sources,
		TraceId: traceID,
	}, nil
}

// remember hands the exchange to the archival consumer, or records it inline
// when no publisher is wired.
func (s *chatService) remember(ctx context.Context, traceID, sessionID, question, answer string) {
	if s.archive != nil {
		err := s.archive.PublishExchange(ctx, dto.ExchangeCompletedMessage{
			TraceId:          traceID,
			SessionId:        sessionID,
			UserMessage:      question,
			AssistantMessage: answer,
			CompletedAt:      s.now(),
		})
		if err == nil {
			return
		}
		s.logger.Warn("ChatService", "Failed to publish exchange, recording inline", map[string]interface{}{
			"trace_id": traceID,
			"error":    err.Error(),
		})
	}

	if _, err := s.memory.Record(context.WithoutCancel(ctx), sessionID, question, answer); err != nil {
		s.logger.Error("ChatService", "Failed to record exchange", map[string]interface{}{
			"trace_id":   traceID,
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}
