package agent

import (
	"context"
	"time"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/embedding"
	"research-agent-be/pkg/flow"
)

type embedInput struct {
	question string
	cached   []float32
}

type EmbedNode struct {
	embedder embedding.EmbeddingProvider
	timeout  time.Duration
	logger   logger.ILogger
}

func NewEmbedNode(embedder embedding.EmbeddingProvider, timeout time.Duration, log logger.ILogger) *EmbedNode {
	return &EmbedNode{embedder: embedder, timeout: timeout, logger: log}
}

func (n *EmbedNode) Tokens() []flow.Token {
	return []flow.Token{flow.TokenNext}
}

func (n *EmbedNode) Prepare(s *State) embedInput {
	return embedInput{question: s.Question, cached: s.QueryEmbedding}
}

// Execute embeds the question at most once per run.
func (n *EmbedNode) Execute(ctx context.Context, in embedInput) ([]float32, error) {
	if len(in.cached) > 0 {
		return in.cached, nil
	}
	ctx, cancel := withCallTimeout(ctx, n.timeout)
	defer cancel()
	resp, err := n.embedder.Generate(ctx, in.question, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

func (n *EmbedNode) Finalize(s *State, _ embedInput, vec []float32, err error) flow.Token {
	if err != nil {
		n.logger.Warn("EmbedNode", "Query embedding failed", map[string]interface{}{
			"session_id": s.SessionID,
			"error":      err.Error(),
		})
		return flow.TokenNext
	}
	s.QueryEmbedding = vec
	return flow.TokenNext
}
