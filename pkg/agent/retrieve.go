package agent

import (
	"context"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/rag"
)

type RetrieveNode struct {
	retriever DocumentRetriever
	topK      int
	logger    logger.ILogger
}

func NewRetrieveNode(retriever DocumentRetriever, topK int, log logger.ILogger) *RetrieveNode {
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &RetrieveNode{retriever: retriever, topK: topK, logger: log}
}

func (n *RetrieveNode) Tokens() []flow.Token {
	return []flow.Token{flow.TokenNext}
}

func (n *RetrieveNode) Prepare(s *State) []float32 {
	return s.QueryEmbedding
}

func (n *RetrieveNode) Execute(ctx context.Context, vec []float32) ([]rag.Document, error) {
	if len(vec) == 0 {
		return []rag.Document{}, nil
	}
	return n.retriever.Search(ctx, vec, n.topK)
}

func (n *RetrieveNode) Finalize(s *State, _ []float32, docs []rag.Document, err error) flow.Token {
	if err != nil {
		n.logger.Warn("RetrieveNode", "Document retrieval failed", map[string]interface{}{
			"session_id": s.SessionID,
			"error":      err.Error(),
		})
		docs = []rag.Document{}
	}
	s.RAGResults = docs
	s.Metrics.RAGHits = len(docs)
	return flow.TokenNext
}
