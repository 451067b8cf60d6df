package rag

import (
	"context"
	"fmt"

	"research-agent-be/pkg/vectorstore"
)

const (
	// ChunkType tags indexed document chunks in the shared vector store.
	ChunkType = "document_chunk"

	DefaultTopK = 3
)

// Document is one retrieved chunk.
type Document struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type Retriever struct {
	store vectorstore.Store
}

func NewRetriever(store vectorstore.Store) *Retriever {
	return &Retriever{store: store}
}

// Search returns the k chunks closest to vec, best first.
func (r *Retriever) Search(ctx context.Context, vec []float32, k int) ([]Document, error) {
	if len(vec) == 0 {
		return []Document{}, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	matches, err := r.store.Query(ctx, vec, vectorstore.Filter{"type": ChunkType}, k)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	docs := make([]Document, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, Document{
			Text:   vectorstore.MetaString(m.Metadata["text"]),
			Source: vectorstore.MetaString(m.Metadata["source"]),
			Score:  m.Score,
		})
	}
	return docs, nil
}

// Sources lists the distinct sources of docs in first-seen order.
func Sources(docs []Document) []string {
	seen := make(map[string]bool, len(docs))
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Source == "" || seen[d.Source] {
			continue
		}
		seen[d.Source] = true
		out = append(out, d.Source)
	}
	return out
}
