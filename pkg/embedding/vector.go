package embedding

import (
	"fmt"
	"math"
	"time"
)

// NormalizeVector scales vec to unit length. A zero vector is returned unchanged.
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

// CosineSimilarity returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type Params struct {
	Provider      string // "openai" or "ollama"
	Model         string
	OpenAIKey     string
	OpenAIBaseURL string
	OllamaBaseURL string
	// Timeout bounds each embedding request. Zero keeps the provider default.
	Timeout time.Duration
}

// NewEmbeddingProvider picks a provider the same way the LLM factory does.
func NewEmbeddingProvider(p Params) (EmbeddingProvider, error) {
	switch p.Provider {
	case "openai", "":
		if p.OpenAIKey == "" {
			return nil, fmt.Errorf("openai embeddings require OPENAI_API_KEY")
		}
		return NewOpenAIProvider(p.OpenAIKey, p.OpenAIBaseURL, p.Model, p.Timeout), nil
	case "ollama":
		provider := NewOllamaProvider(p.OllamaBaseURL, p.Model).(*OllamaProvider)
		if p.Timeout > 0 {
			provider.Client.Timeout = p.Timeout
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", p.Provider)
	}
}
