package factory

import (
	"fmt"
	"time"

	"research-agent-be/pkg/llm"
	"research-agent-be/pkg/llm/ollama"
	"research-agent-be/pkg/llm/openai"
)

type Params struct {
	Provider      string // "openai" or "ollama"
	Model         string
	Temperature   float64
	OpenAIKey     string
	OpenAIBaseURL string
	OllamaBaseURL string
	// Timeout bounds each completion request. Zero keeps the provider default.
	Timeout time.Duration
}

func NewLLMProvider(p Params) (llm.LLMProvider, error) {
	switch p.Provider {
	case "openai", "":
		if p.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return openai.NewOpenAIProvider(p.OpenAIKey, p.OpenAIBaseURL, p.Model, p.Temperature, p.Timeout), nil
	case "ollama":
		baseURL := p.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		provider := ollama.NewOllamaProvider(baseURL, p.Model, p.Temperature, openai.DefaultSystemPrompt)
		if p.Timeout > 0 {
			provider.Client.Timeout = p.Timeout
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
