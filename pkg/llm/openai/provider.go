package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"research-agent-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultSystemPrompt is prepended to every Generate call.
const DefaultSystemPrompt = "You are a meticulous research assistant that cites sources."

var ErrNoChoices = errors.New("openai returned no choices")

type OpenAIProvider struct {
	client       *goopenai.Client
	modelName    string
	temperature  float64
	systemPrompt string
}

var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider builds a chat-completion client. baseURL may be empty to use the public API.
// A positive timeout bounds every request; go-openai's default client has none.
func NewOpenAIProvider(apiKey, baseURL, modelName string, temperature float64, timeout time.Duration) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	if modelName == "" {
		modelName = goopenai.GPT4oMini
	}
	return &OpenAIProvider{
		client:       goopenai.NewClientWithConfig(cfg),
		modelName:    modelName,
		temperature:  temperature,
		systemPrompt: DefaultSystemPrompt,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Temperature: p.temperature, Model: p.modelName}, opts...)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       options.Model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
	}
	if options.MaxTokens > 0 {
		req.MaxCompletionTokens = options.MaxTokens
	}
	if options.JSONMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: p.systemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}, opts...)
}
