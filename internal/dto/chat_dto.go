package dto

import (
	"strings"
	"time"
)

const AnonymousSession = "anonymous"

type ChatRequest struct {
	Message   string `json:"message" validate:"required,notblank"`
	SessionId string `json:"sessionId,omitempty"`
	// Older clients send the snake_case key.
	SessionIdAlt string `json:"session_id,omitempty"`
}

// Session resolves the session key, falling back to the anonymous session
// when neither key carries anything but whitespace.
func (r *ChatRequest) Session() string {
	if id := strings.TrimSpace(r.SessionId); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.SessionIdAlt); id != "" {
		return id
	}
	return AnonymousSession
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	TraceId string   `json:"traceId"`
}

// ExchangeCompletedMessage is published after every run so the exchange is
// recorded into memory off the request path.
type ExchangeCompletedMessage struct {
	TraceId          string    `json:"trace_id"`
	SessionId        string    `json:"session_id"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	CompletedAt      time.Time `json:"completed_at"`
}
