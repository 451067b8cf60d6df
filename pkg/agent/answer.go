package agent

import (
	"context"
	"strings"
	"time"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/llm"
)

type AnswerNode struct {
	policy  llm.LLMProvider
	timeout time.Duration
	logger  logger.ILogger
}

func NewAnswerNode(policy llm.LLMProvider, timeout time.Duration, log logger.ILogger) *AnswerNode {
	return &AnswerNode{policy: policy, timeout: timeout, logger: log}
}

func (n *AnswerNode) Tokens() []flow.Token {
	return []flow.Token{flow.TokenEnd}
}

func (n *AnswerNode) Prepare(s *State) promptInput {
	return readPromptInput(s)
}

func (n *AnswerNode) Execute(ctx context.Context, in promptInput) (string, error) {
	ctx, cancel := withCallTimeout(ctx, n.timeout)
	defer cancel()
	return n.policy.Generate(ctx, buildAnswerPrompt(in))
}

func (n *AnswerNode) Finalize(s *State, in promptInput, answer string, err error) flow.Token {
	if err != nil || strings.TrimSpace(answer) == "" {
		details := map[string]interface{}{"session_id": s.SessionID}
		if err != nil {
			details["error"] = err.Error()
		}
		n.logger.Warn("AnswerNode", "Synthesis failed, using gathered context", details)
		answer = bestEffortAnswer(in)
	}
	s.SetAnswer(strings.TrimSpace(answer))
	return flow.TokenEnd
}
