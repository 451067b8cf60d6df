package agent

import (
	"context"
	"time"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/llm"
)

type DecideNode struct {
	policy  llm.LLMProvider
	tools   ToolCaller
	timeout time.Duration
	logger  logger.ILogger
}

func NewDecideNode(policy llm.LLMProvider, tools ToolCaller, timeout time.Duration, log logger.ILogger) *DecideNode {
	return &DecideNode{policy: policy, tools: tools, timeout: timeout, logger: log}
}

func (n *DecideNode) Tokens() []flow.Token {
	return []flow.Token{flow.TokenSearch, flow.TokenRAG, flow.TokenTool, flow.TokenAnswer, flow.TokenEnd}
}

func (n *DecideNode) Prepare(s *State) promptInput {
	return readPromptInput(s)
}

func (n *DecideNode) Execute(ctx context.Context, in promptInput) (Decision, error) {
	prompt := buildDecisionPrompt(in, n.tools.ListTools(ctx))

	ctx, cancel := withCallTimeout(ctx, n.timeout)
	defer cancel()
	raw, err := n.policy.Generate(ctx, prompt, llm.WithJSONMode())
	if err != nil {
		return Decision{}, err
	}
	return ParseDecision(raw, in.Question), nil
}

func (n *DecideNode) Finalize(s *State, in promptInput, d Decision, err error) flow.Token {
	if err != nil {
		n.logger.Warn("DecideNode", "Policy call failed, falling back to retrieval", map[string]interface{}{
			"session_id": s.SessionID,
			"error":      err.Error(),
		})
		d = FallbackDecision(in.Question)
	}

	n.logger.Debug("DecideNode", "Decision made", map[string]interface{}{
		"session_id": s.SessionID,
		"action":     string(d.Action),
		"reason":     d.Reason,
	})

	token := d.Token()
	switch token {
	case flow.TokenSearch:
		s.SearchQuery = d.SearchQuery
	case flow.TokenTool:
		s.PendingTool = &PendingTool{Name: d.ToolName, Args: d.ToolArgs}
	case flow.TokenEnd:
		s.SetAnswer(d.Answer)
	}
	return token
}
