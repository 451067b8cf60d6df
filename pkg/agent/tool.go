package agent

import (
	"context"
	"fmt"

	"research-agent-be/pkg/flow"
)

const noToolSelected = "Error: no tool selected"

type ToolNode struct {
	tools ToolCaller
}

func NewToolNode(tools ToolCaller) *ToolNode {
	return &ToolNode{tools: tools}
}

func (n *ToolNode) Tokens() []flow.Token {
	return []flow.Token{flow.TokenDecide}
}

func (n *ToolNode) Prepare(s *State) *PendingTool {
	if s.PendingTool == nil {
		return nil
	}
	p := *s.PendingTool
	return &p
}

func (n *ToolNode) Execute(ctx context.Context, p *PendingTool) (string, error) {
	if p == nil {
		return noToolSelected, nil
	}
	return n.tools.CallTool(ctx, p.Name, p.Args), nil
}

func (n *ToolNode) Finalize(s *State, p *PendingTool, result string, _ error) flow.Token {
	call := ToolCall{Result: result}
	if p != nil {
		call.Name = p.Name
		call.Args = p.Args
	}
	s.AppendContext(fmt.Sprintf("Tool %s result:\n%s", call.Name, result))
	s.ToolCalls = append(s.ToolCalls, call)
	s.Metrics.ToolCalls++
	s.PendingTool = nil
	return flow.TokenDecide
}
