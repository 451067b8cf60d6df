package agent

import (
	"encoding/json"
	"strings"
	"unicode"

	"research-agent-be/pkg/flow"
)

type Action string

const (
	ActionSearch Action = "search"
	ActionRAG    Action = "rag"
	ActionTool   Action = "tool"
	ActionAnswer Action = "answer"
)

// Decision is the policy's choice of next step.
type Decision struct {
	Action      Action         `json:"action"`
	Reason      string         `json:"reason"`
	SearchQuery string         `json:"search_query,omitempty"`
	Answer      string         `json:"answer,omitempty"`
	ToolName    string         `json:"tool_name,omitempty"`
	ToolArgs    map[string]any `json:"tool_args,omitempty"`
}

func FallbackDecision(question string) Decision {
	return Decision{Action: ActionRAG, Reason: "fallback", SearchQuery: question}
}

// ParseDecision reads the policy output. Anything it cannot use becomes the
// retrieval fallback, so the run always has somewhere to go.
func ParseDecision(raw, question string) Decision {
	var d Decision
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &d); err != nil {
		return FallbackDecision(question)
	}
	d.Action = Action(strings.ToLower(strings.TrimSpace(string(d.Action))))

	switch d.Action {
	case ActionSearch:
		if strings.TrimSpace(d.SearchQuery) == "" {
			d.SearchQuery = question
		}
	case ActionTool:
		if strings.TrimSpace(d.ToolName) == "" {
			return FallbackDecision(question)
		}
	case ActionRAG, ActionAnswer:
	default:
		return FallbackDecision(question)
	}
	return d
}

// stripCodeFence removes a surrounding markdown fence and its optional
// language tag, on one line or several.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")

	tagEnd := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})
	switch {
	case tagEnd > 0:
		s = s[tagEnd:]
	case tagEnd < 0:
		s = ""
	}
	return strings.TrimSpace(s)
}

// Token maps the action to its routing token. A direct answer with text ends
// the run at the decision node.
func (d Decision) Token() flow.Token {
	switch d.Action {
	case ActionSearch:
		return flow.TokenSearch
	case ActionTool:
		return flow.TokenTool
	case ActionAnswer:
		if strings.TrimSpace(d.Answer) != "" {
			return flow.TokenEnd
		}
		return flow.TokenAnswer
	default:
		return flow.TokenRAG
	}
}
