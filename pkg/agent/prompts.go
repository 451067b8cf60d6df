package agent

import (
	"fmt"
	"strings"

	"research-agent-be/internal/constant"
	"research-agent-be/pkg/mcp"
	"research-agent-be/pkg/memory"
	"research-agent-be/pkg/rag"
)

// promptInput is what both the decision and the answer prompt read from the state.
type promptInput struct {
	Question string
	History  []memory.Message
	Recalled *memory.Recollection
	Context  string
	RAG      []rag.Document
}

func readPromptInput(s *State) promptInput {
	docs := make([]rag.Document, len(s.RAGResults))
	copy(docs, s.RAGResults)
	history := make([]memory.Message, len(s.History))
	copy(history, s.History)
	return promptInput{
		Question: s.Question,
		History:  history,
		Recalled: s.Recalled,
		Context:  s.Context,
		RAG:      docs,
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return constant.EmptySection
	}
	return s
}

func formatHistory(history []memory.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return orNone(strings.Join(lines, "\n"))
}

func formatRecalled(r *memory.Recollection) string {
	if r == nil {
		return constant.EmptySection
	}
	return fmt.Sprintf("User: %s\nAssistant: %s", r.Pair.User.Content, r.Pair.Assistant.Content)
}

func formatDecisionRAG(docs []rag.Document) string {
	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("- Source: %s\n  Excerpt: %s", d.Source, d.Text))
	}
	return orNone(strings.Join(lines, "\n"))
}

func formatAnswerRAG(docs []rag.Document) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("Source: %s\nExcerpt: %s", d.Source, d.Text))
	}
	if len(blocks) == 0 {
		return "None"
	}
	return strings.Join(blocks, "\n")
}

func formatTools(tools []mcp.ToolDescriptor) string {
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		lines = append(lines, fmt.Sprintf("- %s: %s", t.Name, t.Description))
	}
	return orNone(strings.Join(lines, "\n"))
}

func buildDecisionPrompt(in promptInput, tools []mcp.ToolDescriptor) string {
	toolKeys := ""
	if len(tools) > 0 {
		toolKeys = constant.DecisionToolKeys
	}
	return fmt.Sprintf(constant.DecisionPrompt,
		in.Question,
		formatHistory(in.History),
		formatRecalled(in.Recalled),
		orNone(in.Context),
		formatDecisionRAG(in.RAG),
		formatTools(tools),
		toolKeys,
	)
}

func buildAnswerPrompt(in promptInput) string {
	return fmt.Sprintf(constant.AnswerPrompt,
		in.Question,
		formatHistory(in.History),
		formatRecalled(in.Recalled),
		in.Context,
		formatAnswerRAG(in.RAG),
	)
}

// bestEffortAnswer is used when the policy cannot synthesise an answer.
// It is built only from what the run already gathered.
func bestEffortAnswer(in promptInput) string {
	var sb strings.Builder
	if strings.TrimSpace(in.Context) == "" && len(in.RAG) == 0 {
		fmt.Fprintf(&sb, "I could not complete the research for %q right now. Please try again.", in.Question)
		return sb.String()
	}

	sb.WriteString("I could not synthesize a full answer, but this is what I found.")
	if ctx := strings.TrimSpace(in.Context); ctx != "" {
		sb.WriteString("\n\n")
		sb.WriteString(truncate(ctx, 1500))
	}
	for _, d := range in.RAG {
		fmt.Fprintf(&sb, "\n\n%s (%s)", truncate(strings.TrimSpace(d.Text), 400), d.Source)
	}
	return sb.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
