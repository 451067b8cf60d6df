package agent

import (
	"research-agent-be/pkg/memory"
	"research-agent-be/pkg/rag"
	"research-agent-be/pkg/search"
)

type PendingTool struct {
	Name string
	Args map[string]any
}

type ToolCall struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args,omitempty"`
	Result string         `json:"result"`
}

type Metrics struct {
	SearchCount int `json:"searchCount"`
	RAGHits     int `json:"ragHits"`
	ToolCalls   int `json:"toolCalls"`
	Hops        int `json:"hops"`
}

// State is the shared context of one research run. Each field has a single
// writer: the caller seeds the inputs and every node owns its outputs.
type State struct {
	Question  string
	SessionID string
	History   []memory.Message
	Recalled  *memory.Recollection

	Context        string
	SearchQuery    string
	PendingTool    *PendingTool
	SearchHistory  [][]search.Result
	ToolCalls      []ToolCall
	RAGResults     []rag.Document
	QueryEmbedding []float32

	Answer   string
	answered bool

	Metrics Metrics
}

func NewState(question, sessionID string) *State {
	return &State{Question: question, SessionID: sessionID}
}

// Done is true once an answer has been written.
func (s *State) Done() bool {
	return s.answered
}

// SetAnswer writes the answer once. Later calls are ignored.
func (s *State) SetAnswer(answer string) {
	if s.answered {
		return
	}
	s.Answer = answer
	s.answered = true
}

// AppendContext only ever grows the context.
func (s *State) AppendContext(text string) {
	if text == "" {
		return
	}
	if s.Context != "" {
		s.Context += "\n\n"
	}
	s.Context += text
}

// Sources lists the distinct sources of the latest retrieval batch.
func (s *State) Sources() []string {
	return rag.Sources(s.RAGResults)
}
