package agent

import (
	"time"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/embedding"
	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/llm"
	"research-agent-be/pkg/rag"
	"research-agent-be/pkg/search"
)

const (
	NodeDecide   flow.Name = "decide"
	NodeSearch   flow.Name = "search"
	NodeEmbed    flow.Name = "embed"
	NodeRetrieve flow.Name = "retrieve"
	NodeTool     flow.Name = "tool"
	NodeAnswer   flow.Name = "answer"
)

// Edges is the routing table of the research graph.
func Edges() []flow.Edge {
	return []flow.Edge{
		{From: NodeDecide, On: flow.TokenSearch, To: NodeSearch},
		{From: NodeDecide, On: flow.TokenRAG, To: NodeEmbed},
		{From: NodeDecide, On: flow.TokenTool, To: NodeTool},
		{From: NodeDecide, On: flow.TokenAnswer, To: NodeAnswer},
		{From: NodeSearch, On: flow.TokenDecide, To: NodeDecide},
		{From: NodeTool, On: flow.TokenDecide, To: NodeDecide},
		{From: NodeEmbed, On: flow.TokenNext, To: NodeRetrieve},
		{From: NodeRetrieve, On: flow.TokenNext, To: NodeAnswer},
	}
}

type Deps struct {
	Policy           llm.LLMProvider
	Embedder         embedding.EmbeddingProvider
	Searcher         search.Searcher
	Retriever        DocumentRetriever
	Tools            ToolCaller
	Logger           logger.ILogger
	SearchMaxResults int
	TopK             int
	// CallTimeout bounds each policy and embedding call so a stalled
	// provider degrades one node instead of the whole run.
	CallTimeout time.Duration
}

type Graph = flow.Graph[*State]

// NewResearchGraph wires the six nodes. The answer node doubles as the
// fallback that closes a run cut short by the hop ceiling or a cancelled context.
func NewResearchGraph(deps Deps, maxHops int, observer flow.Observer) (*Graph, error) {
	tools := deps.Tools
	if tools == nil {
		tools = noTools{}
	}

	return flow.New(flow.Config[*State]{
		Start:    NodeDecide,
		Fallback: NodeAnswer,
		MaxHops:  maxHops,
		Observer: observer,
		Nodes: []flow.Node[*State]{
			flow.NewNode[*State, promptInput, Decision](NodeDecide, NewDecideNode(deps.Policy, tools, deps.CallTimeout, deps.Logger)),
			flow.NewNode[*State, string, []search.Result](NodeSearch, NewSearchNode(deps.Searcher, deps.SearchMaxResults)),
			flow.NewNode[*State, embedInput, []float32](NodeEmbed, NewEmbedNode(deps.Embedder, deps.CallTimeout, deps.Logger)),
			flow.NewNode[*State, []float32, []rag.Document](NodeRetrieve, NewRetrieveNode(deps.Retriever, deps.TopK, deps.Logger)),
			flow.NewNode[*State, *PendingTool, string](NodeTool, NewToolNode(tools)),
			flow.NewNode[*State, promptInput, string](NodeAnswer, NewAnswerNode(deps.Policy, deps.CallTimeout, deps.Logger)),
		},
		Edges: Edges(),
	})
}
