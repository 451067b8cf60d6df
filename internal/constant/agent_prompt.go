package constant

const (
	// DecisionPrompt args: question, conversation, recalled exchange, search
	// context, rag results, tool catalog, tool action line.
	DecisionPrompt = `
You orchestrate tools for a research agent.

QUESTION: %s

RECENT CONVERSATION:
%s

RELEVANT PAST EXCHANGE:
%s

SEARCH CONTEXT:
%s

RAG RESULTS:
%s

AVAILABLE TOOLS:
%s

Decide the next action.
Return JSON with keys:
- action: search | rag | tool | answer
- reason: short text
- search_query: string (required if action == "search")
- answer: string (required if action == "answer")
%s`

	DecisionToolKeys = `- tool_name: string (required if action == "tool", one of AVAILABLE TOOLS)
- tool_args: object (arguments for the tool)
`

	// AnswerPrompt args: question, conversation, recalled exchange, search context, retrieved documents.
	AnswerPrompt = `
Answer the user's question using the research context and retrieved documents.
If uncertain, say so.

Question: %s

Recent Conversation:
%s

Relevant Past Exchange:
%s

Search Context:
%s

Retrieved Documents:
%s

Provide a concise answer and cite sources inline using (Source).
`

	EmptySection = "none"

	RoutingFailureAnswer = "I ran into an internal routing problem and could not finish researching this question."
)
