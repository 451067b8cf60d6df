package flow

// Token is the routing value a node returns from Finalize.
// The set is closed: the graph rejects any token outside it at construction time.
type Token uint8

const (
	TokenInvalid Token = iota
	TokenSearch
	TokenRAG
	TokenTool
	TokenAnswer
	TokenDecide
	TokenNext
	// TokenEnd stops the run. It never has an outgoing edge.
	TokenEnd
)

var tokenNames = map[Token]string{
	TokenSearch: "search",
	TokenRAG:    "rag",
	TokenTool:   "tool",
	TokenAnswer: "answer",
	TokenDecide: "decide",
	TokenNext:   "next",
	TokenEnd:    "end",
}

func (t Token) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "invalid"
}

// Valid reports whether t is one of the declared tokens.
func (t Token) Valid() bool {
	_, ok := tokenNames[t]
	return ok
}

// ParseToken maps a token name back to its value.
func ParseToken(name string) (Token, bool) {
	for t, n := range tokenNames {
		if n == name {
			return t, true
		}
	}
	return TokenInvalid, false
}
