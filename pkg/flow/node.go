package flow

import "context"

// Name identifies a node inside a graph.
type Name string

// State is the shared execution context of a single run.
// The graph only asks whether the run has produced its result.
type State interface {
	Done() bool
}

// Unit is the three-phase contract every node implements.
//
// Prepare reads what the unit needs from the state and must not mutate it.
// Execute does the work and is the only phase allowed to block or call out.
// Finalize writes the outcome back into the state and returns the next token.
// Finalize also receives the Execute error so a unit can degrade instead of failing the run.
type Unit[S any, In any, Out any] interface {
	Prepare(state S) In
	Execute(ctx context.Context, in In) (Out, error)
	Finalize(state S, in In, out Out, err error) Token
	// Tokens lists every token Finalize may return.
	Tokens() []Token
}

// Node is a Unit bound to a name, with its phase types erased so that
// heterogeneous units can share one graph.
type Node[S any] struct {
	name   Name
	tokens []Token
	run    func(ctx context.Context, state S) Token
}

func NewNode[S any, In any, Out any](name Name, unit Unit[S, In, Out]) Node[S] {
	return Node[S]{
		name:   name,
		tokens: unit.Tokens(),
		run: func(ctx context.Context, state S) Token {
			in := unit.Prepare(state)
			out, err := unit.Execute(ctx, in)
			return unit.Finalize(state, in, out, err)
		},
	}
}

func (n Node[S]) Name() Name {
	return n.name
}

func (n Node[S]) Tokens() []Token {
	return n.tokens
}

// Run executes the three phases in order and returns the routing token.
func (n Node[S]) Run(ctx context.Context, state S) Token {
	return n.run(ctx, state)
}
