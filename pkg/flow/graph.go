package flow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxHops bounds a run when the config does not set a ceiling.
const DefaultMaxHops = 25

var (
	// ErrInvalidGraph is returned by New when the node set or edge table is inconsistent.
	ErrInvalidGraph = errors.New("flow: invalid graph")
	// ErrNoRoute is returned by Run when a node emits a token with no edge.
	ErrNoRoute = errors.New("flow: no route for token")
)

// Edge routes token On emitted by node From to node To.
type Edge struct {
	From Name
	On   Token
	To   Name
}

// Observer receives one call per executed node.
type Observer interface {
	ObserveNode(node Name, token Token, elapsed time.Duration)
}

type Config[S State] struct {
	Start Name
	// Fallback runs once when the hop ceiling is reached or the run context ends.
	Fallback Name
	MaxHops  int
	Nodes    []Node[S]
	Edges    []Edge
	Observer Observer
}

// Result describes how a run went. The run output itself lives in the state.
type Result struct {
	Hops   int
	Path   []Name
	Forced bool
}

// Graph is an immutable action-dispatch engine. One Graph is safe to share
// between concurrent runs as long as every run owns its own state.
type Graph[S State] struct {
	start    Name
	fallback Name
	maxHops  int
	nodes    map[Name]Node[S]
	edges    map[Name]map[Token]Name
	observer Observer
}

// New validates the configuration and builds the graph.
// Every token a node declares, except TokenEnd, must have exactly one edge.
func New[S State](cfg Config[S]) (*Graph[S], error) {
	g := &Graph[S]{
		start:    cfg.Start,
		fallback: cfg.Fallback,
		maxHops:  cfg.MaxHops,
		nodes:    make(map[Name]Node[S], len(cfg.Nodes)),
		edges:    make(map[Name]map[Token]Name, len(cfg.Nodes)),
		observer: cfg.Observer,
	}
	if g.maxHops <= 0 {
		g.maxHops = DefaultMaxHops
	}

	for _, n := range cfg.Nodes {
		if n.name == "" || n.run == nil {
			return nil, fmt.Errorf("%w: unnamed or empty node", ErrInvalidGraph)
		}
		if _, dup := g.nodes[n.name]; dup {
			return nil, fmt.Errorf("%w: duplicate node %q", ErrInvalidGraph, n.name)
		}
		for _, t := range n.tokens {
			if !t.Valid() {
				return nil, fmt.Errorf("%w: node %q declares invalid token %d", ErrInvalidGraph, n.name, t)
			}
		}
		g.nodes[n.name] = n
	}

	if _, ok := g.nodes[g.start]; !ok {
		return nil, fmt.Errorf("%w: start node %q not registered", ErrInvalidGraph, g.start)
	}
	if _, ok := g.nodes[g.fallback]; !ok {
		return nil, fmt.Errorf("%w: fallback node %q not registered", ErrInvalidGraph, g.fallback)
	}

	for _, e := range cfg.Edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge from unknown node %q", ErrInvalidGraph, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, fmt.Errorf("%w: edge to unknown node %q", ErrInvalidGraph, e.To)
		}
		if !e.On.Valid() || e.On == TokenEnd {
			return nil, fmt.Errorf("%w: edge %s -> %s uses token %s", ErrInvalidGraph, e.From, e.To, e.On)
		}
		if g.edges[e.From] == nil {
			g.edges[e.From] = make(map[Token]Name)
		}
		if _, dup := g.edges[e.From][e.On]; dup {
			return nil, fmt.Errorf("%w: duplicate edge %s --%s-->", ErrInvalidGraph, e.From, e.On)
		}
		g.edges[e.From][e.On] = e.To
	}

	for name, n := range g.nodes {
		for _, t := range n.tokens {
			if t == TokenEnd {
				continue
			}
			if _, ok := g.edges[name][t]; !ok {
				return nil, fmt.Errorf("%w: node %q emits %s but has no edge for it", ErrInvalidGraph, name, t)
			}
		}
	}

	return g, nil
}

func (g *Graph[S]) MaxHops() int {
	return g.maxHops
}

// Run drives the state from the start node until the state is done, a node
// returns TokenEnd, or the hop ceiling is reached. On the ceiling, or when ctx
// ends, the fallback node runs once so the state still gets a result.
func (g *Graph[S]) Run(ctx context.Context, state S) (Result, error) {
	var res Result
	current := g.start

	for !state.Done() {
		if res.Hops >= g.maxHops || ctx.Err() != nil {
			g.step(ctx, g.fallback, state, &res)
			res.Forced = true
			return res, nil
		}

		token := g.step(ctx, current, state, &res)
		if token == TokenEnd {
			return res, nil
		}

		next, ok := g.edges[current][token]
		if !ok {
			return res, fmt.Errorf("%w: %s from node %q", ErrNoRoute, token, current)
		}
		current = next
	}

	return res, nil
}

func (g *Graph[S]) step(ctx context.Context, name Name, state S, res *Result) Token {
	started := time.Now()
	token := g.nodes[name].Run(ctx, state)
	if g.observer != nil {
		g.observer.ObserveNode(name, token, time.Since(started))
	}
	res.Hops++
	res.Path = append(res.Path, name)
	return token
}
