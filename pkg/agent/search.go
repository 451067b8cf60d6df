package agent

import (
	"context"
	"fmt"
	"strings"

	"research-agent-be/pkg/flow"
	"research-agent-be/pkg/search"
)

type SearchNode struct {
	searcher   search.Searcher
	maxResults int
}

func NewSearchNode(searcher search.Searcher, maxResults int) *SearchNode {
	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}
	return &SearchNode{searcher: searcher, maxResults: maxResults}
}

func (n *SearchNode) Tokens() []flow.Token {
	return []flow.Token{flow.TokenDecide}
}

func (n *SearchNode) Prepare(s *State) string {
	if strings.TrimSpace(s.SearchQuery) != "" {
		return s.SearchQuery
	}
	return s.Question
}

func (n *SearchNode) Execute(ctx context.Context, query string) ([]search.Result, error) {
	return n.searcher.Search(ctx, query, n.maxResults), nil
}

func (n *SearchNode) Finalize(s *State, _ string, results []search.Result, _ error) flow.Token {
	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, fmt.Sprintf("%s - %s\n%s", r.Title, r.Href, r.Body))
	}
	s.AppendContext(strings.Join(snippets, "\n\n"))
	s.SearchHistory = append(s.SearchHistory, results)
	s.Metrics.SearchCount++
	return flow.TokenDecide
}
