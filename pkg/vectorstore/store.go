package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyVector is returned when a record or query carries no vector.
var ErrEmptyVector = errors.New("vectorstore: empty vector")

// Record is one indexed item. Metadata values should be strings, numbers or bools.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Match is a query hit. Score is cosine similarity, higher is closer.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Filter is a conjunction of metadata equality predicates.
type Filter map[string]string

// Store is the vector index contract shared by every backend.
type Store interface {
	Upsert(ctx context.Context, records ...Record) error
	Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Delete(ctx context.Context, filter Filter) (int, error)
}

// Matches reports whether metadata satisfies every predicate in f.
func (f Filter) Matches(metadata map[string]any) bool {
	for key, want := range f {
		got, ok := metadata[key]
		if !ok || MetaString(got) != want {
			return false
		}
	}
	return true
}

// MetaString renders a metadata value for comparison and display.
func MetaString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON round trips turn integers into float64
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// RankMatches sorts by score descending, then id, and keeps the first topK.
func RankMatches(matches []Match, topK int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func validate(records []Record) error {
	for _, r := range records {
		if r.ID == "" {
			return errors.New("vectorstore: record without id")
		}
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: record %s", ErrEmptyVector, r.ID)
		}
	}
	return nil
}
