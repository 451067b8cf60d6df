package vectorstore

import (
	"context"
	"sync"

	"research-agent-be/pkg/embedding"
)

// MemoryStore keeps records in process. It backs local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Upsert(ctx context.Context, records ...Record) error {
	if err := validate(records); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = copyRecord(r)
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	for _, r := range s.records {
		if !filter.Matches(r.Metadata) {
			continue
		}
		matches = append(matches, Match{
			ID:       r.ID,
			Score:    embedding.CosineSimilarity(vector, r.Vector),
			Metadata: copyMetadata(r.Metadata),
		})
	}
	return RankMatches(matches, topK), nil
}

func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if filter.Matches(r.Metadata) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Delete(ctx context.Context, filter Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.records {
		if filter.Matches(r.Metadata) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func copyRecord(r Record) Record {
	vec := make([]float32, len(r.Vector))
	copy(vec, r.Vector)
	return Record{ID: r.ID, Vector: vec, Metadata: copyMetadata(r.Metadata)}
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
