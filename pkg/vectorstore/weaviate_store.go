package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	propRecordID = "record_id"
	propMetadata = "metadata_json"
)

// WeaviateStore keeps every record in one class. String metadata is promoted to
// top-level properties so filters can run server-side; the full metadata is kept
// as JSON alongside.
type WeaviateStore struct {
	client    *weaviate.Client
	className string
}

var _ Store = (*WeaviateStore)(nil)

func NewWeaviateStore(rawURL, className string) (*WeaviateStore, error) {
	cfg := weaviate.Config{Host: rawURL, Scheme: "http"}
	switch {
	case strings.HasPrefix(rawURL, "https://"):
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(rawURL, "https://")
	case strings.HasPrefix(rawURL, "http://"):
		cfg.Host = strings.TrimPrefix(rawURL, "http://")
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &WeaviateStore{client: client, className: className}, nil
}

// objectID maps an arbitrary record id onto the UUID space Weaviate requires.
func objectID(id string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String())
}

func (s *WeaviateStore) Upsert(ctx context.Context, records ...Record) error {
	if err := validate(records); err != nil {
		return err
	}

	objects := make([]*models.Object, 0, len(records))
	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		props := map[string]interface{}{
			propRecordID: r.ID,
			propMetadata: string(meta),
		}
		for k, v := range r.Metadata {
			if sv, ok := v.(string); ok {
				props[k] = sv
			}
		}
		objects = append(objects, &models.Object{
			Class:      s.className,
			ID:         objectID(r.ID),
			Vector:     r.Vector,
			Properties: props,
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate batch import: %w", err)
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			return fmt.Errorf("weaviate batch item %s: %s", item.ID, item.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

type weaviateHit struct {
	RecordID     string `json:"record_id"`
	MetadataJSON string `json:"metadata_json"`
	Additional   struct {
		Distance float64 `json:"distance"`
	} `json:"_additional"`
}

func (s *WeaviateStore) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if topK <= 0 {
		topK = 1
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	query := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(
			graphql.Field{Name: propRecordID},
			graphql.Field{Name: propMetadata},
			graphql.Field{Name: "_additional { distance }"},
		).
		WithNearVector(nearVector).
		WithLimit(topK)
	if where := whereFilter(filter); where != nil {
		query = query.WithWhere(where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search: %s", result.Errors[0].Message)
	}

	raw, err := json.Marshal(result.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal weaviate response: %w", err)
	}
	var parsed struct {
		Get map[string][]weaviateHit `json:"Get"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse weaviate response: %w", err)
	}

	hits := parsed.Get[s.className]
	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		metadata := map[string]any{}
		if h.MetadataJSON != "" {
			if err := json.Unmarshal([]byte(h.MetadataJSON), &metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", h.RecordID, err)
			}
		}
		matches = append(matches, Match{
			ID:       h.RecordID,
			Score:    1 - h.Additional.Distance,
			Metadata: metadata,
		})
	}
	return RankMatches(matches, topK), nil
}

func (s *WeaviateStore) Count(ctx context.Context, filter Filter) (int, error) {
	agg := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}})
	if where := whereFilter(filter); where != nil {
		agg = agg.WithWhere(where)
	}

	result, err := agg.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("weaviate aggregate: %w", err)
	}
	if len(result.Errors) > 0 {
		return 0, fmt.Errorf("weaviate aggregate: %s", result.Errors[0].Message)
	}

	raw, err := json.Marshal(result.Data)
	if err != nil {
		return 0, err
	}
	var parsed struct {
		Aggregate map[string][]struct {
			Meta struct {
				Count int `json:"count"`
			} `json:"meta"`
		} `json:"Aggregate"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("parse weaviate aggregate: %w", err)
	}
	groups := parsed.Aggregate[s.className]
	if len(groups) == 0 {
		return 0, nil
	}
	return groups[0].Meta.Count, nil
}

func (s *WeaviateStore) Delete(ctx context.Context, filter Filter) (int, error) {
	where := whereFilter(filter)
	if where == nil {
		where = filters.Where().
			WithPath([]string{propRecordID}).
			WithOperator(filters.Like).
			WithValueText("*")
	}

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.className).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("weaviate batch delete: %w", err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	return int(resp.Results.Successful), nil
}

func whereFilter(filter Filter) *filters.WhereBuilder {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	operands := make([]*filters.WhereBuilder, 0, len(keys))
	for _, k := range keys {
		operands = append(operands, filters.Where().
			WithPath([]string{k}).
			WithOperator(filters.Equal).
			WithValueString(filter[k]))
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}
