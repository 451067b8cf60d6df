package mapper

import (
	"encoding/json"
	"fmt"

	"research-agent-be/internal/model"
	"research-agent-be/pkg/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type VectorRecordMapper struct{}

func NewVectorRecordMapper() *VectorRecordMapper {
	return &VectorRecordMapper{}
}

func (m *VectorRecordMapper) ToModel(r vectorstore.Record) (*model.VectorRecord, error) {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
	}
	return &model.VectorRecord{
		Id:             r.ID,
		Kind:           vectorstore.MetaString(r.Metadata["type"]),
		SessionId:      vectorstore.MetaString(r.Metadata["session_id"]),
		Metadata:       datatypes.JSON(meta),
		EmbeddingValue: pgvector.NewVector(r.Vector),
	}, nil
}

func (m *VectorRecordMapper) ToMatch(e *model.VectorRecord, score float64) (vectorstore.Match, error) {
	metadata := map[string]any{}
	if len(e.Metadata) > 0 {
		if err := json.Unmarshal(e.Metadata, &metadata); err != nil {
			return vectorstore.Match{}, fmt.Errorf("decode metadata for %s: %w", e.Id, err)
		}
	}
	return vectorstore.Match{ID: e.Id, Score: score, Metadata: metadata}, nil
}
