package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// VectorRecord stores both conversation memories and document chunks.
// Kind and SessionId mirror the "type" and "session_id" metadata keys so the
// common filters hit a btree index instead of the jsonb column.
type VectorRecord struct {
	Id             string          `gorm:"type:text;primaryKey"`
	Kind           string          `gorm:"type:varchar(64);index"`
	SessionId      string          `gorm:"type:varchar(255);index"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"` // dimension follows the embedding model
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (VectorRecord) TableName() string {
	return "vector_records"
}
