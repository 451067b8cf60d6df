package contract

import (
	"context"

	"research-agent-be/pkg/vectorstore"
)

// VectorRecordRepository is the Postgres + pgvector backend of vectorstore.Store.
type VectorRecordRepository interface {
	vectorstore.Store
	// Migrate enables the vector extension and creates the table.
	Migrate(ctx context.Context) error
}
