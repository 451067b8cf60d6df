package implementation

import (
	"context"
	"fmt"
	"sort"

	"research-agent-be/internal/mapper"
	"research-agent-be/internal/model"
	"research-agent-be/internal/repository/contract"
	"research-agent-be/pkg/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VectorRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VectorRecordMapper
}

func NewVectorRecordRepository(db *gorm.DB) contract.VectorRecordRepository {
	return &VectorRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewVectorRecordMapper(),
	}
}

func (r *VectorRecordRepositoryImpl) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}
	return r.db.WithContext(ctx).AutoMigrate(&model.VectorRecord{})
}

// applyFilter routes the indexed keys to their columns and everything else to jsonb.
func (r *VectorRecordRepositoryImpl) applyFilter(db *gorm.DB, filter vectorstore.Filter) *gorm.DB {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch k {
		case "type":
			db = db.Where("vector_records.kind = ?", filter[k])
		case "session_id":
			db = db.Where("vector_records.session_id = ?", filter[k])
		default:
			db = db.Where(datatypes.JSONQuery("metadata").Equals(filter[k], k))
		}
	}
	return db
}

func (r *VectorRecordRepositoryImpl) Upsert(ctx context.Context, records ...vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*model.VectorRecord, 0, len(records))
	for _, rec := range records {
		if len(rec.Vector) == 0 {
			return fmt.Errorf("%w: record %s", vectorstore.ErrEmptyVector, rec.ID)
		}
		m, err := r.mapper.ToModel(rec)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "session_id", "metadata", "embedding_value", "updated_at"}),
		}).
		Create(&models).Error
}

// Query ranks by cosine similarity: 1 - (embedding_value <=> query).
func (r *VectorRecordRepositoryImpl) Query(ctx context.Context, vector []float32, filter vectorstore.Filter, topK int) ([]vectorstore.Match, error) {
	if len(vector) == 0 {
		return nil, vectorstore.ErrEmptyVector
	}
	if topK <= 0 {
		topK = 1
	}

	type result struct {
		model.VectorRecord
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)
	query := r.db.WithContext(ctx).
		Table("vector_records").
		Select("vector_records.*, 1 - (embedding_value <=> ?) as similarity", queryVector)
	query = r.applyFilter(query, filter)

	err := query.
		Order("similarity DESC").
		Order("vector_records.id ASC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(results))
	for i := range results {
		m, err := r.mapper.ToMatch(&results[i].VectorRecord, results[i].Similarity)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *VectorRecordRepositoryImpl) Count(ctx context.Context, filter vectorstore.Filter) (int, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.VectorRecord{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *VectorRecordRepositoryImpl) Delete(ctx context.Context, filter vectorstore.Filter) (int, error) {
	query := r.db.WithContext(ctx)
	if len(filter) == 0 {
		query = query.Where("1 = 1")
	}
	res := r.applyFilter(query, filter).Delete(&model.VectorRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
