package implementation

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"opinions-migrate/internal/model"
	"opinions-migrate/internal/repository/contract"
)

type VectorKnowledgeRepositoryImpl struct {
	db *gorm.DB
}

func NewVectorKnowledgeRepository(db *gorm.DB) contract.VectorKnowledgeRepository {
	return &VectorKnowledgeRepositoryImpl{db: db}
}

func (r *VectorKnowledgeRepositoryImpl) UpsertChunks(ctx context.Context, chunks []*model.VectorizedKnowledge) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "embedding"}),
	}).Create(&chunks).Error
}

func (r *VectorKnowledgeRepositoryImpl) DeleteBySource(ctx context.Context, source string) error {
	return r.db.WithContext(ctx).
		Where("source = ?", source).
		Delete(&model.VectorizedKnowledge{}).Error
}

func (r *VectorKnowledgeRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, sources []string) ([]*contract.VectorSearchResult, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	vec := pgvector.NewVector(embedding)
	query := r.db.WithContext(ctx).
		Model(&model.VectorizedKnowledge{}).
		Select("*, 1.0 / (1.0 + (embedding <-> ?)) AS similarity", vec).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
		}).
		Limit(limit)
	if len(sources) > 0 {
		query = query.Where("source IN ?", sources)
	}

	var results []*contract.VectorSearchResult
	if err := query.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *VectorKnowledgeRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.VectorizedKnowledge{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
