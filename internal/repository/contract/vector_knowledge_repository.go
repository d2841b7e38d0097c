package contract

import (
	"context"

	"opinions-migrate/internal/model"
)

// VectorSearchResult pairs a stored chunk with its similarity to the query
// embedding (1 at identical, approaching 0 with distance).
type VectorSearchResult struct {
	model.VectorizedKnowledge
	Similarity float64
}

type VectorKnowledgeRepository interface {
	UpsertChunks(ctx context.Context, chunks []*model.VectorizedKnowledge) error
	DeleteBySource(ctx context.Context, source string) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int, sources []string) ([]*VectorSearchResult, error)
	Count(ctx context.Context) (int64, error)
}
