package contract

import (
	"context"

	"opinions-migrate/internal/model"
)

type KnowledgeResourceRepository interface {
	FindByName(ctx context.Context, name string) (*model.KnowledgeResource, error)
	FindAll(ctx context.Context) ([]*model.KnowledgeResource, error)
	Count(ctx context.Context) (int64, error)
}
