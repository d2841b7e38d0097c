package contract

import (
	"context"

	"opinions-migrate/internal/model"
)

type SavedSessionRepository interface {
	FindById(ctx context.Context, sessionId string) (*model.SavedSession, error)
	FindAll(ctx context.Context) ([]*model.SavedSession, error)
	FindRevisions(ctx context.Context, sessionId string) ([]*model.SessionRevision, error) // ordered by sequence
	Count(ctx context.Context) (int64, error)
	CountRevisions(ctx context.Context) (int64, error)
}
