package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"opinions-migrate/internal/model"
	"opinions-migrate/internal/repository/contract"
)

type SavedSessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSavedSessionRepository(db *gorm.DB) contract.SavedSessionRepository {
	return &SavedSessionRepositoryImpl{db: db}
}

func (r *SavedSessionRepositoryImpl) FindById(ctx context.Context, sessionId string) (*model.SavedSession, error) {
	var m model.SavedSession
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *SavedSessionRepositoryImpl) FindAll(ctx context.Context) ([]*model.SavedSession, error) {
	var models []*model.SavedSession
	if err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func (r *SavedSessionRepositoryImpl) FindRevisions(ctx context.Context, sessionId string) ([]*model.SessionRevision, error) {
	var models []*model.SessionRevision
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("sequence ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}

func (r *SavedSessionRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.SavedSession{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SavedSessionRepositoryImpl) CountRevisions(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.SessionRevision{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
