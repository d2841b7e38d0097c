package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"opinions-migrate/internal/model"
	"opinions-migrate/internal/repository/contract"
)

type KnowledgeResourceRepositoryImpl struct {
	db *gorm.DB
}

func NewKnowledgeResourceRepository(db *gorm.DB) contract.KnowledgeResourceRepository {
	return &KnowledgeResourceRepositoryImpl{db: db}
}

func (r *KnowledgeResourceRepositoryImpl) FindByName(ctx context.Context, name string) (*model.KnowledgeResource, error) {
	var m model.KnowledgeResource
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *KnowledgeResourceRepositoryImpl) FindAll(ctx context.Context) ([]*model.KnowledgeResource, error) {
	var models []*model.KnowledgeResource
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func (r *KnowledgeResourceRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.KnowledgeResource{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
