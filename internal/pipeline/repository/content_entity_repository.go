package repository

import (
	"context"

	"golang-narrative-engine/internal/entity"

	"gorm.io/gorm"
)

// ContentEntityRepository defines the interface for interacting with extracted entity data.
type ContentEntityRepository interface {
	ReplaceForItem(ctx context.Context, itemID uint, entities []entity.ContentEntity) error
	FindByItemIDs(ctx context.Context, itemIDs []uint) ([]entity.ContentEntity, error)
}

// NewContentEntityRepository creates a new instance of ContentEntityRepository.
func NewContentEntityRepository(db *gorm.DB) ContentEntityRepository {
	return &contentEntityRepository{db: db}
}

type contentEntityRepository struct {
	db *gorm.DB
}

// ReplaceForItem deletes all stored entities for the item and inserts the
// given set in one transaction, so re-extraction is idempotent.
func (r *contentEntityRepository) ReplaceForItem(ctx context.Context, itemID uint, entities []entity.ContentEntity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_item_id = ?", itemID).Delete(&entity.ContentEntity{}).Error; err != nil {
			return err
		}
		if len(entities) == 0 {
			return nil
		}
		for i := range entities {
			entities[i].ID = 0
			entities[i].ContentItemID = itemID
		}
		return tx.Create(&entities).Error
	})
}

func (r *contentEntityRepository) FindByItemIDs(ctx context.Context, itemIDs []uint) ([]entity.ContentEntity, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var entities []entity.ContentEntity
	err := r.db.WithContext(ctx).Where("content_item_id IN ?", itemIDs).Find(&entities).Error
	return entities, err
}
