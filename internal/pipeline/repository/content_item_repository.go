package repository

import (
	"context"
	"time"

	"golang-narrative-engine/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentItemRepository defines the interface for interacting with content item data.
type ContentItemRepository interface {
	CreateIgnoreConflict(ctx context.Context, item *entity.ContentItem) (bool, error)
	FindPublishedSince(ctx context.Context, cutoff time.Time) ([]entity.ContentItem, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entity.ContentItem, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.ContentItem, error)
}

// NewContentItemRepository creates a new instance of ContentItemRepository.
func NewContentItemRepository(db *gorm.DB) ContentItemRepository {
	return &contentItemRepository{db: db}
}

type contentItemRepository struct {
	db *gorm.DB
}

// CreateIgnoreConflict inserts the item unless one with the same external id
// already exists. Returns true when a new row was created.
func (r *contentItemRepository) CreateIgnoreConflict(ctx context.Context, item *entity.ContentItem) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(item)
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		// Row already existed; resolve the id so callers can still reference it.
		var existing entity.ContentItem
		if err := r.db.WithContext(ctx).Where("external_id = ?", item.ExternalID).First(&existing).Error; err != nil {
			return false, err
		}
		item.ID = existing.ID
		return false, nil
	}
	return true, nil
}

func (r *contentItemRepository) FindPublishedSince(ctx context.Context, cutoff time.Time) ([]entity.ContentItem, error) {
	var items []entity.ContentItem
	err := r.db.WithContext(ctx).
		Where("published_at >= ?", cutoff).
		Order("published_at DESC").
		Find(&items).Error
	return items, err
}

func (r *contentItemRepository) FindByIDs(ctx context.Context, ids []uint) ([]entity.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []entity.ContentItem
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *contentItemRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.ContentItem, error) {
	var item entity.ContentItem
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
