package repository

import (
	"context"
	"time"

	"golang-narrative-engine/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NarrativeRepository defines the interface for interacting with narrative data.
type NarrativeRepository interface {
	Create(ctx context.Context, narrative *entity.Narrative) error
	FindOpenWithLinks(ctx context.Context, updatedSince time.Time) ([]entity.Narrative, error)
	FindAllIDs(ctx context.Context) ([]uint, error)
	AddLinks(ctx context.Context, narrativeID uint, itemIDs []uint) (int64, error)
	UpdateSentiment(ctx context.Context, narrativeID uint, sentiment entity.Sentiment) error
	LinkedItems(ctx context.Context, narrativeID uint) ([]entity.ContentItem, error)
	LinkedItemTimes(ctx context.Context, narrativeID uint) ([]time.Time, error)
}

// NewNarrativeRepository creates a new instance of NarrativeRepository.
func NewNarrativeRepository(db *gorm.DB) NarrativeRepository {
	return &narrativeRepository{db: db}
}

type narrativeRepository struct {
	db *gorm.DB
}

// Create saves a new narrative together with its links in one transaction.
func (r *narrativeRepository) Create(ctx context.Context, narrative *entity.Narrative) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		links := narrative.Links
		narrative.Links = nil
		if err := tx.Create(narrative).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		for i := range links {
			links[i].NarrativeID = narrative.ID
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "narrative_id"}, {Name: "content_item_id"}},
			DoNothing: true,
		}).Create(&links).Error; err != nil {
			return err
		}
		narrative.Links = links
		return nil
	})
}

// FindOpenWithLinks returns narratives updated since the given time, with
// their links preloaded. These are the merge candidates for a detection run.
func (r *narrativeRepository) FindOpenWithLinks(ctx context.Context, updatedSince time.Time) ([]entity.Narrative, error) {
	var narratives []entity.Narrative
	err := r.db.WithContext(ctx).
		Preload("Links").
		Where("updated_at >= ?", updatedSince).
		Order("id ASC").
		Find(&narratives).Error
	return narratives, err
}

func (r *narrativeRepository) FindAllIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.Narrative{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// AddLinks inserts links for the given item ids, ignoring ones that already
// exist. Returns the number of links actually added and bumps updated_at on
// the narrative when the link set grew.
func (r *narrativeRepository) AddLinks(ctx context.Context, narrativeID uint, itemIDs []uint) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	links := make([]entity.NarrativeLink, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		links = append(links, entity.NarrativeLink{NarrativeID: narrativeID, ContentItemID: itemID})
	}

	var added int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "narrative_id"}, {Name: "content_item_id"}},
			DoNothing: true,
		}).Create(&links)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected
		if added > 0 {
			return tx.Model(&entity.Narrative{}).Where("id = ?", narrativeID).
				Update("updated_at", time.Now()).Error
		}
		return nil
	})
	return added, err
}

func (r *narrativeRepository) UpdateSentiment(ctx context.Context, narrativeID uint, sentiment entity.Sentiment) error {
	return r.db.WithContext(ctx).Model(&entity.Narrative{}).
		Where("id = ?", narrativeID).
		Update("sentiment", sentiment).Error
}

// LinkedItems returns the content items linked to the narrative.
func (r *narrativeRepository) LinkedItems(ctx context.Context, narrativeID uint) ([]entity.ContentItem, error) {
	var items []entity.ContentItem
	err := r.db.WithContext(ctx).
		Joins("JOIN narrative_links nl ON nl.content_item_id = content_items.id").
		Where("nl.narrative_id = ?", narrativeID).
		Order("content_items.published_at ASC").
		Find(&items).Error
	return items, err
}

// LinkedItemTimes returns only the published timestamps of linked items,
// which is all the metrics calculator needs.
func (r *narrativeRepository) LinkedItemTimes(ctx context.Context, narrativeID uint) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&entity.ContentItem{}).
		Joins("JOIN narrative_links nl ON nl.content_item_id = content_items.id").
		Where("nl.narrative_id = ?", narrativeID).
		Pluck("content_items.published_at", &times).Error
	return times, err
}
