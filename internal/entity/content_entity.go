package entity

import (
	"time"
)

// EntityType classifies an extracted mention.
type EntityType string

const (
	EntityTypeTicker       EntityType = "ticker"
	EntityTypePerson       EntityType = "person"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeKeyword      EntityType = "keyword"
)

// ContentEntity is a typed mention extracted from one content item.
// Re-extraction replaces all rows for the item, so rows are never mutated.
type ContentEntity struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ContentItemID uint       `gorm:"not null;index" json:"content_item_id"`
	Text          string     `gorm:"not null" json:"text"`
	Type          EntityType `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the ContentEntity model.
func (ContentEntity) TableName() string {
	return "content_entities"
}
