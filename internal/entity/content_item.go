package entity

import (
	"time"
)

// SourceKind identifies the shape of an ingested content item.
type SourceKind string

const (
	SourceKindArticle    SourceKind = "article"
	SourceKindSocialPost SourceKind = "social_post"
)

// ContentItem is one article or post to be analyzed. Items are created by
// the ingestion boundary and are read-only to the pipeline.
type ContentItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ExternalID  string          `gorm:"unique;not null" json:"external_id"`
	Title       string          `gorm:"not null" json:"title"`
	Body        string          `gorm:"type:text" json:"body"`
	PublishedAt time.Time       `gorm:"not null;index" json:"published_at"`
	SourceKind  SourceKind      `gorm:"type:varchar(20);not null" json:"source_kind"`
	Source      string          `json:"source"`
	Author      string          `json:"author,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	Entities    []ContentEntity `gorm:"foreignKey:ContentItemID" json:"entities,omitempty"`
}

// TableName specifies the table name for the ContentItem model.
func (ContentItem) TableName() string {
	return "content_items"
}
