package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Sentiment is the keyword-derived tone of a narrative or text.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Narrative is a detected recurring story: a cluster of content items that
// share entities. Narratives are created by detection runs and extended by
// later runs, never merged or split.
type Narrative struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Title          string          `gorm:"not null;index" json:"title"`
	Summary        string          `gorm:"type:text" json:"summary"`
	Sentiment      Sentiment       `gorm:"type:varchar(20);not null;default:neutral" json:"sentiment"`
	SharedEntities datatypes.JSON  `gorm:"type:jsonb" json:"shared_entities"`
	KeyTerms       pq.StringArray  `gorm:"type:text[]" json:"key_terms"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Links          []NarrativeLink `gorm:"foreignKey:NarrativeID" json:"links,omitempty"`
}

// TableName specifies the table name for the Narrative model.
func (Narrative) TableName() string {
	return "narratives"
}

// NarrativeLink joins a narrative to one of its content items.
// Unique per (narrative_id, content_item_id).
type NarrativeLink struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	NarrativeID   uint      `gorm:"not null;uniqueIndex:idx_narrative_item" json:"narrative_id"`
	ContentItemID uint      `gorm:"not null;uniqueIndex:idx_narrative_item" json:"content_item_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the NarrativeLink model.
func (NarrativeLink) TableName() string {
	return "narrative_links"
}
