package dto

import (
	"time"

	"golang-narrative-engine/internal/entity"
)

// ExtractedEntity is one typed mention produced by the entity extractor,
// before persistence.
type ExtractedEntity struct {
	Text string            `json:"text"`
	Type entity.EntityType `json:"type"`
}

// AnalyzedItem is a content item together with its extracted entities,
// the unit of input to narrative detection.
type AnalyzedItem struct {
	ItemID      uint              `json:"item_id"`
	PublishedAt time.Time         `json:"published_at"`
	Entities    []ExtractedEntity `json:"entities"`
}

// NarrativeCandidate is one cluster produced by a detection run, prior to
// the merge-or-create decision against persisted narratives.
type NarrativeCandidate struct {
	Title          string            `json:"title"`
	Summary        string            `json:"summary"`
	LinkedItemIDs  []uint            `json:"linked_item_ids"`
	SharedEntities []ExtractedEntity `json:"shared_entities"`
	KeyTerms       []string          `json:"key_terms"`
}

// SentimentExplanation carries the literal matched terms behind a
// classification, for debugging.
type SentimentExplanation struct {
	Sentiment      entity.Sentiment `json:"sentiment"`
	BullishMatches []string         `json:"bullish_matches"`
	BearishMatches []string         `json:"bearish_matches"`
}
