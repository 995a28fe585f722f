package dto

import (
	"time"

	"golang-narrative-engine/internal/entity"
)

// ItemFailure records one item that failed inside a batch operation.
type ItemFailure struct {
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult is the structured outcome of a per-item batch operation.
// Failures are collected, never fatal to the batch.
type BatchResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    []ItemFailure `json:"failed"`
}

// DetectionResult summarizes one detection run.
type DetectionResult struct {
	ItemsInWindow int           `json:"items_in_window"`
	Candidates    int           `json:"candidates"`
	Created       int           `json:"created"`
	Extended      int           `json:"extended"`
	Reclassified  int           `json:"reclassified"`
	Failed        []ItemFailure `json:"failed"`
}

// MetricResult is the outcome of a single metric calculation.
type MetricResult struct {
	MentionCount int     `json:"mention_count"`
	Velocity     float64 `json:"velocity"`
}

// MetricFailure records one (narrative, period) pair that failed in a
// metrics batch run.
type MetricFailure struct {
	NarrativeID uint                `json:"narrative_id"`
	Period      entity.MetricPeriod `json:"period"`
	Reason      string              `json:"reason"`
}

// MetricsBatchResult is the structured outcome of an update-all metrics run.
type MetricsBatchResult struct {
	Calculated int             `json:"calculated"`
	Stored     int             `json:"stored"`
	Failed     []MetricFailure `json:"failed"`
}

// IngestedContentItem is the wire shape published by the ingestion service
// and consumed by the pipeline.
type IngestedContentItem struct {
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	SourceKind  string    `json:"source_kind"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
}

// NarrativeDetectedEvent is published after a detection run for each newly
// created narrative.
type NarrativeDetectedEvent struct {
	NarrativeID uint             `json:"narrative_id"`
	Title       string           `json:"title"`
	Sentiment   entity.Sentiment `json:"sentiment"`
	ItemCount   int              `json:"item_count"`
	DetectedAt  time.Time        `json:"detected_at"`
}
