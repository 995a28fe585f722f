package dto

import (
	"encoding/json"
	"time"
)

// ListNarrativesRequest carries the query parameters of the list endpoint.
type ListNarrativesRequest struct {
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
	Sentiment string `query:"sentiment"`
	SortBy    string `query:"sort_by"`
}

// Sort orders accepted by the list endpoint.
const (
	SortByRecency  = "recency"
	SortByVelocity = "velocity"
)

// MetricResponse is the latest metric snapshot for one period.
type MetricResponse struct {
	Period       string    `json:"period"`
	MentionCount int       `json:"mention_count"`
	Velocity     float64   `json:"velocity"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// NarrativeResponse is one narrative in a list response.
type NarrativeResponse struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Summary        string           `json:"summary"`
	Sentiment      string           `json:"sentiment"`
	SharedEntities json.RawMessage  `json:"shared_entities,omitempty"`
	KeyTerms       []string         `json:"key_terms"`
	ItemCount      int              `json:"item_count"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Metrics        []MetricResponse `json:"metrics,omitempty"`
}

// ListNarrativesResponse is the paginated list envelope.
type ListNarrativesResponse struct {
	Narratives []NarrativeResponse `json:"narratives"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	Total      int64               `json:"total"`
}

// ContentItemResponse is one linked item in a narrative detail response.
type ContentItemResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	SourceKind  string    `json:"source_kind"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// NarrativeDetailResponse is one narrative with its linked items and latest
// metrics per period.
type NarrativeDetailResponse struct {
	NarrativeResponse
	Items []ContentItemResponse `json:"items"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
