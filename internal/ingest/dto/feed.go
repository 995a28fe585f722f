package dto

// FeedResult summarizes one feed fetch inside an ingestion run.
type FeedResult struct {
	Source    string   `json:"source"`
	Status    string   `json:"status"`
	Published int      `json:"published"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// Feed fetch statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)
