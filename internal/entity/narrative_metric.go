package entity

import (
	"time"
)

// MetricPeriod names one of the two comparable metric window sizes.
type MetricPeriod string

const (
	MetricPeriodShort MetricPeriod = "1h"
	MetricPeriodLong  MetricPeriod = "24h"
)

// NarrativeMetric is a point-in-time snapshot of mention count and velocity
// for one narrative over one period. Rows are append-only; the retention
// cleanup job is the only delete path.
type NarrativeMetric struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	NarrativeID  uint         `gorm:"not null;index" json:"narrative_id"`
	Period       MetricPeriod `gorm:"type:varchar(10);not null" json:"period"`
	MentionCount int          `gorm:"not null" json:"mention_count"`
	Velocity     float64      `gorm:"not null" json:"velocity"`
	CalculatedAt time.Time    `gorm:"not null;index" json:"calculated_at"`
}

// TableName specifies the table name for the NarrativeMetric model.
func (NarrativeMetric) TableName() string {
	return "narrative_metrics"
}
