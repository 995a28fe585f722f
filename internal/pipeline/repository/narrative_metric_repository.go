package repository

import (
	"context"
	"time"

	"golang-narrative-engine/internal/entity"

	"gorm.io/gorm"
)

// NarrativeMetricRepository defines the interface for interacting with metric snapshots.
type NarrativeMetricRepository interface {
	Append(ctx context.Context, metric *entity.NarrativeMetric) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewNarrativeMetricRepository creates a new instance of NarrativeMetricRepository.
func NewNarrativeMetricRepository(db *gorm.DB) NarrativeMetricRepository {
	return &narrativeMetricRepository{db: db}
}

type narrativeMetricRepository struct {
	db *gorm.DB
}

// Append stores one new metric snapshot. Snapshots accumulate as a time
// series; prior rows are never updated.
func (r *narrativeMetricRepository) Append(ctx context.Context, metric *entity.NarrativeMetric) error {
	return r.db.WithContext(ctx).Create(metric).Error
}

// DeleteOlderThan removes snapshots calculated before the cutoff. This is
// the retention cleanup path, the only delete on the metrics table.
func (r *narrativeMetricRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("calculated_at < ?", cutoff).
		Delete(&entity.NarrativeMetric{})
	return res.RowsAffected, res.Error
}
