package service

import (
	"context"
	"fmt"
	"time"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/config"
	"golang-narrative-engine/internal/pipeline/dto"
	"golang-narrative-engine/internal/pipeline/repository"
	"golang-narrative-engine/pkg/logger"
)

// MetricsCalculator computes mention counts and velocity for narratives over
// rolling windows and appends snapshot rows. Snapshots are append-only.
type MetricsCalculator struct {
	narrativeRepo repository.NarrativeRepository
	metricRepo    repository.NarrativeMetricRepository
	windows       map[entity.MetricPeriod]time.Duration
	logger        *logger.Logger
}

// NewMetricsCalculator creates a new MetricsCalculator. Zero-valued window
// durations fall back to 1h (short) and 24h (long).
func NewMetricsCalculator(
	narrativeRepo repository.NarrativeRepository,
	metricRepo repository.NarrativeMetricRepository,
	cfg config.Metrics,
	log *logger.Logger,
) *MetricsCalculator {
	short := cfg.ShortWindow
	if short <= 0 {
		short = time.Hour
	}
	long := cfg.LongWindow
	if long <= 0 {
		long = 24 * time.Hour
	}
	return &MetricsCalculator{
		narrativeRepo: narrativeRepo,
		metricRepo:    metricRepo,
		windows: map[entity.MetricPeriod]time.Duration{
			entity.MetricPeriodShort: short,
			entity.MetricPeriodLong:  long,
		},
		logger: log,
	}
}

// Calculate computes the current mention count and velocity for one
// narrative and period, appends exactly one snapshot row, and returns the
// computed values.
func (m *MetricsCalculator) Calculate(ctx context.Context, narrativeID uint, period entity.MetricPeriod) (dto.MetricResult, error) {
	result, metric, err := m.compute(ctx, narrativeID, period, time.Now())
	if err != nil {
		return dto.MetricResult{}, err
	}
	if err := m.metricRepo.Append(ctx, metric); err != nil {
		return dto.MetricResult{}, fmt.Errorf("failed to store metric: %w", err)
	}
	return result, nil
}

// UpdateAll calculates metrics for every (narrative, period) pair,
// collecting failures instead of aborting the batch.
func (m *MetricsCalculator) UpdateAll(ctx context.Context, narrativeIDs []uint, periods []entity.MetricPeriod) dto.MetricsBatchResult {
	result := dto.MetricsBatchResult{Failed: []dto.MetricFailure{}}
	now := time.Now()

	for _, id := range narrativeIDs {
		for _, period := range periods {
			_, metric, err := m.compute(ctx, id, period, now)
			if err != nil {
				m.logger.Error("Failed to calculate narrative metric",
					logger.ErrorField(err),
					logger.Field("narrative_id", id),
					logger.StringField("period", string(period)),
				)
				result.Failed = append(result.Failed, dto.MetricFailure{
					NarrativeID: id, Period: period, Reason: err.Error(),
				})
				continue
			}
			result.Calculated++

			if err := m.metricRepo.Append(ctx, metric); err != nil {
				m.logger.Error("Failed to store narrative metric",
					logger.ErrorField(err),
					logger.Field("narrative_id", id),
					logger.StringField("period", string(period)),
				)
				result.Failed = append(result.Failed, dto.MetricFailure{
					NarrativeID: id, Period: period, Reason: err.Error(),
				})
				continue
			}
			result.Stored++
		}
	}

	m.logger.Info("Metrics batch completed",
		logger.IntField("calculated", result.Calculated),
		logger.IntField("stored", result.Stored),
		logger.IntField("failed", len(result.Failed)),
	)
	return result
}

func (m *MetricsCalculator) compute(ctx context.Context, narrativeID uint, period entity.MetricPeriod, now time.Time) (dto.MetricResult, *entity.NarrativeMetric, error) {
	length, ok := m.windows[period]
	if !ok {
		return dto.MetricResult{}, nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}

	timestamps, err := m.narrativeRepo.LinkedItemTimes(ctx, narrativeID)
	if err != nil {
		return dto.MetricResult{}, nil, fmt.Errorf("failed to load linked item times: %w", err)
	}

	mentions, velocity := measureWindows(timestamps, now, length)
	metric := &entity.NarrativeMetric{
		NarrativeID:  narrativeID,
		Period:       period,
		MentionCount: mentions,
		Velocity:     velocity,
		CalculatedAt: now,
	}
	return dto.MetricResult{MentionCount: mentions, Velocity: velocity}, metric, nil
}

// measureWindows counts mentions in the current window (now-length, now] and
// the immediately preceding equal-length window, then derives velocity:
// percentage change versus the previous window, 100 when the narrative is
// new (previous 0, current > 0), 0 when both windows are empty.
func measureWindows(timestamps []time.Time, now time.Time, length time.Duration) (int, float64) {
	currentStart := now.Add(-length)
	previousStart := now.Add(-2 * length)

	var current, previous int
	for _, ts := range timestamps {
		switch {
		case ts.After(currentStart) && !ts.After(now):
			current++
		case ts.After(previousStart) && !ts.After(currentStart):
			previous++
		}
	}

	var velocity float64
	switch {
	case previous > 0:
		velocity = (float64(current-previous) / float64(previous)) * 100
	case current > 0:
		velocity = 100
	default:
		velocity = 0
	}
	return current, velocity
}
