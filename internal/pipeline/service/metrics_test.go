package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/config"
	"golang-narrative-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNarrativeRepo struct {
	itemTimes map[uint][]time.Time
	timesErr  error
}

func (f *fakeNarrativeRepo) Create(ctx context.Context, narrative *entity.Narrative) error {
	return nil
}

func (f *fakeNarrativeRepo) FindOpenWithLinks(ctx context.Context, updatedSince time.Time) ([]entity.Narrative, error) {
	return nil, nil
}

func (f *fakeNarrativeRepo) FindAllIDs(ctx context.Context) ([]uint, error) {
	ids := make([]uint, 0, len(f.itemTimes))
	for id := range f.itemTimes {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeNarrativeRepo) AddLinks(ctx context.Context, narrativeID uint, itemIDs []uint) (int64, error) {
	return 0, nil
}

func (f *fakeNarrativeRepo) UpdateSentiment(ctx context.Context, narrativeID uint, sentiment entity.Sentiment) error {
	return nil
}

func (f *fakeNarrativeRepo) LinkedItems(ctx context.Context, narrativeID uint) ([]entity.ContentItem, error) {
	return nil, nil
}

func (f *fakeNarrativeRepo) LinkedItemTimes(ctx context.Context, narrativeID uint) ([]time.Time, error) {
	if f.timesErr != nil {
		return nil, f.timesErr
	}
	return f.itemTimes[narrativeID], nil
}

type fakeMetricRepo struct {
	appended  []entity.NarrativeMetric
	appendErr error
}

func (f *fakeMetricRepo) Append(ctx context.Context, metric *entity.NarrativeMetric) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, *metric)
	return nil
}

func (f *fakeMetricRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func TestMeasureWindows_PercentageChange(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 2 mentions in the previous hour, 3 in the current hour
	timestamps := []time.Time{
		now.Add(-90 * time.Minute),
		now.Add(-70 * time.Minute),
		now.Add(-50 * time.Minute),
		now.Add(-30 * time.Minute),
		now.Add(-10 * time.Minute),
	}

	mentions, velocity := measureWindows(timestamps, now, time.Hour)

	assert.Equal(t, 3, mentions)
	assert.InDelta(t, 50.0, velocity, 0.001)
}

func TestMeasureWindows_NewNarrativeIsFullVelocity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	timestamps := []time.Time{
		now.Add(-40 * time.Minute),
		now.Add(-20 * time.Minute),
		now.Add(-5 * time.Minute),
	}

	mentions, velocity := measureWindows(timestamps, now, time.Hour)

	assert.Equal(t, 3, mentions)
	assert.Equal(t, 100.0, velocity)
}

func TestMeasureWindows_BothWindowsEmpty(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// all activity older than two window lengths
	timestamps := []time.Time{now.Add(-3 * time.Hour)}

	mentions, velocity := measureWindows(timestamps, now, time.Hour)

	assert.Equal(t, 0, mentions)
	assert.Equal(t, 0.0, velocity)
}

func TestMeasureWindows_DecliningNarrative(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 4 mentions previous window, 1 current
	timestamps := []time.Time{
		now.Add(-110 * time.Minute),
		now.Add(-100 * time.Minute),
		now.Add(-90 * time.Minute),
		now.Add(-70 * time.Minute),
		now.Add(-10 * time.Minute),
	}

	mentions, velocity := measureWindows(timestamps, now, time.Hour)

	assert.Equal(t, 1, mentions)
	assert.InDelta(t, -75.0, velocity, 0.001)
}

func TestCalculate_AppendsSnapshot(t *testing.T) {
	now := time.Now()
	narrativeRepo := &fakeNarrativeRepo{itemTimes: map[uint][]time.Time{
		7: {now.Add(-10 * time.Minute), now.Add(-20 * time.Minute)},
	}}
	metricRepo := &fakeMetricRepo{}
	calc := NewMetricsCalculator(narrativeRepo, metricRepo, config.Metrics{}, testLogger(t))

	result, err := calc.Calculate(context.Background(), 7, entity.MetricPeriodShort)

	require.NoError(t, err)
	assert.Equal(t, 2, result.MentionCount)
	assert.Equal(t, 100.0, result.Velocity)
	require.Len(t, metricRepo.appended, 1)
	assert.Equal(t, uint(7), metricRepo.appended[0].NarrativeID)
	assert.Equal(t, entity.MetricPeriodShort, metricRepo.appended[0].Period)
}

func TestCalculate_UnknownPeriod(t *testing.T) {
	calc := NewMetricsCalculator(&fakeNarrativeRepo{}, &fakeMetricRepo{}, config.Metrics{}, testLogger(t))

	_, err := calc.Calculate(context.Background(), 1, entity.MetricPeriod("7d"))

	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestUpdateAll_CollectsFailures(t *testing.T) {
	narrativeRepo := &fakeNarrativeRepo{timesErr: errors.New("connection reset")}
	metricRepo := &fakeMetricRepo{}
	calc := NewMetricsCalculator(narrativeRepo, metricRepo, config.Metrics{}, testLogger(t))

	result := calc.UpdateAll(context.Background(), []uint{1, 2}, []entity.MetricPeriod{entity.MetricPeriodShort})

	assert.Equal(t, 0, result.Calculated)
	assert.Equal(t, 0, result.Stored)
	assert.Len(t, result.Failed, 2)
}

func TestUpdateAll_BothPeriods(t *testing.T) {
	now := time.Now()
	narrativeRepo := &fakeNarrativeRepo{itemTimes: map[uint][]time.Time{
		1: {now.Add(-30 * time.Minute)},
	}}
	metricRepo := &fakeMetricRepo{}
	calc := NewMetricsCalculator(narrativeRepo, metricRepo, config.Metrics{}, testLogger(t))

	result := calc.UpdateAll(context.Background(), []uint{1},
		[]entity.MetricPeriod{entity.MetricPeriodShort, entity.MetricPeriodLong})

	assert.Equal(t, 2, result.Calculated)
	assert.Equal(t, 2, result.Stored)
	assert.Empty(t, result.Failed)
	assert.Len(t, metricRepo.appended, 2)
}
