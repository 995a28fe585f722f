package service

import (
	"testing"
	"time"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClusterConfig() ClusterConfig {
	return ClusterConfig{MinItems: 3, WindowHours: 24, MinSharedEntities: 2}
}

func tslaItems(base time.Time) []dto.AnalyzedItem {
	shared := []dto.ExtractedEntity{
		{Text: "$TSLA", Type: entity.EntityTypeTicker},
		{Text: "Elon Musk", Type: entity.EntityTypePerson},
	}
	return []dto.AnalyzedItem{
		{ItemID: 1, PublishedAt: base, Entities: shared},
		{ItemID: 2, PublishedAt: base.Add(2 * time.Hour), Entities: shared},
		{ItemID: 3, PublishedAt: base.Add(5 * time.Hour), Entities: shared},
	}
}

func TestDetect_ClusterAboveThresholds(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	candidates, err := clusterer.Detect(tslaItems(base), testClusterConfig())

	require.NoError(t, err)
	require.Len(t, candidates, 1)

	candidate := candidates[0]
	assert.Equal(t, "$TSLA Market Movement", candidate.Title)
	assert.Equal(t, []uint{1, 2, 3}, candidate.LinkedItemIDs)
	assert.Equal(t, "3 items discussing $TSLA, Elon Musk over the last 5 hours", candidate.Summary)
}

func TestDetect_BelowMinItems(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	candidates, err := clusterer.Detect(tslaItems(base)[:2], testClusterConfig())

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDetect_BelowMinSharedEntities(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// only the ticker is common to all three items
	items := []dto.AnalyzedItem{
		{ItemID: 1, PublishedAt: base, Entities: []dto.ExtractedEntity{
			{Text: "$TSLA", Type: entity.EntityTypeTicker},
			{Text: "Elon Musk", Type: entity.EntityTypePerson},
		}},
		{ItemID: 2, PublishedAt: base, Entities: []dto.ExtractedEntity{
			{Text: "$TSLA", Type: entity.EntityTypeTicker},
		}},
		{ItemID: 3, PublishedAt: base, Entities: []dto.ExtractedEntity{
			{Text: "$TSLA", Type: entity.EntityTypeTicker},
		}},
	}

	candidates, err := clusterer.Detect(items, testClusterConfig())

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDetect_ItemJoinsOnlyOneCluster(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// every item carries both tickers, so the alphabetically first seed
	// claims all of them and the second seed has nothing left
	entities := []dto.ExtractedEntity{
		{Text: "$AAPL", Type: entity.EntityTypeTicker},
		{Text: "$MSFT", Type: entity.EntityTypeTicker},
	}
	items := []dto.AnalyzedItem{
		{ItemID: 1, PublishedAt: base, Entities: entities},
		{ItemID: 2, PublishedAt: base, Entities: entities},
		{ItemID: 3, PublishedAt: base, Entities: entities},
	}

	candidates, err := clusterer.Detect(items, ClusterConfig{MinItems: 3, WindowHours: 24, MinSharedEntities: 1})

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "$AAPL, $MSFT Market Movement", candidates[0].Title)
}

func TestDetect_KeywordsNeverSeed(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	entities := []dto.ExtractedEntity{
		{Text: "earnings", Type: entity.EntityTypeKeyword},
		{Text: "guidance", Type: entity.EntityTypeKeyword},
	}
	items := []dto.AnalyzedItem{
		{ItemID: 1, PublishedAt: base, Entities: entities},
		{ItemID: 2, PublishedAt: base, Entities: entities},
		{ItemID: 3, PublishedAt: base, Entities: entities},
	}

	candidates, err := clusterer.Detect(items, ClusterConfig{MinItems: 3, WindowHours: 24, MinSharedEntities: 1})

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDetect_PersonTitleWhenNoTicker(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	entities := []dto.ExtractedEntity{
		{Text: "Jerome Powell", Type: entity.EntityTypePerson},
		{Text: "Federal Reserve Bank", Type: entity.EntityTypeOrganization},
	}
	items := []dto.AnalyzedItem{
		{ItemID: 1, PublishedAt: base, Entities: entities},
		{ItemID: 2, PublishedAt: base, Entities: entities},
		{ItemID: 3, PublishedAt: base, Entities: entities},
	}

	candidates, err := clusterer.Detect(items, testClusterConfig())

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Jerome Powell Developments", candidates[0].Title)
}

func TestDetect_SharedKeywordsBecomeKeyTerms(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	entities := []dto.ExtractedEntity{
		{Text: "$NVDA", Type: entity.EntityTypeTicker},
		{Text: "chips", Type: entity.EntityTypeKeyword},
		{Text: "datacenter", Type: entity.EntityTypeKeyword},
	}
	items := []dto.AnalyzedItem{
		{ItemID: 1, PublishedAt: base, Entities: entities},
		{ItemID: 2, PublishedAt: base, Entities: entities},
		{ItemID: 3, PublishedAt: base, Entities: entities},
	}

	candidates, err := clusterer.Detect(items, testClusterConfig())

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []string{"chips", "datacenter"}, candidates[0].KeyTerms)
}

func TestDetect_DeterministicAcrossRuns(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	items := []dto.AnalyzedItem{}
	items = append(items, tslaItems(base)...)
	extra := []dto.ExtractedEntity{
		{Text: "$NVDA", Type: entity.EntityTypeTicker},
		{Text: "Jensen Huang", Type: entity.EntityTypePerson},
	}
	for i := uint(10); i < 14; i++ {
		items = append(items, dto.AnalyzedItem{ItemID: i, PublishedAt: base, Entities: extra})
	}

	first, err := clusterer.Detect(items, testClusterConfig())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := clusterer.Detect(items, testClusterConfig())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDetect_DuplicateItemIDsIgnored(t *testing.T) {
	clusterer := NewNarrativeClusterer()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	items := tslaItems(base)
	items = append(items, items[0])

	candidates, err := clusterer.Detect(items, testClusterConfig())

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []uint{1, 2, 3}, candidates[0].LinkedItemIDs)
}

func TestDetect_EmptyInput(t *testing.T) {
	clusterer := NewNarrativeClusterer()

	candidates, err := clusterer.Detect(nil, testClusterConfig())

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDetect_InvalidConfig(t *testing.T) {
	clusterer := NewNarrativeClusterer()

	cases := []ClusterConfig{
		{MinItems: 0, WindowHours: 24, MinSharedEntities: 2},
		{MinItems: 3, WindowHours: 0, MinSharedEntities: 2},
		{MinItems: 3, WindowHours: 24, MinSharedEntities: -1},
	}
	for _, cfg := range cases {
		_, err := clusterer.Detect(tslaItems(time.Now()), cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}
