package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/dto"
)

// ClusterConfig holds the thresholds for one detection run.
type ClusterConfig struct {
	MinItems          int
	WindowHours       int
	MinSharedEntities int
}

// Validate rejects non-positive thresholds before any work starts.
func (c ClusterConfig) Validate() error {
	if c.MinItems <= 0 {
		return fmt.Errorf("%w: min_items must be positive, got %d", ErrInvalidConfig, c.MinItems)
	}
	if c.WindowHours <= 0 {
		return fmt.Errorf("%w: window_hours must be positive, got %d", ErrInvalidConfig, c.WindowHours)
	}
	if c.MinSharedEntities <= 0 {
		return fmt.Errorf("%w: min_shared_entities must be positive, got %d", ErrInvalidConfig, c.MinSharedEntities)
	}
	return nil
}

// seed priority: tickers first, then persons, then organizations. Keywords
// never seed a cluster; they only decorate titles and summaries.
var entityTypePriority = map[entity.EntityType]int{
	entity.EntityTypeTicker:       0,
	entity.EntityTypePerson:       1,
	entity.EntityTypeOrganization: 2,
	entity.EntityTypeKeyword:      3,
}

// NarrativeClusterer groups content items into narrative candidates based on
// shared entities. Detection is a pure function over its input snapshot:
// same items and config always produce identical output.
type NarrativeClusterer struct{}

// NewNarrativeClusterer creates a new NarrativeClusterer.
func NewNarrativeClusterer() *NarrativeClusterer {
	return &NarrativeClusterer{}
}

// Detect clusters the given items into narrative candidates. The caller
// supplies exactly the items published within the lookback window. Each item
// joins at most one candidate per run (first found wins, in seed priority
// order).
func (nc *NarrativeClusterer) Detect(items []dto.AnalyzedItem, cfg ClusterConfig) ([]dto.NarrativeCandidate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []dto.NarrativeCandidate{}, nil
	}

	itemEntities := make(map[uint]map[dto.ExtractedEntity]struct{}, len(items))
	itemPublished := make(map[uint]time.Time, len(items))
	index := make(map[dto.ExtractedEntity][]uint)
	for _, item := range items {
		if _, ok := itemEntities[item.ItemID]; ok {
			continue
		}
		set := make(map[dto.ExtractedEntity]struct{}, len(item.Entities))
		for _, ent := range item.Entities {
			if _, dup := set[ent]; dup {
				continue
			}
			set[ent] = struct{}{}
			index[ent] = append(index[ent], item.ItemID)
		}
		itemEntities[item.ItemID] = set
		itemPublished[item.ItemID] = item.PublishedAt
	}

	seeds := make([]dto.ExtractedEntity, 0, len(index))
	for ent := range index {
		if ent.Type == entity.EntityTypeKeyword {
			continue
		}
		seeds = append(seeds, ent)
	}
	sort.Slice(seeds, func(i, j int) bool {
		if entityTypePriority[seeds[i].Type] != entityTypePriority[seeds[j].Type] {
			return entityTypePriority[seeds[i].Type] < entityTypePriority[seeds[j].Type]
		}
		return seeds[i].Text < seeds[j].Text
	})

	assigned := make(map[uint]struct{})
	candidates := []dto.NarrativeCandidate{}

	for _, seed := range seeds {
		var clusterIDs []uint
		for _, id := range index[seed] {
			if _, taken := assigned[id]; !taken {
				clusterIDs = append(clusterIDs, id)
			}
		}
		if len(clusterIDs) < cfg.MinItems {
			continue
		}

		shared := sharedEntities(clusterIDs, itemEntities)
		if len(shared) < cfg.MinSharedEntities {
			continue
		}

		for _, id := range clusterIDs {
			assigned[id] = struct{}{}
		}
		sort.Slice(clusterIDs, func(i, j int) bool { return clusterIDs[i] < clusterIDs[j] })

		candidates = append(candidates, buildCandidate(clusterIDs, shared, itemPublished))
	}

	return candidates, nil
}

// sharedEntities returns the entities present in every item of the cluster,
// sorted by type priority then text.
func sharedEntities(ids []uint, itemEntities map[uint]map[dto.ExtractedEntity]struct{}) []dto.ExtractedEntity {
	var shared []dto.ExtractedEntity
	for ent := range itemEntities[ids[0]] {
		inAll := true
		for _, id := range ids[1:] {
			if _, ok := itemEntities[id][ent]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			shared = append(shared, ent)
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		if entityTypePriority[shared[i].Type] != entityTypePriority[shared[j].Type] {
			return entityTypePriority[shared[i].Type] < entityTypePriority[shared[j].Type]
		}
		return shared[i].Text < shared[j].Text
	})
	return shared
}

func buildCandidate(ids []uint, shared []dto.ExtractedEntity, published map[uint]time.Time) dto.NarrativeCandidate {
	var tickers, keyTerms []string
	var firstPerson, firstOrg string
	for _, ent := range shared {
		switch ent.Type {
		case entity.EntityTypeTicker:
			tickers = append(tickers, ent.Text)
		case entity.EntityTypePerson:
			if firstPerson == "" {
				firstPerson = ent.Text
			}
		case entity.EntityTypeOrganization:
			if firstOrg == "" {
				firstOrg = ent.Text
			}
		case entity.EntityTypeKeyword:
			keyTerms = append(keyTerms, ent.Text)
		}
	}

	var title string
	switch {
	case len(tickers) > 0:
		title = strings.Join(tickers, ", ") + " Market Movement"
	case firstPerson != "":
		title = firstPerson + " Developments"
	default:
		title = firstOrg + " News"
	}

	topTexts := make([]string, 0, 3)
	for _, ent := range shared {
		topTexts = append(topTexts, ent.Text)
		if len(topTexts) == 3 {
			break
		}
	}

	minPub, maxPub := published[ids[0]], published[ids[0]]
	for _, id := range ids[1:] {
		if published[id].Before(minPub) {
			minPub = published[id]
		}
		if published[id].After(maxPub) {
			maxPub = published[id]
		}
	}

	summary := fmt.Sprintf("%d items discussing %s over the last %s",
		len(ids), strings.Join(topTexts, ", "), formatTimeSpan(maxPub.Sub(minPub)))

	if keyTerms == nil {
		keyTerms = []string{}
	}
	return dto.NarrativeCandidate{
		Title:          title,
		Summary:        summary,
		LinkedItemIDs:  ids,
		SharedEntities: shared,
		KeyTerms:       keyTerms,
	}
}

// formatTimeSpan renders a duration in hours below two days, days above.
func formatTimeSpan(d time.Duration) string {
	hours := int(d.Hours())
	if hours < 1 {
		hours = 1
	}
	if hours < 48 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := hours / 24
	return fmt.Sprintf("%d days", days)
}
