package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/config"
	"golang-narrative-engine/internal/pipeline/dto"
	"golang-narrative-engine/internal/pipeline/repository"
	"golang-narrative-engine/pkg/common"
	"golang-narrative-engine/pkg/logger"
	"golang-narrative-engine/pkg/telegram"
	"golang-narrative-engine/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// PipelineService sequences extraction, clustering, sentiment and metrics
// for batches of ingested content.
type PipelineService interface {
	ProcessBatch(ctx context.Context, items []entity.ContentItem) dto.BatchResult
	RunDetection(ctx context.Context) (dto.DetectionResult, error)
	RunMetrics(ctx context.Context) (dto.MetricsBatchResult, error)
	CleanupMetrics(ctx context.Context) (int64, error)
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(
	cfg *config.Config,
	log *logger.Logger,
	redisClient *redis.Client,
	extractor *EntityExtractor,
	classifier *SentimentClassifier,
	clusterer *NarrativeClusterer,
	metricsCalc *MetricsCalculator,
	itemRepo repository.ContentItemRepository,
	entityRepo repository.ContentEntityRepository,
	narrativeRepo repository.NarrativeRepository,
	metricRepo repository.NarrativeMetricRepository,
	notifier telegram.Notifier,
) PipelineService {
	return &pipelineService{
		cfg:           cfg,
		logger:        log,
		redisClient:   redisClient,
		extractor:     extractor,
		classifier:    classifier,
		clusterer:     clusterer,
		metricsCalc:   metricsCalc,
		itemRepo:      itemRepo,
		entityRepo:    entityRepo,
		narrativeRepo: narrativeRepo,
		metricRepo:    metricRepo,
		notifier:      notifier,
	}
}

type pipelineService struct {
	cfg           *config.Config
	logger        *logger.Logger
	redisClient   *redis.Client
	extractor     *EntityExtractor
	classifier    *SentimentClassifier
	clusterer     *NarrativeClusterer
	metricsCalc   *MetricsCalculator
	itemRepo      repository.ContentItemRepository
	entityRepo    repository.ContentEntityRepository
	narrativeRepo repository.NarrativeRepository
	metricRepo    repository.NarrativeMetricRepository
	notifier      telegram.Notifier

	// Detection runs are single-writer: two concurrent runs over the same
	// window could create duplicate narratives.
	detectMu sync.Mutex
}

// ProcessBatch extracts and persists entities for each item. Extraction is
// parallelized across a bounded worker pool; persistence replaces any
// previously stored entities for the item, so retries are safe. A failed
// item never aborts the rest of the batch.
func (s *pipelineService) ProcessBatch(ctx context.Context, items []entity.ContentItem) dto.BatchResult {
	result := dto.BatchResult{Failed: []dto.ItemFailure{}}
	if len(items) == 0 {
		return result
	}

	maxConcurrent := s.cfg.Detection.MaxConcurrentExtractions
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	semaphore := make(chan struct{}, maxConcurrent)

	// De-duplicate on item id so no two workers write entities for the
	// same item concurrently.
	seen := make(map[uint]struct{}, len(items))
	deduped := items[:0:0]
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		deduped = append(deduped, item)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, item := range deduped {
		if !utils.ShouldContinue(ctx) {
			break
		}
		item := item
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			extracted := s.extractor.Extract(item.Title, item.Body, s.cfg.Detection.MaxKeywords)
			entities := make([]entity.ContentEntity, 0, len(extracted))
			for _, e := range extracted {
				entities = append(entities, entity.ContentEntity{
					ContentItemID: item.ID,
					Text:          e.Text,
					Type:          e.Type,
				})
			}

			if err := s.entityRepo.ReplaceForItem(ctx, item.ID, entities); err != nil {
				s.logger.Error("Failed to persist entities",
					logger.ErrorField(err), logger.Field("item_id", item.ID))
				mu.Lock()
				result.Failed = append(result.Failed, dto.ItemFailure{ID: item.ID, Reason: err.Error()})
				mu.Unlock()
				return
			}
			mu.Lock()
			result.Succeeded++
			mu.Unlock()
		})
	}
	wg.Wait()

	s.logger.Info("Extraction batch completed",
		logger.IntField("succeeded", result.Succeeded),
		logger.IntField("failed", len(result.Failed)),
	)
	return result
}

// RunDetection clusters the current lookback window into narrative
// candidates and merges them into persisted narratives. A candidate extends
// an existing narrative when it shares a linked item or an exact title;
// otherwise a new narrative is created. Sentiment is recomputed for every
// narrative whose link set changed.
func (s *pipelineService) RunDetection(ctx context.Context) (dto.DetectionResult, error) {
	s.detectMu.Lock()
	defer s.detectMu.Unlock()

	result := dto.DetectionResult{Failed: []dto.ItemFailure{}}

	clusterCfg := ClusterConfig{
		MinItems:          s.cfg.Detection.MinItems,
		WindowHours:       s.cfg.Detection.WindowHours,
		MinSharedEntities: s.cfg.Detection.MinSharedEntities,
	}
	if err := clusterCfg.Validate(); err != nil {
		return result, err
	}

	cutoff := time.Now().Add(-time.Duration(clusterCfg.WindowHours) * time.Hour)
	items, err := s.itemRepo.FindPublishedSince(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to load window items: %w", err)
	}
	result.ItemsInWindow = len(items)
	if len(items) == 0 {
		return result, nil
	}

	itemIDs := make([]uint, 0, len(items))
	itemByID := make(map[uint]entity.ContentItem, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
		itemByID[item.ID] = item
	}

	storedEntities, err := s.entityRepo.FindByItemIDs(ctx, itemIDs)
	if err != nil {
		return result, fmt.Errorf("failed to load entities: %w", err)
	}
	entitiesByItem := make(map[uint][]dto.ExtractedEntity, len(items))
	for _, ent := range storedEntities {
		entitiesByItem[ent.ContentItemID] = append(entitiesByItem[ent.ContentItemID],
			dto.ExtractedEntity{Text: ent.Text, Type: ent.Type})
	}

	analyzed := make([]dto.AnalyzedItem, 0, len(items))
	for _, item := range items {
		analyzed = append(analyzed, dto.AnalyzedItem{
			ItemID:      item.ID,
			PublishedAt: item.PublishedAt,
			Entities:    entitiesByItem[item.ID],
		})
	}

	candidates, err := s.clusterer.Detect(analyzed, clusterCfg)
	if err != nil {
		return result, err
	}
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	existing, err := s.narrativeRepo.FindOpenWithLinks(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to load open narratives: %w", err)
	}

	var created []entity.Narrative
	for _, candidate := range candidates {
		match := matchNarrative(existing, candidate)
		if match == nil {
			narrative, err := s.createNarrative(ctx, candidate, itemByID)
			if err != nil {
				s.logger.Error("Failed to create narrative",
					logger.ErrorField(err), logger.StringField("title", candidate.Title))
				result.Failed = append(result.Failed, dto.ItemFailure{Reason: err.Error()})
				continue
			}
			result.Created++
			created = append(created, *narrative)
			existing = append(existing, *narrative)
			continue
		}

		added, err := s.narrativeRepo.AddLinks(ctx, match.ID, candidate.LinkedItemIDs)
		if err != nil {
			s.logger.Error("Failed to extend narrative",
				logger.ErrorField(err), logger.Field("narrative_id", match.ID))
			result.Failed = append(result.Failed, dto.ItemFailure{ID: match.ID, Reason: err.Error()})
			continue
		}
		if added == 0 {
			continue
		}
		result.Extended++

		if err := s.reclassifyNarrative(ctx, match.ID); err != nil {
			s.logger.Error("Failed to reclassify narrative",
				logger.ErrorField(err), logger.Field("narrative_id", match.ID))
			result.Failed = append(result.Failed, dto.ItemFailure{ID: match.ID, Reason: err.Error()})
			continue
		}
		result.Reclassified++
	}

	s.publishDetected(ctx, created)

	s.logger.Info("Detection run completed",
		logger.IntField("items_in_window", result.ItemsInWindow),
		logger.IntField("candidates", result.Candidates),
		logger.IntField("created", result.Created),
		logger.IntField("extended", result.Extended),
		logger.IntField("failed", len(result.Failed)),
	)
	return result, nil
}

// matchNarrative applies the cross-run merge predicate: an existing
// narrative matches a candidate when it carries the exact same title or
// already links at least one of the candidate's items.
func matchNarrative(existing []entity.Narrative, candidate dto.NarrativeCandidate) *entity.Narrative {
	candidateItems := make(map[uint]struct{}, len(candidate.LinkedItemIDs))
	for _, id := range candidate.LinkedItemIDs {
		candidateItems[id] = struct{}{}
	}
	for i := range existing {
		if existing[i].Title == candidate.Title {
			return &existing[i]
		}
		for _, link := range existing[i].Links {
			if _, ok := candidateItems[link.ContentItemID]; ok {
				return &existing[i]
			}
		}
	}
	return nil
}

func (s *pipelineService) createNarrative(ctx context.Context, candidate dto.NarrativeCandidate, itemByID map[uint]entity.ContentItem) (*entity.Narrative, error) {
	linkedItems := make([]entity.ContentItem, 0, len(candidate.LinkedItemIDs))
	links := make([]entity.NarrativeLink, 0, len(candidate.LinkedItemIDs))
	for _, id := range candidate.LinkedItemIDs {
		if item, ok := itemByID[id]; ok {
			linkedItems = append(linkedItems, item)
		}
		links = append(links, entity.NarrativeLink{ContentItemID: id})
	}

	sharedJSON, err := json.Marshal(candidate.SharedEntities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shared entities: %w", err)
	}

	narrative := &entity.Narrative{
		Title:          candidate.Title,
		Summary:        candidate.Summary,
		Sentiment:      s.classifier.ClassifyItems(linkedItems),
		SharedEntities: sharedJSON,
		KeyTerms:       candidate.KeyTerms,
		Links:          links,
	}
	if err := s.narrativeRepo.Create(ctx, narrative); err != nil {
		return nil, fmt.Errorf("failed to create narrative: %w", err)
	}
	return narrative, nil
}

// reclassifyNarrative recomputes sentiment from the narrative's full linked
// item set. Sentiment is derived state, so this is the only write path.
func (s *pipelineService) reclassifyNarrative(ctx context.Context, narrativeID uint) error {
	items, err := s.narrativeRepo.LinkedItems(ctx, narrativeID)
	if err != nil {
		return fmt.Errorf("failed to load linked items: %w", err)
	}
	sentiment := s.classifier.ClassifyItems(items)
	if err := s.narrativeRepo.UpdateSentiment(ctx, narrativeID, sentiment); err != nil {
		return fmt.Errorf("failed to update sentiment: %w", err)
	}
	return nil
}

// publishDetected emits a stream event per new narrative and sends one
// Telegram digest for the run. Notification failures are logged, never
// propagated.
func (s *pipelineService) publishDetected(ctx context.Context, created []entity.Narrative) {
	if len(created) == 0 {
		return
	}

	digest := make([]telegram.DigestEntry, 0, len(created))
	for _, narrative := range created {
		event := dto.NarrativeDetectedEvent{
			NarrativeID: narrative.ID,
			Title:       narrative.Title,
			Sentiment:   narrative.Sentiment,
			ItemCount:   len(narrative.Links),
			DetectedAt:  time.Now(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("Failed to marshal narrative event", logger.ErrorField(err))
			continue
		}
		if err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: common.RedisStreamNarrativeDetected,
			Values: map[string]interface{}{"payload": payload},
			MaxLen: s.cfg.Redis.StreamMaxLen,
		}).Err(); err != nil {
			s.logger.Error("Failed to publish narrative event",
				logger.ErrorField(err), logger.Field("narrative_id", narrative.ID))
		}
		digest = append(digest, telegram.DigestEntry{
			Title:     narrative.Title,
			Sentiment: string(narrative.Sentiment),
			ItemCount: len(narrative.Links),
		})
	}

	if s.notifier != nil && len(digest) > 0 {
		if err := s.notifier.SendMessage(telegram.FormatNarrativeDigest(digest)); err != nil {
			s.logger.Error("Failed to send narrative digest", logger.ErrorField(err))
		}
	}
}

// RunMetrics appends a fresh metric snapshot for every narrative and every
// configured period.
func (s *pipelineService) RunMetrics(ctx context.Context) (dto.MetricsBatchResult, error) {
	ids, err := s.narrativeRepo.FindAllIDs(ctx)
	if err != nil {
		return dto.MetricsBatchResult{}, fmt.Errorf("failed to list narratives: %w", err)
	}
	periods := []entity.MetricPeriod{entity.MetricPeriodShort, entity.MetricPeriodLong}
	return s.metricsCalc.UpdateAll(ctx, ids, periods), nil
}

// CleanupMetrics deletes metric snapshots older than the configured
// retention. This is the only delete path on the metrics time series.
func (s *pipelineService) CleanupMetrics(ctx context.Context) (int64, error) {
	retentionDays := s.cfg.Metrics.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := s.metricRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old metrics: %w", err)
	}
	s.logger.Info("Metric retention cleanup completed", logger.Field("deleted", deleted))
	return deleted, nil
}
