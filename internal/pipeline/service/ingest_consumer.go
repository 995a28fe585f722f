package service

import (
	"context"
	"encoding/json"
	"time"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/dto"
	"golang-narrative-engine/internal/pipeline/repository"
	"golang-narrative-engine/pkg/common"
	"golang-narrative-engine/pkg/logger"
	"golang-narrative-engine/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// IngestConsumerService pulls ingested content batches off the Redis stream,
// stores the items and hands them to the pipeline for extraction.
type IngestConsumerService interface {
	ProcessMessages(ctx context.Context)
}

// NewIngestConsumerService creates a new IngestConsumerService.
func NewIngestConsumerService(
	redisClient *redis.Client,
	itemRepo repository.ContentItemRepository,
	pipeline PipelineService,
	log *logger.Logger,
) IngestConsumerService {
	return &ingestConsumerService{
		redisClient: redisClient,
		itemRepo:    itemRepo,
		pipeline:    pipeline,
		logger:      log,
	}
}

type ingestConsumerService struct {
	redisClient *redis.Client
	itemRepo    repository.ContentItemRepository
	pipeline    PipelineService
	logger      *logger.Logger
}

// ProcessMessages reads one batch of ingested items from the stream. A
// malformed message is logged and skipped; it never blocks the batch.
func (s *ingestConsumerService) ProcessMessages(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamContentIngested, ">"},
		Count:    50,
		Block:    2 * time.Second,
		NoAck:    true,
	}).Result()

	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.logger.Error("Failed to read from ingestion stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	var batch []entity.ContentItem
	for _, message := range streams[0].Messages {
		item, ok := s.decodeMessage(message)
		if !ok {
			continue
		}
		created, err := s.itemRepo.CreateIgnoreConflict(ctx, item)
		if err != nil {
			s.logger.Error("Failed to store content item",
				logger.ErrorField(err), logger.StringField("external_id", item.ExternalID))
			continue
		}
		if !created {
			s.logger.Debug("Content item already exists",
				logger.StringField("external_id", item.ExternalID))
		}
		batch = append(batch, *item)
	}

	if len(batch) == 0 {
		return
	}

	result := s.pipeline.ProcessBatch(ctx, batch)
	s.logger.Info("Ingested content batch processed",
		logger.IntField("items", len(batch)),
		logger.IntField("succeeded", result.Succeeded),
		logger.IntField("failed", len(result.Failed)),
	)
}

// decodeMessage parses and validates one stream message. Items without an
// external id or a usable published timestamp are rejected.
func (s *ingestConsumerService) decodeMessage(message redis.XMessage) (*entity.ContentItem, bool) {
	payload, ok := message.Values["payload"].(string)
	if !ok {
		s.logger.Error("field 'payload' not found or not a string in stream message",
			logger.StringField("message_id", message.ID))
		return nil, false
	}

	var ingested dto.IngestedContentItem
	if err := json.Unmarshal([]byte(payload), &ingested); err != nil {
		s.logger.Error("Failed to unmarshal ingested item",
			logger.ErrorField(err), logger.StringField("message_id", message.ID))
		return nil, false
	}
	if ingested.ExternalID == "" {
		s.logger.Error("Ingested item has no external id", logger.StringField("message_id", message.ID))
		return nil, false
	}
	if ingested.PublishedAt.IsZero() {
		s.logger.Error("Ingested item has no published timestamp",
			logger.StringField("external_id", ingested.ExternalID))
		return nil, false
	}

	sourceKind := entity.SourceKind(ingested.SourceKind)
	if sourceKind != entity.SourceKindArticle && sourceKind != entity.SourceKindSocialPost {
		sourceKind = entity.SourceKindArticle
	}

	return &entity.ContentItem{
		ExternalID:  ingested.ExternalID,
		Title:       utils.CleanToValidUTF8(ingested.Title),
		Body:        utils.CleanToValidUTF8(ingested.Body),
		PublishedAt: ingested.PublishedAt,
		SourceKind:  sourceKind,
		Source:      ingested.Source,
		Author:      ingested.Author,
	}, true
}
