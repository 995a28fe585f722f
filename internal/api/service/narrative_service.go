package service

import (
	"context"
	"fmt"
	"time"

	"golang-narrative-engine/internal/api/dto"
	"golang-narrative-engine/internal/api/repository"
	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// NarrativeService serves the read-only narrative endpoints.
type NarrativeService interface {
	ListNarratives(ctx context.Context, req dto.ListNarrativesRequest) (*dto.ListNarrativesResponse, error)
	GetNarrative(ctx context.Context, id uint) (*dto.NarrativeDetailResponse, error)
}

// NewNarrativeService creates a new NarrativeService. List responses are
// cached briefly since narratives only change on pipeline runs.
func NewNarrativeService(repo repository.NarrativeReadRepository, log *logger.Logger, cacheTTL time.Duration) NarrativeService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &narrativeService{
		repo:      repo,
		logger:    log,
		listCache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

type narrativeService struct {
	repo      repository.NarrativeReadRepository
	logger    *logger.Logger
	listCache *cache.Cache
}

func (s *narrativeService) ListNarratives(ctx context.Context, req dto.ListNarrativesRequest) (*dto.ListNarrativesResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}

	cacheKey := fmt.Sprintf("list:%d:%d:%s:%s", req.Page, req.Limit, req.Sentiment, req.SortBy)
	if cached, ok := s.listCache.Get(cacheKey); ok {
		return cached.(*dto.ListNarrativesResponse), nil
	}

	rows, total, err := s.repo.List(ctx, repository.ListParams{
		Offset:          (req.Page - 1) * req.Limit,
		Limit:           req.Limit,
		Sentiment:       req.Sentiment,
		OrderByVelocity: req.SortBy == dto.SortByVelocity,
	})
	if err != nil {
		s.logger.Error("Failed to list narratives", logger.ErrorField(err))
		return nil, err
	}

	narratives := make([]dto.NarrativeResponse, 0, len(rows))
	for _, row := range rows {
		narratives = append(narratives, dto.NarrativeResponse{
			ID:             row.ID,
			Title:          row.Title,
			Summary:        row.Summary,
			Sentiment:      row.Sentiment,
			SharedEntities: []byte(row.SharedEntities),
			KeyTerms:       row.KeyTerms,
			ItemCount:      row.ItemCount,
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
		})
	}

	response := &dto.ListNarrativesResponse{
		Narratives: narratives,
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
	}
	s.listCache.Set(cacheKey, response, cache.DefaultExpiration)
	return response, nil
}

// GetNarrative returns one narrative with its linked items and the latest
// metric snapshot per period. Returns nil when the narrative does not exist.
func (s *narrativeService) GetNarrative(ctx context.Context, id uint) (*dto.NarrativeDetailResponse, error) {
	narrative, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get narrative", logger.ErrorField(err), logger.Field("id", id))
		return nil, err
	}
	if narrative == nil {
		return nil, nil
	}

	items, err := s.repo.LinkedItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked items: %w", err)
	}
	metrics, err := s.repo.LatestMetrics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}

	return &dto.NarrativeDetailResponse{
		NarrativeResponse: dto.NarrativeResponse{
			ID:             narrative.ID,
			Title:          narrative.Title,
			Summary:        narrative.Summary,
			Sentiment:      string(narrative.Sentiment),
			SharedEntities: []byte(narrative.SharedEntities),
			KeyTerms:       narrative.KeyTerms,
			ItemCount:      len(narrative.Links),
			CreatedAt:      narrative.CreatedAt,
			UpdatedAt:      narrative.UpdatedAt,
			Metrics:        toMetricResponses(metrics),
		},
		Items: toItemResponses(items),
	}, nil
}

func toMetricResponses(metrics []entity.NarrativeMetric) []dto.MetricResponse {
	out := make([]dto.MetricResponse, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, dto.MetricResponse{
			Period:       string(m.Period),
			MentionCount: m.MentionCount,
			Velocity:     m.Velocity,
			CalculatedAt: m.CalculatedAt,
		})
	}
	return out
}

func toItemResponses(items []entity.ContentItem) []dto.ContentItemResponse {
	out := make([]dto.ContentItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.ContentItemResponse{
			ID:          item.ID,
			Title:       item.Title,
			SourceKind:  string(item.SourceKind),
			Source:      item.Source,
			Author:      item.Author,
			PublishedAt: item.PublishedAt,
		})
	}
	return out
}
