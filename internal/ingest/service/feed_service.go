package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang-narrative-engine/internal/ingest/config"
	ingestdto "golang-narrative-engine/internal/ingest/dto"
	pipelinedto "golang-narrative-engine/internal/pipeline/dto"
	"golang-narrative-engine/pkg/common"
	"golang-narrative-engine/pkg/logger"
	"golang-narrative-engine/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FeedService fetches configured content feeds and publishes new items to
// the ingestion stream. It lives entirely at the content-provider boundary;
// the pipeline never fetches anything itself.
type FeedService interface {
	Start(ctx context.Context)
	FetchAll(ctx context.Context) []ingestdto.FeedResult
}

// NewFeedService creates a new FeedService.
func NewFeedService(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) FeedService {
	perSecond := cfg.Ingest.BodyFetchPerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	return &feedService{
		cfg:         cfg,
		redisClient: redisClient,
		logger:      log,
		parser:      gofeed.NewParser(),
		client:      &http.Client{Timeout: 20 * time.Second},
		seenCache:   cache.New(24*time.Hour, time.Hour),
		bodyLimiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

type feedService struct {
	cfg         *config.Config
	redisClient *redis.Client
	logger      *logger.Logger
	parser      *gofeed.Parser
	client      *http.Client
	seenCache   *cache.Cache
	bodyLimiter *rate.Limiter
}

// Start fetches all feeds on the configured interval until the context is
// canceled.
func (s *feedService) Start(ctx context.Context) {
	interval := s.cfg.Ingest.FetchInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	// Run once up front so a fresh deployment does not wait a full interval.
	s.FetchAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Feed service stopping")
			return
		case <-ticker.C:
			s.FetchAll(ctx)
		}
	}
}

// FetchAll fetches every configured source with bounded concurrency. One
// failing feed never aborts the run.
func (s *feedService) FetchAll(ctx context.Context) []ingestdto.FeedResult {
	maxConcurrent := s.cfg.Ingest.MaxConcurrentFeeds
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	semaphore := make(chan struct{}, maxConcurrent)

	var results []ingestdto.FeedResult
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, source := range s.cfg.Ingest.Sources {
		if !utils.ShouldContinue(ctx) {
			break
		}
		source := source
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result := s.fetchFeed(ctx, source)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	wg.Wait()

	published := 0
	for _, r := range results {
		published += r.Published
	}
	s.logger.Info("Feed run completed",
		logger.IntField("feeds", len(results)),
		logger.IntField("published", published),
	)
	return results
}

func (s *feedService) fetchFeed(ctx context.Context, source config.FeedSource) ingestdto.FeedResult {
	result := ingestdto.FeedResult{Source: source.Name, Errors: []string{}}

	feed, err := s.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		s.logger.Error("Failed to parse feed",
			logger.ErrorField(err), logger.StringField("source", source.Name))
		result.Status = ingestdto.StatusFailed
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	maxItems := s.cfg.Ingest.MaxItemsPerFeed
	if maxItems <= 0 {
		maxItems = 25
	}
	maxAge := s.cfg.Ingest.MaxItemAge
	if maxAge <= 0 {
		maxAge = 48 * time.Hour
	}
	oldest := time.Now().Add(-maxAge)

	for _, item := range feed.Items {
		if !utils.ShouldContinue(ctx) {
			break
		}
		if result.Published >= maxItems {
			break
		}
		if item.PublishedParsed == nil || item.PublishedParsed.Before(oldest) {
			result.Skipped++
			continue
		}

		externalID := hashIdentifier(item.Link, item.Published)
		if _, seen := s.seenCache.Get(externalID); seen {
			result.Skipped++
			continue
		}
		if s.isBlacklisted(item.Link) {
			s.logger.Warn("Skipping item from blacklisted domain", logger.StringField("link", item.Link))
			result.Skipped++
			continue
		}

		if err := s.publishItem(ctx, source, item, externalID); err != nil {
			s.logger.Error("Failed to publish feed item",
				logger.ErrorField(err), logger.StringField("link", item.Link))
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		s.seenCache.Set(externalID, struct{}{}, cache.DefaultExpiration)
		result.Published++
	}

	switch {
	case len(result.Errors) == 0:
		result.Status = ingestdto.StatusSuccess
	case result.Published == 0:
		result.Status = ingestdto.StatusFailed
	default:
		result.Status = ingestdto.StatusSkipped
	}
	return result
}

func (s *feedService) publishItem(ctx context.Context, source config.FeedSource, item *gofeed.Item, externalID string) error {
	body := item.Description
	if source.FetchBody && item.Link != "" {
		fetched, err := s.fetchBody(ctx, item.Link)
		if err != nil {
			// Fall back to the feed summary rather than dropping the item.
			s.logger.Warn("Failed to fetch item body, using feed summary",
				logger.ErrorField(err), logger.StringField("link", item.Link))
		} else {
			body = fetched
		}
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	}

	ingested := pipelinedto.IngestedContentItem{
		ExternalID:  externalID,
		Title:       utils.CleanToValidUTF8(item.Title),
		Body:        utils.CleanToValidUTF8(body),
		PublishedAt: *item.PublishedParsed,
		SourceKind:  source.SourceKind,
		Source:      source.Name,
		Author:      author,
	}
	payload, err := json.Marshal(ingested)
	if err != nil {
		return fmt.Errorf("failed to marshal ingested item: %w", err)
	}

	return s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamContentIngested,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: s.cfg.Redis.StreamMaxLen,
	}).Err()
}

// fetchBody downloads the article page and extracts its readable text.
// Downloads are rate limited across the whole run.
func (s *feedService) fetchBody(ctx context.Context, link string) (string, error) {
	if err := s.bodyLimiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	doc, err := readability.NewDocument(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	content := doc.Content()

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(content)))
	if err != nil {
		return "", fmt.Errorf("failed to strip markup: %w", err)
	}

	text := strings.TrimSpace(parsed.Text())
	text = strings.Join(strings.Fields(text), " ")
	return text, nil
}

func (s *feedService) isBlacklisted(link string) bool {
	if len(s.cfg.Ingest.BlacklistedDomains) == 0 {
		return false
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return utils.ContainsString(s.cfg.Ingest.BlacklistedDomains, parsed.Hostname())
}

func hashIdentifier(link, published string) string {
	sum := md5.Sum([]byte(link + "|" + published))
	return hex.EncodeToString(sum[:])
}
