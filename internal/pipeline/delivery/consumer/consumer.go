package consumer

import (
	"context"
	"sync"
	"time"

	"golang-narrative-engine/internal/pipeline/service"
	"golang-narrative-engine/pkg/common"
	"golang-narrative-engine/pkg/logger"
	"golang-narrative-engine/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisConsumer manages the consumption of ingested content from the Redis
// stream.
type RedisConsumer struct {
	redisClient   *redis.Client
	ingestService service.IngestConsumerService
	logger        *logger.Logger
	readTimeout   time.Duration
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	redisClient *redis.Client,
	ingestService service.IngestConsumerService,
	log *logger.Logger,
	readTimeout time.Duration,
) *RedisConsumer {
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &RedisConsumer{
		redisClient:   redisClient,
		ingestService: ingestService,
		logger:        log,
		readTimeout:   readTimeout,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the consumer's processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started", logger.StringField("stream", common.RedisStreamContentIngested))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, c.readTimeout)
				c.ingestService.ProcessMessages(ctxTimeout)
				cancel()
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
