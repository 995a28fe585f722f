package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-narrative-engine/internal/pipeline/config"
	"golang-narrative-engine/internal/pipeline/delivery/consumer"
	"golang-narrative-engine/internal/pipeline/repository"
	"golang-narrative-engine/internal/pipeline/service"
	"golang-narrative-engine/pkg/common"
	"golang-narrative-engine/pkg/logger"
	"golang-narrative-engine/pkg/postgres"
	"golang-narrative-engine/pkg/redis"
	"golang-narrative-engine/pkg/telegram"
	"golang-narrative-engine/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the pipeline service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Pipeline Service", zap.String("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Create the consumer group if it doesn't exist
	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamContentIngested, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	itemRepo := repository.NewContentItemRepository(db.DB)
	entityRepo := repository.NewContentEntityRepository(db.DB)
	narrativeRepo := repository.NewNarrativeRepository(db.DB)
	metricRepo := repository.NewNarrativeMetricRepository(db.DB)

	// Initialize Telegram notifier
	var notifier telegram.Notifier = telegram.NoopNotifier{}
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	// Initialize analysis components
	extractor := service.NewEntityExtractor()
	classifier := service.NewSentimentClassifier(nil, nil)
	clusterer := service.NewNarrativeClusterer()
	metricsCalc := service.NewMetricsCalculator(narrativeRepo, metricRepo, cfg.Metrics, appLogger)

	// Initialize pipeline service
	pipelineSvc := service.NewPipelineService(
		cfg,
		appLogger,
		redisClient.Client,
		extractor,
		classifier,
		clusterer,
		metricsCalc,
		itemRepo,
		entityRepo,
		narrativeRepo,
		metricRepo,
		notifier,
	)
	ingestSvc := service.NewIngestConsumerService(redisClient.Client, itemRepo, pipelineSvc, appLogger)

	// Initialize and start the Redis consumer
	redisConsumer := consumer.NewRedisConsumer(redisClient.Client, ingestSvc, appLogger, 0)
	redisConsumer.Start(ctx)

	// Initialize and start the scheduler
	schedulerSvc := service.NewSchedulerService(pipelineSvc, cfg, appLogger)
	utils.GoSafe(func() {
		schedulerSvc.Start(ctx)
	})

	appLogger.Info("Pipeline service started. Waiting for content...")

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down pipeline service...")
	cancel()
	redisConsumer.Stop()
	appLogger.Info("Pipeline service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "pipeline-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-pipeline.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing pipeline-service CLI: %s\n", err)
		os.Exit(1)
	}
}
