package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-narrative-engine/internal/ingest/config"
	"golang-narrative-engine/internal/ingest/service"
	"golang-narrative-engine/pkg/logger"
	"golang-narrative-engine/pkg/redis"
	"golang-narrative-engine/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the ingest service",
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

	appLogger.Info("Starting Ingest Service", zap.String("name", cfg.App.Name))

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

	// Initialize and start the feed service
	feedSvc := service.NewFeedService(cfg, redisClient.Client, appLogger)
	utils.GoSafe(func() {
		feedSvc.Start(ctx)
	})

	appLogger.Info("Ingest service started.", zap.Int("sources", len(cfg.Ingest.Sources)))

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down ingest service...")
	cancel()
	appLogger.Info("Ingest service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "ingest-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-ingest.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing ingest-service CLI: %s\n", err)
		os.Exit(1)
	}
}
