package config

import (
	"time"

	"golang-narrative-engine/pkg/config"
)

// FeedSource is one configured upstream feed.
type FeedSource struct {
	Name       string `mapstructure:"name"`
	URL        string `mapstructure:"url"`
	SourceKind string `mapstructure:"source_kind"`
	FetchBody  bool   `mapstructure:"fetch_body"`
}

// Ingest holds feed ingestion configuration.
type Ingest struct {
	FetchInterval      time.Duration `mapstructure:"fetch_interval"`
	MaxConcurrentFeeds int           `mapstructure:"max_concurrent_feeds"`
	MaxItemsPerFeed    int           `mapstructure:"max_items_per_feed"`
	MaxItemAge         time.Duration `mapstructure:"max_item_age"`
	BodyFetchPerSecond float64       `mapstructure:"body_fetch_per_second"`
	BlacklistedDomains []string      `mapstructure:"blacklisted_domains"`
	Sources            []FeedSource  `mapstructure:"sources"`
}

// Config holds the full configuration for the ingest service.
type Config struct {
	App    config.App    `mapstructure:"app"`
	Logger config.Logger `mapstructure:"logger"`
	Redis  config.Redis  `mapstructure:"redis"`
	Ingest Ingest        `mapstructure:"ingest"`
}

// Load loads the ingest configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
