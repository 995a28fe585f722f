package config

import (
	"time"

	"golang-narrative-engine/pkg/config"
)

// Detection holds narrative detection thresholds.
type Detection struct {
	MinItems                 int `mapstructure:"min_items"`
	WindowHours              int `mapstructure:"window_hours"`
	MinSharedEntities        int `mapstructure:"min_shared_entities"`
	MaxKeywords              int `mapstructure:"max_keywords"`
	MaxConcurrentExtractions int `mapstructure:"max_concurrent_extractions"`
}

// Metrics holds the metric window configuration.
type Metrics struct {
	ShortWindow   time.Duration `mapstructure:"short_window"`
	LongWindow    time.Duration `mapstructure:"long_window"`
	RetentionDays int           `mapstructure:"retention_days"`
}

// Scheduler holds the cron expressions driving periodic runs.
type Scheduler struct {
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	DetectionCron   string        `mapstructure:"detection_cron"`
	MetricsCron     string        `mapstructure:"metrics_cron"`
	CleanupCron     string        `mapstructure:"cleanup_cron"`
}

// Config holds the full configuration for the pipeline service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Detection Detection       `mapstructure:"detection"`
	Metrics   Metrics         `mapstructure:"metrics"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
}

// Load loads the pipeline configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
