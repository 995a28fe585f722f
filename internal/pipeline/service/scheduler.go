package service

import (
	"context"
	"time"

	"golang-narrative-engine/internal/pipeline/config"
	"golang-narrative-engine/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SchedulerService drives the periodic pipeline runs: detection, metrics
// and retention cleanup, each on its own cron expression.
type SchedulerService interface {
	Start(ctx context.Context)
	ProcessDue(ctx context.Context)
}

type scheduledJob struct {
	name     string
	schedule cron.Schedule
	nextRun  time.Time
	run      func(ctx context.Context)
}

// NewSchedulerService creates a scheduler for the pipeline's periodic jobs.
// Jobs with an empty or unparseable cron expression are skipped with a log.
func NewSchedulerService(pipeline PipelineService, cfg *config.Config, log *logger.Logger) SchedulerService {
	s := &schedulerService{
		pipeline:        pipeline,
		cfg:             cfg,
		logger:          log,
		pollingInterval: cfg.Scheduler.PollingInterval,
	}
	if s.pollingInterval <= 0 {
		s.pollingInterval = 30 * time.Second
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	now := time.Now()

	register := func(name, expr string, run func(ctx context.Context)) {
		if expr == "" {
			log.Warn("Scheduler job has no cron expression, skipping", logger.StringField("job", name))
			return
		}
		schedule, err := parser.Parse(expr)
		if err != nil {
			log.Error("Failed to parse cron expression, skipping job",
				logger.ErrorField(err), logger.StringField("job", name), logger.StringField("expr", expr))
			return
		}
		s.jobs = append(s.jobs, &scheduledJob{
			name:     name,
			schedule: schedule,
			nextRun:  schedule.Next(now),
			run:      run,
		})
	}

	register("narrative-detection", cfg.Scheduler.DetectionCron, func(ctx context.Context) {
		if _, err := pipeline.RunDetection(ctx); err != nil {
			log.Error("Detection run failed", logger.ErrorField(err))
		}
	})
	register("metrics-calculation", cfg.Scheduler.MetricsCron, func(ctx context.Context) {
		if _, err := pipeline.RunMetrics(ctx); err != nil {
			log.Error("Metrics run failed", logger.ErrorField(err))
		}
	})
	register("metrics-retention-cleanup", cfg.Scheduler.CleanupCron, func(ctx context.Context) {
		if _, err := pipeline.CleanupMetrics(ctx); err != nil {
			log.Error("Retention cleanup failed", logger.ErrorField(err))
		}
	})

	return s
}

type schedulerService struct {
	pipeline        PipelineService
	cfg             *config.Config
	logger          *logger.Logger
	pollingInterval time.Duration
	jobs            []*scheduledJob
}

// Start begins the periodic job processing loop.
func (s *schedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	s.logger.Info("Pipeline scheduler started", logger.IntField("jobs", len(s.jobs)))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Pipeline scheduler stopping")
			return
		case <-ticker.C:
			s.ProcessDue(ctx)
		}
	}
}

// ProcessDue runs every job whose next execution time has passed and
// advances its schedule.
func (s *schedulerService) ProcessDue(ctx context.Context) {
	now := time.Now()
	for _, job := range s.jobs {
		if job.nextRun.After(now) {
			continue
		}
		s.logger.Info("Running scheduled job", logger.StringField("job", job.name))
		job.run(ctx)
		job.nextRun = job.schedule.Next(time.Now())
	}
}
