package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/bowjoww/wr-cn-meta-draft/internal/app"
	"github.com/bowjoww/wr-cn-meta-draft/internal/config"
	"github.com/bowjoww/wr-cn-meta-draft/internal/observability"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
	"github.com/bowjoww/wr-cn-meta-draft/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}).Named("refresher")
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}

	scheduler, err := newScheduler(ctx, cfg, pipeline.Refresh, logger)
	if err != nil {
		logger.Error("build scheduler", "error", err)
		os.Exit(1)
	}

	warmStats(ctx, pipeline.Refresh, logger)
	scheduler.Start()
	logger.Info("refresher started",
		"stats_schedule", cfg.RefreshStatsSchedule,
		"hero_map_schedule", cfg.RefreshHeroMapSchedule,
		"workers", cfg.RefreshWorkers,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("running refresh jobs did not finish before shutdown timeout")
	}

	if err := pipeline.Close(); err != nil {
		logger.Warn("close pipeline", "error", err)
	}
	if err := stopProfiling(); err != nil {
		logger.Warn("stop pyroscope", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("shutdown uptrace", "error", err)
	}

	logger.Info("refresher stopped")
}

func newScheduler(ctx context.Context, cfg config.Config, refresh *usecase.RefreshService, logger *logging.Logger) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := scheduler.AddFunc(cfg.RefreshStatsSchedule, func() {
		warmStats(ctx, refresh, logger)
	}); err != nil {
		return nil, err
	}
	if _, err := scheduler.AddFunc(cfg.RefreshHeroMapSchedule, func() {
		if err := refresh.RefreshHeroMap(ctx); err != nil {
			logger.Error("hero map refresh failed", "error", err)
			return
		}
		logger.Info("hero map refreshed")
	}); err != nil {
		return nil, err
	}

	return scheduler, nil
}

func warmStats(ctx context.Context, refresh *usecase.RefreshService, logger *logging.Logger) {
	result, err := refresh.Warm(ctx, usecase.WarmInput{})
	if err != nil {
		logger.Error("stats warm failed", "error", err)
		return
	}
	if result.FailedCount > 0 {
		logger.Warn("stats warm incomplete", "failed", result.FailedCount, "tasks", result.TaskCount)
	}
}
