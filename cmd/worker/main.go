package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/finport/finport/internal/app"
	"github.com/finport/finport/internal/masterdata"
	"github.com/finport/finport/internal/platform/cache"
	"github.com/finport/finport/internal/platform/db"
	"github.com/finport/finport/internal/report"
	"github.com/finport/finport/internal/rollup"
	"github.com/finport/finport/internal/variance"
	"github.com/finport/finport/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	calc := variance.NewCalculator(nil)
	masterdataService := masterdata.NewService(masterdata.NewRepository(pool))
	reportRepo := report.NewRepository(pool)
	rollupEngine := rollup.NewEngine(calc, cfg.RiskPolicy(), cfg.RankingSize)
	rollupCache := rollup.NewCache(redisClient, cfg.RollupCacheTTL)
	rollupService := rollup.NewService(masterdataService, reportRepo, rollupEngine, rollupCache, logger)

	notifyJob := jobs.NewNotifyTransitionJob(logger, nil)
	warmupJob := jobs.NewRollupWarmupJob(rollupService, logger)

	warmupTask, err := jobs.NewRollupWarmupTask(jobs.RollupWarmupPayload{YTD: true})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeNotifyTransition, Handler: notifyJob.Handle},
			{Type: jobs.TaskTypeRollupWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
