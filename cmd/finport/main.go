package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/finport/finport/internal/app"
	"github.com/finport/finport/internal/masterdata"
	"github.com/finport/finport/internal/observability"
	"github.com/finport/finport/internal/period"
	"github.com/finport/finport/internal/platform/cache"
	"github.com/finport/finport/internal/platform/db"
	"github.com/finport/finport/internal/report"
	"github.com/finport/finport/internal/rollup"
	"github.com/finport/finport/internal/shared"
	"github.com/finport/finport/internal/variance"
	"github.com/finport/finport/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	metrics := observability.NewMetrics()
	calc := variance.NewCalculator(nil)
	gate := period.NewGate(cfg.EntryGraceDays)

	notifyClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := notifyClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	masterdataRepo := masterdata.NewRepository(pool)
	masterdataService := masterdata.NewService(masterdataRepo)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService)

	auditLogger := shared.NewAuditLogger(pool, logger)
	reportRepo := report.NewRepository(pool)
	reportService := report.NewService(reportRepo, gate, auditLogger, notifyClient, calc, logger)
	reportHandler := report.NewHandler(logger, reportService)

	rollupEngine := rollup.NewEngine(calc, cfg.RiskPolicy(), cfg.RankingSize)
	rollupCache := rollup.NewCache(redisClient, cfg.RollupCacheTTL)
	rollupService := rollup.NewService(masterdataService, reportRepo, rollupEngine, rollupCache, logger)
	rollupService.SetBuildObserver(metrics.ObserveRollupBuild)
	rollupHandler := rollup.NewHandler(logger, rollupService)

	reportService.SetTransitionObserver(func(action report.Action) {
		metrics.ObserveTransition(string(action))
		if action == report.ActionApprove {
			// An approval changes the aggregation inputs.
			if err := rollupService.Invalidate(context.Background()); err != nil {
				logger.Warn("rollup invalidate", slog.Any("error", err))
			}
		}
	})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		ReportHandler:     reportHandler,
		RollupHandler:     rollupHandler,
		MasterdataHandler: masterdataHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
