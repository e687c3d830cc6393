package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SscSPs/fx_rates_service/internal/core/services"
	"github.com/SscSPs/fx_rates_service/internal/platform/config"
	"github.com/SscSPs/fx_rates_service/internal/providers"
	"github.com/SscSPs/fx_rates_service/internal/repositories/cache"
	"github.com/SscSPs/fx_rates_service/internal/repositories/database/pgsql"
	"github.com/SscSPs/fx_rates_service/internal/repositories/queue"
	"github.com/SscSPs/fx_rates_service/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	rateRepo := pgsql.NewPgxRateRepository(dbPool)

	// Cache layer: one KV store shared by all typed caches.
	kv := cache.NewMemoryCache()
	limits := cache.NewProviderLimitCache(kv)
	corrected := cache.NewCorrectedDayCache(kv)
	listCache := cache.NewProviderListCache(kv)

	// Provider adapters; sources without credentials come up disabled.
	client := providers.NewClient(logger)
	provs, disabled := providers.BuildAll(cfg.Providers, client, cfg.CurrencyPrecision)

	registry := services.NewRegistryService(logger, provs, disabled, rateRepo, listCache)
	importer := services.NewImporterService(logger, registry, rateRepo, limits, corrected, cfg.CurrencyPrecision)

	taskQueue := queue.NewMemoryQueue(logger, 0)

	// Query surface for embedders; the daemon's own loop only fetches.
	_ = services.NewRateService(logger, registry, rateRepo, corrected,
		cache.NewRateResponseCache(kv), cache.NewTimeseriesCache(kv), taskQueue, cfg.CurrencyPrecision)

	worker := services.NewFetchWorker(logger, importer, registry, taskQueue, limits)
	taskQueue.Start(ctx, worker, cfg.WorkerCount)
	logger.Info("Fetch workers started", slog.Int("workers", cfg.WorkerCount))

	worker.StartBackfill(ctx, cfg.BackfillDays)

	<-ctx.Done()
	logger.Info("Shutdown signal received, draining workers...")
	taskQueue.Wait()
	logger.Info("Shutdown complete.")
}
