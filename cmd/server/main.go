// Package main is the entrypoint for the SEOScout API server and workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seoscout/seoscout/internal/ai/factory"
	"github.com/seoscout/seoscout/internal/api"
	"github.com/seoscout/seoscout/internal/api/handler"
	mw "github.com/seoscout/seoscout/internal/api/middleware"
	"github.com/seoscout/seoscout/internal/api/response"
	"github.com/seoscout/seoscout/internal/cache"
	"github.com/seoscout/seoscout/internal/config"
	"github.com/seoscout/seoscout/internal/extract"
	"github.com/seoscout/seoscout/internal/seo"
	"github.com/seoscout/seoscout/internal/store"
	"github.com/seoscout/seoscout/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	taskQueueKey    = "seoscout:tasks"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache and task queue
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	queue, err := worker.NewRedisQueue(cfg.Redis.URL, taskQueueKey, cfg.Worker.PollInterval)
	if err != nil {
		return fmt.Errorf("create task queue: %w", err)
	}
	defer queue.Close()

	// 5. Create AI provider
	aiProvider, err := factory.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())

	// 6. Create store, fetcher and analyzer
	pgStore := store.NewPostgresStore(pool)
	fetcher := extract.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	analyzer := seo.NewAnalyzer(seo.DefaultLimits())

	// 7. Start the worker pool
	policy := worker.RetryPolicy{
		MaxAttempts: cfg.Worker.MaxAttempts,
		BaseDelay:   cfg.Worker.RetryBaseDelay,
		Retryable:   worker.IsTransient,
	}
	orch := worker.NewOrchestrator(
		pgStore, redisCache, fetcher, analyzer,
		aiProvider, queue, policy, cfg.AI.InferenceTimeout,
	)
	workers := worker.NewPool(queue, orch, cfg.Worker.Count)
	workers.Start(ctx)

	// 8. Build router with dependencies
	rateLimit := mw.NewRateLimit(redisCache, cfg.Server.RequestsPerMin)

	deps := api.Dependencies{
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),

		CreateAnalysisHandler: handler.NewCreateAnalysisHandler(pgStore, redisCache, queue),
		GetAnalysisHandler:    handler.NewGetAnalysisHandler(pgStore),
		ListAnalysisHandler:   handler.NewListAnalysisHandler(pgStore),

		CreateOptimizationHandler: handler.NewCreateOptimizationHandler(pgStore, redisCache, queue),
		GetOptimizationHandler:    handler.NewGetOptimizationHandler(pgStore),
		ListOptimizationHandler:   handler.NewListOptimizationHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout; workers stop with the signal context.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	workers.Wait()

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
