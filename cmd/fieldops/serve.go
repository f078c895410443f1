package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/fieldops/internal/ai"
	"github.com/kiranshivaraju/fieldops/internal/api"
	"github.com/kiranshivaraju/fieldops/internal/api/handler"
	mw "github.com/kiranshivaraju/fieldops/internal/api/middleware"
	"github.com/kiranshivaraju/fieldops/internal/api/response"
	"github.com/kiranshivaraju/fieldops/internal/audit"
	"github.com/kiranshivaraju/fieldops/internal/cache"
	"github.com/kiranshivaraju/fieldops/internal/config"
	"github.com/kiranshivaraju/fieldops/internal/diagnostics"
	"github.com/kiranshivaraju/fieldops/internal/jobs"
	"github.com/kiranshivaraju/fieldops/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Start the HTTP API server. Configuration comes from the environment (and .env when present).",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx)
}

// serve runs the server until ctx is cancelled, then drains connections.
func serve(ctx context.Context) error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"store_driver", cfg.Store.Driver,
		"ai_provider", cfg.AI.Provider,
		"redis_enabled", cfg.Redis.URL != "",
	)

	// 2. Open the job store
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Optional Redis: assistant cache, rate limiting, audit stream
	var c cache.Cache
	emitters := audit.Multi{audit.NewLogEmitter(nil)}
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected", "audit_stream", cfg.Redis.AuditStream)
		c = redisCache
		emitters = append(emitters, audit.NewStreamEmitter(redisCache, cfg.Redis.AuditStream))
	}

	// 4. Create AI provider
	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	slog.Info("AI provider initialized", "provider", provider.Name())

	// 5. Services and router
	svc := jobs.NewService(st, emitters)
	kb := diagnostics.DefaultKnowledgeBase()
	assistant := ai.NewAssistService(provider, diagnostics.NewBuilder(kb), c,
		cfg.AI.InferenceTimeout, cfg.Redis.AssistCacheTTL)

	router := api.NewRouter(api.Dependencies{
		RateLimit:     mw.NewRateLimit(c, cfg.Server.RateLimitPerMinute),
		HealthHandler: healthHandler(st, c),
		Jobs:          handler.NewJobs(svc),
		Diagnostics:   handler.NewDiagnostics(kb),
		Assist:        handler.NewAssist(svc, assistant),
	})

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.InferenceTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutdown signal received, draining connections...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

// openStore connects the configured backend. Postgres migrations run on startup.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")
		return store.NewPostgresStore(pool), pool.Close, nil

	case config.StoreDriverSQLite:
		sq, err := store.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("sqlite store opened", "path", cfg.Store.SQLitePath)
		return sq, func() { sq.Close() }, nil

	case config.StoreDriverMemory:
		slog.Warn("using in-memory store, jobs are lost on restart")
		return store.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// healthHandler checks database and cache connectivity. A nil cache is
// reported as disabled and does not degrade health.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if c == nil {
			checks["cache"] = "disabled"
		} else if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] == "degraded" || checks["cache"] == "degraded"
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
