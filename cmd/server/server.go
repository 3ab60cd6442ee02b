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

	"github.com/kiranshivaraju/clipper/internal/api"
	"github.com/kiranshivaraju/clipper/internal/api/handler"
	"github.com/kiranshivaraju/clipper/internal/api/response"
	"github.com/kiranshivaraju/clipper/internal/cache"
	"github.com/kiranshivaraju/clipper/internal/clipping"
	"github.com/kiranshivaraju/clipper/internal/config"
	"github.com/kiranshivaraju/clipper/internal/media"
	"github.com/kiranshivaraju/clipper/internal/media/ffmpeg"
	"github.com/kiranshivaraju/clipper/internal/media/ffprobe"
	"github.com/kiranshivaraju/clipper/internal/media/ytdlp"
	"github.com/kiranshivaraju/clipper/internal/registry"
	"github.com/kiranshivaraju/clipper/internal/store"
	"github.com/kiranshivaraju/clipper/internal/workspace"
)

func run(parent context.Context, cfg *config.Config) error {
	slog.Info("config loaded", "env", cfg.Server.Env, "output_dir", cfg.Jobs.OutputDir)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Claim the output root
	layout := workspace.New(cfg.Jobs.OutputDir)
	unlock, err := layout.Lock()
	if err != nil {
		return fmt.Errorf("lock output dir: %w", err)
	}
	defer unlock()

	// 2. Job archive (optional)
	var archive store.Store = store.NopStore{}
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")
		archive = store.NewPostgresStore(pool)
	}

	// 3. Snapshot mirror (optional)
	var snapshots cache.Cache = cache.NopCache{}
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")
		snapshots = redisCache
	}

	// 4. External tools. Missing tools fail jobs, not startup.
	tools := media.DependencyStatus(toolCommands(cfg.Tools))
	if err := media.CheckDependencies(tools); err != nil {
		slog.Warn("media tools unavailable", "error", err)
	}

	// 5. Registry, sweeper and clipping service
	logger := slog.Default()
	reg := registry.New()
	sweeper := clipping.NewSweeper(reg, layout, snapshots, cfg.Jobs.TTL, logger)
	svc := clipping.NewService(clipping.Deps{
		Registry: reg,
		Layout:   layout,
		Fetcher: ytdlp.New(ytdlp.Config{
			Binary:       cfg.Tools.YtDlpPath,
			Timeout:      cfg.Tools.FetchTimeout,
			TitleTimeout: cfg.Tools.TitleTimeout,
			Format:       cfg.Tools.YtDlpFormat,
		}, logger),
		Prober:        ffprobe.NewProber(cfg.Tools.FFprobePath, cfg.Tools.ProbeTimeout),
		Transcoder:    ffmpeg.New(cfg.Tools.FFmpegPath, cfg.Tools.TranscodeTimeout),
		Cache:         snapshots,
		Store:         archive,
		Sweeper:       sweeper,
		Logger:        logger,
		SnapshotTTL:   cfg.Redis.SnapshotTTL,
		MaxConcurrent: cfg.Jobs.MaxConcurrent,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweeper.Run(sweepCtx, cfg.Jobs.SweepInterval)

	// 6. Build router with dependencies
	router := api.NewRouter(api.Dependencies{
		HealthHandler:      healthHandler(archive, snapshots, tools),
		ProcessHandler:     handler.NewProcessHandler(svc),
		JobHandler:         handler.NewJobHandler(reg, snapshots),
		ClipHandler:        handler.NewClipHandler(reg, layout),
		BundleHandler:      handler.NewBundleHandler(reg, layout),
		HistoryHandler:     handler.NewHistoryHandler(archive),
		ListHistoryHandler: handler.NewListHistoryHandler(archive),
	})

	// 7. Start HTTP server. No WriteTimeout: clip and bundle downloads stream.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
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

	// Graceful shutdown: stop accepting requests, then give running jobs
	// whatever is left of the timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopSweep()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := svc.Drain(shutdownCtx); err != nil {
		slog.Warn("jobs still running at shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler reports archive, cache and media tool status. Disabled
// backends do not degrade the service.
func healthHandler(s store.Store, c cache.Cache, tools []media.Tool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
			"tools":    "ok",
		}

		if _, ok := s.(store.NopStore); ok {
			checks["database"] = "disabled"
		} else if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if _, ok := c.(cache.NopCache); ok {
			checks["cache"] = "disabled"
		} else if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}
		if media.CheckDependencies(tools) != nil {
			checks["tools"] = "degraded"
		}

		for _, v := range checks {
			if v == "degraded" {
				response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
					"One or more services degraded", map[string]any{"services": checks, "tools": tools})
				return
			}
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
			"tools":    tools,
		})
	}
}
