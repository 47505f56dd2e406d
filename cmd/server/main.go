package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/etl/internal/app"
	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/logging"
	"github.com/JonMunkholm/etl/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"warehouse", cfg.Warehouse.Driver,
		"concurrency", cfg.Pipeline.Concurrency,
		"schedule", cfg.Pipeline.Schedule,
		"watch", cfg.Pipeline.Watch,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	server := web.NewServer(a.Pipeline, a.Registry, a.Metrics, cfg)

	// Cancellable context for scheduled runs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	if cfg.Pipeline.Schedule != "" {
		go func() {
			if err := a.Pipeline.StartScheduler(jobCtx, cfg.Pipeline.Schedule); err != nil {
				slog.Error("pipeline scheduler failed", "error", err)
			}
		}()
	}
	if cfg.Pipeline.Watch {
		dir := filepath.Join(cfg.Storage.Root, cfg.Storage.RawContainer)
		go func() {
			if err := a.Pipeline.Watch(jobCtx, dir, cfg.Pipeline.WatchDebounce); err != nil {
				slog.Error("raw directory watch failed", "error", err)
			}
		}()
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let an active run finish its outputs
		limiter := a.Pipeline.Limiter()
		if limiter.Active() {
			slog.Info("waiting for pipeline run to complete")
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("pipeline run did not complete in time", "error", err)
			} else {
				slog.Info("pipeline run completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
