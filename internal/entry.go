// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/prasetya/wilayah/internal/api"
	"github.com/prasetya/wilayah/internal/groundtruth"
)

// RunServe starts the area lookup service with the given options.
func RunServe(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Serve.Address()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	mgr, err := newManager(cfg, logger)
	if err != nil {
		return err
	}
	dir, err := mgr.Resolve(ctx, app.groundTruthDir, app.forceRefresh)
	if err != nil {
		return err
	}
	ix, err := loadIndex(dir, logger)
	if err != nil {
		return err
	}

	// The live index is swapped atomically when the watcher rebuilds it, so
	// in-flight requests keep the snapshot they started with.
	var current atomic.Pointer[groundtruth.Index]
	current.Store(ix)

	apiRouter := api.NewRouter(current.Load, mgr.VersionInfo)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.Serve.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.Serve.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the ground-truth directory and swap in rebuilt indexes.
	g.Go(func() error {
		return groundtruth.Watch(gCtx, dir, logger, func(rebuilt *groundtruth.Index) {
			current.Store(rebuilt)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Serve.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
