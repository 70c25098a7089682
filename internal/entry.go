// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notecache/internal/api"
	"github.com/starford/notecache/internal/journal"
	"github.com/starford/notecache/internal/mcpserver"
	"github.com/starford/notecache/internal/noteservice"
	"github.com/starford/notecache/internal/sse"
	"github.com/starford/notecache/internal/storage"
	"github.com/starford/notecache/internal/watcher"
)

func build(opts []Option, defaultLog io.Writer) (*application, *slog.Logger, error) {
	app := &application{logOut: defaultLog}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// openBackends opens the cache directory and the activity journal.
func openBackends(cfg *Config) (*storage.FS, *journal.DB, error) {
	store, err := storage.NewFS(cfg.Cache.Path, storage.WithConfinedNames(cfg.Cache.ConfineNames))
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init journal: %w", err)
	}
	return store, db, nil
}

// Run starts the HTTP service with the given options and blocks until ctx
// is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := build(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("cache_path", cfg.Cache.Path),
		slog.Bool("confine_names", cfg.Cache.ConfineNames),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, db, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc := noteservice.NewService(store, db, logger)
	apiRouter := api.NewRouter(api.NewHandler(svc, db, logger), broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.AccessLog(logger))
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := os.Stat(store.Root()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"cache directory unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Announce cache-directory changes on the SSE feed.
	g.Go(func() error {
		if err := watcher.Watch(gCtx, store.Root(), logger, broker.PublishChange); err != nil {
			logger.Warn("watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		var err error
		if app.listener != nil {
			err = httpServer.Serve(app.listener)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Close the broker first so open SSE streams return.
		broker.Close()
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

// RunMCP serves the note tools over stdio. Only the cache (and optional
// journal) settings are used. Logs go to stderr because stdout carries the
// protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, logger, err := build(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config

	store, db, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := noteservice.NewService(store, db, logger)
	logger.Info("MCP server starting", slog.String("cache_path", store.Root()))
	return mcpserver.New(svc, db).ServeStdio()
}
