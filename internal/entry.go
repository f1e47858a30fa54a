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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lauf/internal/api"
	"github.com/starford/lauf/internal/entrystore"
	"github.com/starford/lauf/internal/index"
	"github.com/starford/lauf/internal/journal"
	"github.com/starford/lauf/internal/media"
	"github.com/starford/lauf/internal/mcpserver"
	"github.com/starford/lauf/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, db, mediaStore, err := openStores(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Lifecycle coordinator and router.
	svc := journal.NewService(store, db, mediaStore, broker, logger)
	h := api.NewHandler(svc, store, db, logger)
	mh := api.NewMediaHandler(mediaStore, logger)
	apiRouter := api.NewRouter(h, mh, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.CORS.Origins)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the uploads dir for out-of-band removals.
	g.Go(func() error {
		err := media.Watch(gCtx, mediaStore, logger, func(id string) {
			broker.Publish(sse.Event{Type: "media.removed", Data: map[string]string{"id": id}})
		})
		if err != nil {
			logger.Warn("media watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Periodic snapshot flush.
	g.Go(func() error {
		interval := cfg.Data.FlushInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if err := store.Flush(); err != nil {
					logger.Warn("snapshot flush failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
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

		broker.Close()

		// Final snapshot before exit.
		if err := store.Flush(); err != nil {
			logger.Error("final flush failed", slog.String("error", err.Error()))
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

// RunMCP starts the MCP stdio server over the same stores.
func RunMCP(cfg *Config) error {
	// Logs go to stderr: stdout belongs to the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, db, mediaStore, err := openStores(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := mcpserver.New(store, db, mediaStore)
	logger.Info("Starting MCP server on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return store.Flush()
}

// openStores prepares the data directory and opens the entry store, the
// SQLite index (synced), and the media store.
func openStores(cfg *Config, logger *slog.Logger) (*entrystore.Store, *index.DB, *media.Store, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := entrystore.Open(filepath.Join(cfg.Data.Dir, "entries.json"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open entry store: %w", err)
	}

	mediaStore, err := media.NewStore(filepath.Join(cfg.Data.Dir, "uploads"), logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init media store: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return store, db, mediaStore, nil
}
