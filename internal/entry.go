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

	"github.com/starford/seopress/internal/api"
	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/mcpserver"
	"github.com/starford/seopress/internal/pipeline"
	"github.com/starford/seopress/internal/scheduler"
	"github.com/starford/seopress/internal/sse"
)

func newApplication(opts []Option, logOutput io.Writer) (*application, error) {
	app := &application{logOutput: logOutput}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Run starts the HTTP server, the daily scheduler and the index watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, app.logOutput)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("ai_enabled", cfg.AI.Enabled()),
		slog.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		slog.String("daily_keyword", cfg.Scheduler.Keyword),
		slog.String("daily_time", cfg.Scheduler.Time),
		slog.String("log_level", cfg.App.Level().String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, err := newServices(cfg, logger, pipeline.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer svc.Close()

	// Run initial sync.
	if err := index.Sync(ctx, svc.db, svc.files, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	loc, _ := cfg.Scheduler.Location()
	sched, err := scheduler.New(svc.pipeline, cfg.Scheduler.Keyword, cfg.Scheduler.Time, loc,
		scheduler.WithLogger(logger),
		scheduler.WithFireHook(func(r scheduler.FireResult) {
			broker.Publish(sse.Event{Type: sse.TypeSchedulerFired, Data: r})
		}))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	apiRouter := api.NewRouter(api.Deps{
		Generator:    svc.pipeline,
		Posts:        svc.store,
		Scheduler:    sched,
		DailyKeyword: cfg.Scheduler.Keyword,
		Events:       broker,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the index in line with files changed outside the service.
	g.Go(func() error {
		if err := index.Watch(gCtx, svc.db, svc.files, cfg.Storage.Path, logger, broker.PublishFileEvent); err != nil {
			logger.Warn("file watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			return sched.Run(gCtx)
		})
	}

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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has shut down so the
// scheduler and watcher stop too.
var errShutdown = errors.New("shutdown")

// Generate runs one manual generation and returns the pipeline result. Logs go
// to stderr unless WithLogOutput says otherwise.
func Generate(ctx context.Context, keyword string, save bool, opts ...Option) (pipeline.Result, error) {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return pipeline.Result{}, err
	}
	logger := newLogger(app.config, app.logOutput)

	svc, err := newServices(app.config, logger)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer svc.Close()

	return svc.pipeline.Generate(ctx, keyword, save)
}

// ServeMCP runs the MCP server over stdio. Logs go to stderr so they do not
// corrupt the protocol stream.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, app.logOutput)
	slog.SetDefault(logger)

	svc, err := newServices(app.config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := index.Sync(ctx, svc.db, svc.files, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(svc.pipeline, svc.store, app.config.Scheduler.Keyword).ServeStdio()
}
