package internal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/seopress/internal/affiliate"
	"github.com/starford/seopress/internal/ai"
	"github.com/starford/seopress/internal/artifacts"
	"github.com/starford/seopress/internal/composer"
	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/pipeline"
	"github.com/starford/seopress/internal/seo"
	"github.com/starford/seopress/internal/storage"
)

// services are the long-lived components shared by every command.
type services struct {
	files    *storage.FS
	db       *index.DB
	store    *artifacts.Store
	pipeline *pipeline.Pipeline
}

func (s *services) Close() error {
	return s.db.Close()
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.Level(),
	}))
}

// newServices opens storage and the index and builds the pipeline.
func newServices(cfg *Config, logger *slog.Logger, popts ...pipeline.Option) (*services, error) {
	files, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	metrics := seo.NewProvider()
	if cfg.SEO.DataFile != "" {
		if metrics, err = seo.LoadProvider(cfg.SEO.DataFile); err != nil {
			db.Close()
			return nil, fmt.Errorf("load seo data: %w", err)
		}
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	store := artifacts.NewStore(files, db,
		artifacts.WithLocation(loc),
		artifacts.WithLogger(logger))

	popts = append([]pipeline.Option{pipeline.WithLogger(logger)}, popts...)
	p := pipeline.New(
		metrics,
		composer.New(newBackend(cfg, logger), logger),
		affiliate.New(affiliate.Config{BaseURL: cfg.Affiliate.BaseURL, MaxLinks: cfg.Affiliate.MaxLinks}, logger),
		store,
		popts...,
	)

	return &services{files: files, db: db, store: store, pipeline: p}, nil
}

// newBackend returns nil when no credential is configured.
func newBackend(cfg *Config, logger *slog.Logger) ai.Backend {
	if !cfg.AI.Enabled() {
		logger.Warn("AI backend disabled: no API key configured, posts will use the fallback template")
		return nil
	}
	client := ai.NewOpenAIClient(ai.ClientConfig{
		Endpoint:    cfg.AI.Endpoint,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, nil)
	return ai.NewRetrier(client, ai.RetryPolicy{
		MaxRetries:  cfg.AI.MaxRetries,
		BaseBackoff: cfg.AI.Backoff,
		Timeout:     cfg.AI.Timeout,
	}, logger)
}
