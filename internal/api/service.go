package api

import (
	"context"
	"net/http"

	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/pipeline"
	"github.com/starford/seopress/internal/scheduler"
)

// Generator runs the generation pipeline.
type Generator interface {
	Generate(ctx context.Context, keyword string, save bool) (pipeline.Result, error)
	RunDaily(ctx context.Context, keyword string) (models.Artifact, bool, error)
}

// Posts reads persisted artifacts.
type Posts interface {
	List(ctx context.Context, f index.Filter) ([]models.ArtifactSummary, error)
	Count(ctx context.Context, f index.Filter) (int, error)
	Get(ctx context.Context, id string) (models.Artifact, error)
	Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error)
}

// StatusSource exposes the scheduler state.
type StatusSource interface {
	Snapshot() scheduler.State
}

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Generator    Generator
	Posts        Posts
	Scheduler    StatusSource
	DailyKeyword string
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}
