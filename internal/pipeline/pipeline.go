// Package pipeline runs a generation end to end: resolve metrics, compose
// content, resolve affiliate links, render the page and optionally save it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/starford/seopress/internal/affiliate"
	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/composer"
	"github.com/starford/seopress/internal/keyword"
	"github.com/starford/seopress/internal/models"
)

// MetricsResolver resolves SEO metrics for a keyword.
type MetricsResolver interface {
	Resolve(keyword string) (models.SeoMetrics, error)
}

// ContentComposer produces structured content for a keyword.
type ContentComposer interface {
	Compose(ctx context.Context, keyword string, m models.SeoMetrics) (composer.Result, error)
}

// LinkInserter resolves affiliate placeholders.
type LinkInserter interface {
	Apply(c models.ComposedContent) (models.ComposedContent, affiliate.Report)
}

// ArtifactStore persists and reads artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, draft models.Artifact, trigger models.Trigger) (models.Artifact, bool, error)
	Get(ctx context.Context, id string) (models.Artifact, error)
	TodayDailyID(kw string) string
}

// Notifier is told about every newly created artifact.
type Notifier interface {
	ArtifactCreated(s models.ArtifactSummary)
}

// Result is the outcome of a manual generation.
type Result struct {
	RunID       string
	Keyword     string
	Content     models.ComposedContent
	HTML        string
	Source      models.Source
	Reason      string
	SEO         models.SeoMetrics
	Links       affiliate.Report
	GeneratedAt time.Time
	Artifact    *models.Artifact
}

// Pipeline wires the generation stages together. It is safe for concurrent use.
type Pipeline struct {
	seo      MetricsResolver
	composer ContentComposer
	links    LinkInserter
	store    ArtifactStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	daily singleflight.Group
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifier registers n for created artifacts.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline.
func New(seo MetricsResolver, c ContentComposer, links LinkInserter, store ArtifactStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		seo:      seo,
		composer: c,
		links:    links,
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Generate runs a manual generation. With save set the post is persisted as
// a new manual artifact and the run no longer follows ctx cancellation, so a
// caller that goes away cannot turn an AI post into a stored fallback.
func (p *Pipeline) Generate(ctx context.Context, kw string, save bool) (Result, error) {
	if save {
		ctx = context.WithoutCancel(ctx)
	}
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID, "trigger", models.TriggerManual)
	res, err := p.build(ctx, kw, log)
	if err != nil {
		return Result{}, err
	}
	res.RunID = runID
	if !save {
		return res, nil
	}
	a, _, err := p.store.Save(ctx, draft(res), models.TriggerManual)
	if err != nil {
		log.Error("save failed", "keyword", res.Keyword, "error", err)
		return Result{}, err
	}
	res.Artifact = &a
	p.notify(a)
	return res, nil
}

type dailyOutcome struct {
	artifact models.Artifact
	created  bool
}

// RunDaily ensures today's daily artifact for kw exists. When it already does
// no content is generated and created is false. Concurrent calls for the same
// keyword share one run, which ignores the cancellation of whichever caller
// started it.
func (p *Pipeline) RunDaily(ctx context.Context, kw string) (models.Artifact, bool, error) {
	kw, err := keyword.Normalize(kw)
	if err != nil {
		return models.Artifact{}, false, err
	}
	id := p.store.TodayDailyID(kw)

	v, err, _ := p.daily.Do(id, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		log := p.logger.With("run_id", uuid.NewString(), "trigger", models.TriggerDaily, "id", id)

		existing, err := p.store.Get(ctx, id)
		if err == nil && existing.Keyword != kw {
			return nil, fmt.Errorf("pipeline: %s belongs to keyword %q: %w", id, existing.Keyword, apperr.ErrStorage)
		}
		if err == nil {
			log.Info("daily artifact already exists")
			return dailyOutcome{artifact: existing}, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}

		res, err := p.build(ctx, kw, log)
		if err != nil {
			return nil, err
		}
		a, created, err := p.store.Save(ctx, draft(res), models.TriggerDaily)
		if err != nil {
			log.Error("save failed", "error", err)
			return nil, err
		}
		if created {
			p.notify(a)
		}
		return dailyOutcome{artifact: a, created: created}, nil
	})
	if err != nil {
		return models.Artifact{}, false, err
	}
	out := v.(dailyOutcome)
	return out.artifact, out.created, nil
}

func (p *Pipeline) build(ctx context.Context, kw string, log *slog.Logger) (Result, error) {
	started := p.now()

	m, err := p.seo.Resolve(kw)
	if err != nil {
		return Result{}, err
	}
	kw = m.Keyword

	composed, err := p.composer.Compose(ctx, kw, m)
	if err != nil {
		log.Error("compose failed", "keyword", kw, "error", err)
		return Result{}, err
	}

	content, report := p.links.Apply(composed.Content)
	generatedAt := p.now()
	page, err := composer.Render(ctx, content, generatedAt)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: %w: %w", apperr.ErrGeneration, err)
	}

	log.Info("post generated",
		"keyword", kw,
		"source", composed.Source,
		"reason", composed.Reason,
		"words", content.WordCount,
		"links", len(report.Resolved),
		"duration", p.now().Sub(started))

	return Result{
		Keyword:     kw,
		Content:     content,
		HTML:        page,
		Source:      composed.Source,
		Reason:      composed.Reason,
		SEO:         m,
		Links:       report,
		GeneratedAt: generatedAt,
	}, nil
}

func (p *Pipeline) notify(a models.Artifact) {
	if p.notifier != nil {
		p.notifier.ArtifactCreated(a.Summary())
	}
}

func draft(r Result) models.Artifact {
	return models.Artifact{
		Keyword:                 r.Keyword,
		Title:                   r.Content.Title,
		MetaDescription:         r.Content.MetaDescription,
		Tags:                    r.Content.Tags,
		WordCount:               r.Content.WordCount,
		EstimatedReadingMinutes: r.Content.EstimatedReadingMinutes,
		Source:                  r.Source,
		SEO:                     r.SEO,
		HTMLBody:                r.HTML,
	}
}
