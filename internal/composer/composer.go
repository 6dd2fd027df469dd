// Package composer turns a keyword and its SEO metrics into a structured post,
// using the AI backend when one is configured and a deterministic template
// otherwise or when the backend fails.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/seopress/internal/ai"
	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/keyword"
	"github.com/starford/seopress/internal/models"
)

// Reasons recorded for the chosen path.
const (
	ReasonSuccess      = "success"
	ReasonNoCredential = "no_credential"
	ReasonTimeout      = "timeout"
	ReasonError        = "error"
	ReasonParseFailure = "parse_failure"
)

// Result is a composed post plus how it was produced.
type Result struct {
	Content models.ComposedContent
	Source  models.Source
	Reason  string
}

// Composer selects between the AI branch and the fallback branch.
type Composer struct {
	backend  ai.Backend
	logger   *slog.Logger
	fallback func(string, models.SeoMetrics) models.ComposedContent
}

// New creates a Composer. A nil backend means no AI credential is configured
// and every post comes from the fallback branch.
func New(backend ai.Backend, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{backend: backend, logger: logger, fallback: Fallback}
}

// Compose produces content for kw. It only fails with apperr.ErrInvalidKeyword
// or, when even the fallback cannot produce valid content, apperr.ErrGeneration.
func (c *Composer) Compose(ctx context.Context, kw string, m models.SeoMetrics) (Result, error) {
	kw, err := keyword.Normalize(kw)
	if err != nil {
		return Result{}, err
	}
	if c.backend == nil {
		return c.useFallback(kw, m, ReasonNoCredential, nil)
	}

	raw, err := c.backend.Complete(ctx, BuildPrompt(kw, m))
	if err != nil {
		reason := ReasonError
		if ai.IsTimeout(err) {
			reason = ReasonTimeout
		}
		return c.useFallback(kw, m, reason, err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		return c.useFallback(kw, m, ReasonParseFailure, err)
	}
	if parsed.Title == "" {
		parsed.Title = keyword.Title(kw) + ": The Complete Guide"
	}
	content := finalize(parsed, kw, m)
	if err := validate(content); err != nil {
		return c.useFallback(kw, m, ReasonParseFailure, err)
	}

	c.logger.Info("content composed", "keyword", kw, "source", models.SourceAI, "reason", ReasonSuccess,
		"words", content.WordCount, "sections", len(content.Sections), "faq", len(content.FAQ))
	return Result{Content: content, Source: models.SourceAI, Reason: ReasonSuccess}, nil
}

func (c *Composer) useFallback(kw string, m models.SeoMetrics, reason string, cause error) (Result, error) {
	attrs := []any{"keyword", kw, "source", models.SourceFallback, "reason", reason}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	c.logger.Warn("using fallback content", attrs...)

	content, err := c.runFallback(kw, m)
	if err != nil {
		c.logger.Error("fallback generation failed", "keyword", kw, "error", err)
		return Result{}, err
	}
	content = finalize(content, kw, m)
	if err := validate(content); err != nil {
		return Result{}, fmt.Errorf("fallback content: %w: %w", apperr.ErrGeneration, err)
	}
	return Result{Content: content, Source: models.SourceFallback, Reason: reason}, nil
}

func (c *Composer) runFallback(kw string, m models.SeoMetrics) (out models.ComposedContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fallback panicked: %v: %w", r, apperr.ErrGeneration)
		}
	}()
	return c.fallback(kw, m), nil
}

var (
	errNoTitle = errors.New("empty title")
	errNoWords = errors.New("no words")
)

func validate(c models.ComposedContent) error {
	if c.Title == "" {
		return errNoTitle
	}
	if c.WordCount == 0 || len(c.Sections) == 0 {
		return errNoWords
	}
	return nil
}
