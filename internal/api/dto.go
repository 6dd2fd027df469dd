package api

import (
	"time"

	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/pipeline"
)

// GenerateResponse is returned by GET /generate.
type GenerateResponse struct {
	RunID                   string                  `json:"run_id"`
	Keyword                 string                  `json:"keyword" example:"wireless earbuds"`
	Title                   string                  `json:"title"`
	MetaDescription         string                  `json:"meta_description"`
	Source                  models.Source           `json:"source" example:"fallback"`
	FallbackReason          string                  `json:"fallback_reason,omitempty" example:"no_credential"`
	WordCount               int                     `json:"word_count"`
	EstimatedReadingMinutes int                     `json:"estimated_reading_minutes"`
	Content                 models.ComposedContent  `json:"content"`
	HTML                    string                  `json:"html"`
	SEOData                 models.SeoMetrics       `json:"seo_data"`
	UnresolvedLinks         []string                `json:"unresolved_links"`
	GeneratedAt             time.Time               `json:"generated_at"`
	Saved                   bool                    `json:"saved"`
	Artifact                *models.ArtifactSummary `json:"artifact,omitempty"`
}

func newGenerateResponse(r pipeline.Result) GenerateResponse {
	resp := GenerateResponse{
		RunID:                   r.RunID,
		Keyword:                 r.Keyword,
		Title:                   r.Content.Title,
		MetaDescription:         r.Content.MetaDescription,
		Source:                  r.Source,
		WordCount:               r.Content.WordCount,
		EstimatedReadingMinutes: r.Content.EstimatedReadingMinutes,
		Content:                 r.Content,
		HTML:                    r.HTML,
		SEOData:                 r.SEO,
		UnresolvedLinks:         r.Links.Unresolved,
		GeneratedAt:             r.GeneratedAt,
	}
	if r.Source == models.SourceFallback {
		resp.FallbackReason = r.Reason
	}
	if r.Artifact != nil {
		s := r.Artifact.Summary()
		resp.Saved = true
		resp.Artifact = &s
	}
	return resp
}

// DailyResponse is returned by POST /generate-daily.
type DailyResponse struct {
	Created  bool            `json:"created"`
	Artifact models.Artifact `json:"artifact"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// IndexResponse describes the API at GET /.
type IndexResponse struct {
	Name      string            `json:"name"`
	Endpoints map[string]string `json:"endpoints"`
}
