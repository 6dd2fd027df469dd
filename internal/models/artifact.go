// Package models defines the domain types for seopress.
package models

import "time"

// Source tells whether content came from the AI backend or the deterministic fallback.
type Source string

// Content sources.
const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Trigger is the kind of event that started a generation.
type Trigger string

// Trigger kinds.
const (
	TriggerManual Trigger = "manual"
	TriggerDaily  Trigger = "daily"
)

// Valid reports whether t is a known trigger kind.
func (t Trigger) Valid() bool {
	return t == TriggerManual || t == TriggerDaily
}

// HeadingLevel is the HTML heading level of a section.
type HeadingLevel string

// Section heading levels.
const (
	H2 HeadingLevel = "h2"
	H3 HeadingLevel = "h3"
)

// TrendPoint is one month of relative search interest.
type TrendPoint struct {
	Month string `json:"month" yaml:"month"`
	Index int    `json:"index" yaml:"index"`
}

// SeoMetrics describes a keyword's search metrics. Immutable once resolved.
type SeoMetrics struct {
	Keyword             string       `json:"keyword" yaml:"keyword"`
	MonthlySearchVolume int          `json:"monthly_search_volume" yaml:"monthly_search_volume"`
	Difficulty          float64      `json:"difficulty" yaml:"difficulty"`
	CPC                 float64      `json:"cpc" yaml:"cpc"`
	RelatedKeywords     []string     `json:"related_keywords" yaml:"related_keywords"`
	CompetitionLevel    string       `json:"competition_level" yaml:"competition_level"`
	SuggestedBid        float64      `json:"suggested_bid" yaml:"suggested_bid"`
	SearchTrends        []TrendPoint `json:"search_trends,omitempty" yaml:"search_trends,omitempty"`
}

// Section is one headed block of a post. Body is an HTML fragment.
type Section struct {
	Heading string       `json:"heading"`
	Body    string       `json:"body"`
	Level   HeadingLevel `json:"level"`
}

// FAQ is a question/answer pair. Answer is an HTML fragment.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ComposedContent is the structured post produced by the composer.
type ComposedContent struct {
	Title                   string    `json:"title"`
	MetaDescription         string    `json:"meta_description"`
	Intro                   string    `json:"intro,omitempty"`
	Sections                []Section `json:"sections"`
	FAQ                     []FAQ     `json:"faq"`
	AffiliatePlaceholders   []string  `json:"affiliate_placeholders"`
	Tags                    []string  `json:"tags"`
	WordCount               int       `json:"word_count"`
	EstimatedReadingMinutes int       `json:"estimated_reading_minutes"`
}

// Artifact is a persisted generated post. It is never mutated after creation.
type Artifact struct {
	ID                      string     `json:"id"`
	Keyword                 string     `json:"keyword"`
	Title                   string     `json:"title"`
	MetaDescription         string     `json:"meta_description"`
	Tags                    []string   `json:"tags"`
	WordCount               int        `json:"word_count"`
	EstimatedReadingMinutes int        `json:"estimated_reading_minutes"`
	CreatedAt               time.Time  `json:"created_at"`
	Source                  Source     `json:"source"`
	Trigger                 Trigger    `json:"trigger"`
	SEO                     SeoMetrics `json:"seo"`
	Checksum                string     `json:"checksum"`
	HTMLBody                string     `json:"html_body"`
}

// Summary returns the lightweight list representation of a.
func (a *Artifact) Summary() ArtifactSummary {
	return ArtifactSummary{
		ID:        a.ID,
		Keyword:   a.Keyword,
		Title:     a.Title,
		Trigger:   a.Trigger,
		Source:    a.Source,
		CreatedAt: a.CreatedAt,
		WordCount: a.WordCount,
		URL:       "/posts/" + a.ID,
	}
}

// ArtifactSummary is returned by list operations.
type ArtifactSummary struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	Title     string    `json:"title"`
	Trigger   Trigger   `json:"trigger"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	WordCount int       `json:"word_count"`
	URL       string    `json:"url"`
}

// FileMetadata is a lightweight description of a stored artifact file.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
