// Package affiliate resolves {{AFF_LINK_n}} placeholders in composed content
// into affiliate URLs.
package affiliate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/starford/seopress/internal/models"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultBaseURL  = "https://amazon.com/affiliate/product{index}?tag=yourtag"
	DefaultMaxLinks = 5
	IndexVar        = "{index}"
)

var (
	tokenRe     = regexp.MustCompile(`\{\{\s*AFF[^{}]*\}\}`)
	validRe     = regexp.MustCompile(`^\{\{AFF_LINK_([0-9]{1,4})\}\}$`)
	anchorRe    = regexp.MustCompile(`(?i)<a\b[^>]*>`)
	hrefTokenRe = regexp.MustCompile(`(?i)(href\s*=\s*)(["'])\s*(\{\{\s*AFF[^{}]*\}\})\s*(["'])`)
	relRe       = regexp.MustCompile(`(?i)\srel\s*=`)
)

const linkAttrs = ` target="_blank" rel="sponsored noopener"`

// Config configures an Inserter.
type Config struct {
	BaseURL  string
	MaxLinks int
}

// Report lists the distinct tokens that were resolved and those left in place.
type Report struct {
	Resolved   []string `json:"resolved"`
	Unresolved []string `json:"unresolved"`
}

// Inserter replaces placeholder tokens with affiliate links.
type Inserter struct {
	baseURL  string
	maxLinks int
	logger   *slog.Logger
}

// New creates an Inserter.
func New(cfg Config, logger *slog.Logger) *Inserter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxLinks <= 0 {
		cfg.MaxLinks = DefaultMaxLinks
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inserter{baseURL: cfg.BaseURL, maxLinks: cfg.MaxLinks, logger: logger}
}

// URL returns the affiliate URL for index n.
func (in *Inserter) URL(n int) string {
	return strings.ReplaceAll(in.baseURL, IndexVar, strconv.Itoa(n))
}

// Apply returns a copy of c with every valid placeholder resolved. Tokens
// inside an href attribute become the bare URL; tokens elsewhere become a
// sponsored link. Unknown tokens are left untouched.
func (in *Inserter) Apply(c models.ComposedContent) (models.ComposedContent, Report) {
	out := c
	out.AffiliatePlaceholders = Placeholders(c)

	out.Intro = in.fragment(c.Intro)
	out.Sections = make([]models.Section, len(c.Sections))
	for i, s := range c.Sections {
		s.Body = in.fragment(s.Body)
		out.Sections[i] = s
	}
	out.FAQ = make([]models.FAQ, len(c.FAQ))
	for i, f := range c.FAQ {
		f.Answer = in.fragment(f.Answer)
		out.FAQ[i] = f
	}

	rep := Report{Resolved: []string{}, Unresolved: []string{}}
	for _, tok := range out.AffiliatePlaceholders {
		if _, ok := in.resolve(tok); ok {
			rep.Resolved = append(rep.Resolved, tok)
			continue
		}
		rep.Unresolved = append(rep.Unresolved, tok)
		in.logger.Warn("unresolved affiliate placeholder", "token", tok)
	}
	return out, rep
}

// Placeholders lists the distinct placeholder-like tokens found in the HTML
// fragments of c, in order of first appearance.
func Placeholders(c models.ComposedContent) []string {
	seen := map[string]bool{}
	out := []string{}
	scan := func(s string) {
		for _, tok := range tokenRe.FindAllString(s, -1) {
			if !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
	}
	scan(c.Intro)
	for _, s := range c.Sections {
		scan(s.Body)
	}
	for _, f := range c.FAQ {
		scan(f.Answer)
	}
	return out
}

// resolve maps a valid in-range token to its URL.
func (in *Inserter) resolve(tok string) (string, bool) {
	m := validRe.FindStringSubmatch(tok)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > in.maxLinks {
		return "", false
	}
	return in.URL(n), true
}

func (in *Inserter) fragment(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	// Anchors first so resolved links also get the sponsored attributes.
	s = anchorRe.ReplaceAllStringFunc(s, func(tag string) string {
		changed := false
		tag = hrefTokenRe.ReplaceAllStringFunc(tag, func(attr string) string {
			return in.href(attr, &changed)
		})
		if changed && !relRe.MatchString(tag) {
			if strings.HasSuffix(tag, "/>") {
				return strings.TrimSuffix(tag, "/>") + linkAttrs + "/>"
			}
			return strings.TrimSuffix(tag, ">") + linkAttrs + ">"
		}
		return tag
	})
	// Remaining href attributes on other elements.
	s = hrefTokenRe.ReplaceAllStringFunc(s, func(attr string) string {
		return in.href(attr, new(bool))
	})
	// Bare tokens in text.
	return tokenRe.ReplaceAllStringFunc(s, func(tok string) string {
		url, ok := in.resolve(tok)
		if !ok {
			return tok
		}
		return fmt.Sprintf(`<a href="%s"%s>Check price</a>`, templ.EscapeString(url), linkAttrs)
	})
}

func (in *Inserter) href(attr string, changed *bool) string {
	m := hrefTokenRe.FindStringSubmatch(attr)
	url, ok := in.resolve(m[3])
	if !ok {
		return attr
	}
	*changed = true
	return m[1] + m[2] + templ.EscapeString(url) + m[4]
}
