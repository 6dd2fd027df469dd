package composer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/seopress/internal/affiliate"
	"github.com/starford/seopress/internal/models"
)

const (
	metaMaxLen     = 155
	metaMinLen     = 50
	wordsPerMinute = 200
	maxTags        = 10
)

var genericTags = []string{"review", "guide", "buying guide", "best"}

// finalize fills the derived fields of c: meta description (when missing),
// placeholders, tags, word count and reading time.
func finalize(c models.ComposedContent, kw string, m models.SeoMetrics) models.ComposedContent {
	if c.MetaDescription == "" {
		c.MetaDescription = metaDescription(c, kw)
	}
	c.AffiliatePlaceholders = affiliate.Placeholders(c)
	c.Tags = tags(kw, m.RelatedKeywords)
	c.WordCount = countWords(c)
	c.EstimatedReadingMinutes = readingMinutes(c.WordCount)
	return c
}

func readingMinutes(words int) int {
	n := (words + wordsPerMinute - 1) / wordsPerMinute
	if n < 1 {
		return 1
	}
	return n
}

// metaDescription picks the first paragraph that mentions kw and is long
// enough to stand alone, else a generic template.
func metaDescription(c models.ComposedContent, kw string) string {
	fragments := []string{c.Intro}
	for _, s := range c.Sections {
		fragments = append(fragments, s.Body)
	}
	for _, f := range fragments {
		if p := firstMatchingParagraph(f, kw); p != "" {
			return truncateWords(p, metaMaxLen)
		}
	}
	return truncateWords(fmt.Sprintf(
		"Discover everything you need to know about %s. Expert reviews, comparisons, and buying guides to help you make the best choice.", kw), metaMaxLen)
}

func firstMatchingParagraph(fragment, kw string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapse(s.Text())
		if utf8.RuneCountInString(text) > metaMinLen && strings.Contains(strings.ToLower(text), kw) {
			found = text
			return false
		}
		return true
	})
	return found
}

// truncateWords cuts s to at most n runes at a word boundary and appends "...".
func truncateWords(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	cut := string(r[:n-3])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

func tags(kw string, related []string) []string {
	out := []string{kw}
	seen := map[string]bool{kw: true}
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] || len(out) >= maxTags {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, r := range limit(related, 5) {
		add(r)
	}
	for _, g := range genericTags {
		add(g)
	}
	return out
}
