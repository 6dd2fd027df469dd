package composer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/models"
)

var (
	codeFenceRe = regexp.MustCompile("```[a-zA-Z]*[ \t]*\n?")
	spaceRe     = regexp.MustCompile(`\s+`)
)

const headingSel = "h1, h2, h3"

// Parse turns AI-generated HTML into the structured post shape. It fails with
// apperr.ErrParse when the document has no sections or no visible words.
// Title may come back empty; the caller derives one from the keyword.
func Parse(raw string) (models.ComposedContent, error) {
	cleaned := strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return models.ComposedContent{}, fmt.Errorf("empty completion: %w", apperr.ErrParse)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		return models.ComposedContent{}, fmt.Errorf("parse html: %w: %w", apperr.ErrParse, err)
	}

	var out models.ComposedContent
	out.Title = collapse(doc.Find("body h1").First().Text())
	if out.Title == "" {
		out.Title = collapse(doc.Find("title").First().Text())
	}

	body := doc.Find("body")
	var intro []string
	seenHeading := false
	inFAQ := false

	body.Find(headingSel + ", p").Each(func(_ int, s *goquery.Selection) {
		switch {
		case s.Is("p"):
			if !seenHeading && s.ParentsFiltered("li, blockquote, table").Length() == 0 {
				if h, err := goquery.OuterHtml(s); err == nil {
					intro = append(intro, h)
				}
			}
		case s.Is("h1"):
			// Title; paragraphs after it still count as intro.
		case s.Is("h2"):
			seenHeading = true
			heading := collapse(s.Text())
			if isFAQHeading(heading) {
				inFAQ = true
				return
			}
			inFAQ = false
			out.Sections = append(out.Sections, models.Section{Heading: heading, Body: sectionBody(s), Level: models.H2})
		case s.Is("h3"):
			seenHeading = true
			heading := collapse(s.Text())
			if inFAQ {
				out.FAQ = append(out.FAQ, models.FAQ{Question: heading, Answer: sectionBody(s)})
				return
			}
			out.Sections = append(out.Sections, models.Section{Heading: heading, Body: sectionBody(s), Level: models.H3})
		}
	})
	out.Intro = strings.Join(intro, "\n")

	if len(out.Sections) == 0 {
		return models.ComposedContent{}, fmt.Errorf("no sections found: %w", apperr.ErrParse)
	}
	if countWords(out) == 0 {
		return models.ComposedContent{}, fmt.Errorf("no visible text: %w", apperr.ErrParse)
	}
	return out, nil
}

// sectionBody collects the outer HTML of the siblings after heading, stopping
// at the next heading or at an element that contains one.
func sectionBody(heading *goquery.Selection) string {
	var parts []string
	for s := heading.Next(); s.Length() > 0; s = s.Next() {
		if s.Is(headingSel) || s.Find(headingSel).Length() > 0 {
			break
		}
		if h, err := goquery.OuterHtml(s); err == nil {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, "\n")
}

func isFAQHeading(h string) bool {
	l := strings.ToLower(h)
	return strings.Contains(l, "frequently asked") || strings.Contains(l, "faq")
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// fragmentText returns the visible text of an HTML fragment.
func fragmentText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return collapse(doc.Text())
}

func countWords(c models.ComposedContent) int {
	n := len(strings.Fields(c.Title)) + len(strings.Fields(fragmentText(c.Intro)))
	for _, s := range c.Sections {
		n += len(strings.Fields(s.Heading)) + len(strings.Fields(fragmentText(s.Body)))
	}
	for _, f := range c.FAQ {
		n += len(strings.Fields(f.Question)) + len(strings.Fields(fragmentText(f.Answer)))
	}
	return n
}
