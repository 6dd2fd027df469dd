package composer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/starford/seopress/internal/models"
)

const stylesheet = `body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif;line-height:1.6;max-width:800px;margin:0 auto;padding:20px;color:#333}
h1{color:#2c3e50;border-bottom:3px solid #3498db;padding-bottom:10px}
h2{color:#34495e;margin-top:30px}
h3{color:#7f8c8d}
a{color:#3498db;text-decoration:none}
a:hover{text-decoration:underline}
.faq{background:#f8f9fa;padding:20px;border-radius:8px;margin:30px 0}
.meta{color:#7f8c8d;font-size:.9em}`

// Page is the full HTML document for c. Text fields are escaped; intro,
// section bodies and FAQ answers are inserted as trusted fragments.
func Page(c models.ComposedContent, updated time.Time) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		e := templ.EscapeString
		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
		b.WriteString("<meta charset=\"UTF-8\">\n")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", e(c.Title))
		fmt.Fprintf(&b, "<meta name=\"description\" content=\"%s\">\n", e(c.MetaDescription))
		if len(c.Tags) > 0 {
			fmt.Fprintf(&b, "<meta name=\"keywords\" content=\"%s\">\n", e(strings.Join(c.Tags, ", ")))
		}
		fmt.Fprintf(&b, "<style>\n%s\n</style>\n</head>\n<body>\n<article>\n", stylesheet)
		fmt.Fprintf(&b, "<h1>%s</h1>\n", e(c.Title))
		fmt.Fprintf(&b, "<p class=\"meta\">%d min read</p>\n", c.EstimatedReadingMinutes)
		if c.Intro != "" {
			b.WriteString(c.Intro)
			b.WriteString("\n")
		}
		for _, s := range c.Sections {
			tag := string(s.Level)
			if tag != string(models.H3) {
				tag = string(models.H2)
			}
			fmt.Fprintf(&b, "<%s>%s</%s>\n", tag, e(s.Heading), tag)
			if s.Body != "" {
				b.WriteString(s.Body)
				b.WriteString("\n")
			}
		}
		if len(c.FAQ) > 0 {
			b.WriteString("<div class=\"faq\">\n<h2>Frequently Asked Questions</h2>\n")
			for _, f := range c.FAQ {
				fmt.Fprintf(&b, "<h3>%s</h3>\n%s\n", e(f.Question), f.Answer)
			}
			b.WriteString("</div>\n")
		}
		fmt.Fprintf(&b, "<p class=\"meta\"><em>Last updated: %s</em></p>\n", updated.Format("January 2, 2006"))
		b.WriteString("</article>\n</body>\n</html>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Render renders c as a standalone HTML document.
func Render(ctx context.Context, c models.ComposedContent, updated time.Time) (string, error) {
	var b strings.Builder
	if err := Page(c, updated).Render(ctx, &b); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return b.String(), nil
}
