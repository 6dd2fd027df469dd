package composer

import (
	"fmt"
	"strings"

	"github.com/starford/seopress/internal/models"
)

// BuildPrompt embeds the keyword and its metrics into the generation prompt.
func BuildPrompt(kw string, m models.SeoMetrics) string {
	related := m.RelatedKeywords
	if len(related) > 5 {
		related = related[:5]
	}
	competition := m.CompetitionLevel
	if competition == "" {
		competition = "Medium"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a comprehensive, SEO-optimized blog post about %q.\n\n", kw)
	b.WriteString("SEO Data Context:\n")
	fmt.Fprintf(&b, "- Search Volume: %d\n", m.MonthlySearchVolume)
	fmt.Fprintf(&b, "- Keyword Difficulty: %.0f\n", m.Difficulty)
	fmt.Fprintf(&b, "- Competition Level: %s\n", competition)
	fmt.Fprintf(&b, "- Average CPC: $%.2f\n", m.CPC)
	fmt.Fprintf(&b, "- Related Keywords: %s\n\n", strings.Join(related, ", "))
	b.WriteString(`Requirements:
1. Start with a single <h1> title that contains the main keyword
2. Follow with one or two introduction paragraphs that hook the reader
3. Structure the body with <h2> and <h3> headings
4. Include the main keyword naturally throughout (aim for 1-2% density)
5. Incorporate the related keywords naturally
6. Add 3-5 affiliate link placeholders as link targets using the format {{AFF_LINK_1}}, {{AFF_LINK_2}}, etc.
7. Include an <h2>Frequently Asked Questions</h2> section with 3-4 questions, each question as an <h3> followed by its answer
8. End with an <h2>Conclusion</h2> that encourages action
9. Make it approximately 1500-2000 words

Content Style:
- Friendly, authoritative tone
- Use bullet points and numbered lists where appropriate
- Practical tips and actionable advice
- Naturally mention product features, benefits, and comparisons

IMPORTANT: Return ONLY the HTML body content without any markdown code blocks, backticks, or extra formatting.
`)
	return b.String()
}
