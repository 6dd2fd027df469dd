package composer

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/starford/seopress/internal/keyword"
	"github.com/starford/seopress/internal/models"
)

var numbers = message.NewPrinter(language.English)

// Fallback builds a complete post from the keyword and metrics alone.
// It performs no I/O and returns the same content for the same inputs.
func Fallback(kw string, m models.SeoMetrics) models.ComposedContent {
	esc := templ.EscapeString(kw)
	competition := m.CompetitionLevel
	if competition == "" {
		competition = "Medium"
	}

	intro := fmt.Sprintf(`<p>Welcome to our comprehensive guide about <strong>%s</strong>. Whether you're a beginner or looking to upgrade, this guide will help you make an informed decision about %s.</p>
<p>With %s people searching for %s every month, it's clear that finding the right option matters. This guide walks through what to look for, our top picks, and how to buy with confidence.</p>`,
		esc, esc, numbers.Sprintf("%d", m.MonthlySearchVolume), esc)

	whatMakes := fmt.Sprintf(`<p>When choosing %s, there are several key factors to consider. Competition in this space is %s, so quality and value vary widely between options:</p>
<ul>
<li><strong>Quality and Durability:</strong> Look for products that are built to last</li>
<li><strong>Value for Money:</strong> Consider the features you get for the price</li>
<li><strong>User Reviews:</strong> Check what other customers are saying</li>
<li><strong>Brand Reputation:</strong> Established brands often provide better support</li>
</ul>`, esc, strings.ToLower(competition))

	recommendations := fmt.Sprintf(`<p>Based on our research and the current market for %s, here are our top picks:</p>`, esc)

	premium := `<p>For those who want the best quality, <a href="{{AFF_LINK_1}}">this premium option</a> offers excellent features and reliability.</p>`
	value := `<p>If you're looking for great value, <a href="{{AFF_LINK_2}}">this budget-friendly choice</a> provides solid performance at an affordable price.</p>`

	buying := fmt.Sprintf(`<p>Before making your purchase, consider these important factors:</p>
<ol>
<li>Determine your budget range (typical cost-per-click in this category is around $%.2f, a sign of how competitive the market is)</li>
<li>Identify must-have features</li>
<li>Read customer reviews and ratings</li>
<li>Compare warranty options</li>
<li>Check return policies</li>
</ol>`, m.CPC)
	if related := limit(m.RelatedKeywords, 5); len(related) > 0 {
		escaped := make([]string, len(related))
		for i, r := range related {
			escaped[i] = templ.EscapeString(r)
		}
		buying += fmt.Sprintf("\n<p>Shoppers researching %s also look for: %s.</p>", esc, strings.Join(escaped, ", "))
	}

	conclusion := fmt.Sprintf(`<p>Finding the perfect %s doesn't have to be overwhelming. By considering the factors outlined in this guide and checking out our recommended options, you'll be well on your way to making a great choice. Remember to read reviews, compare features, and choose what best fits your specific needs and budget.</p>`, esc)

	return models.ComposedContent{
		Title: fmt.Sprintf("The Ultimate Guide to %s: Everything You Need to Know", kw),
		MetaDescription: truncateWords(fmt.Sprintf(
			"Complete guide to %s. Expert recommendations, buying tips, and reviews to help you choose the best %s for your needs.", kw, kw), metaMaxLen),
		Intro: intro,
		Sections: []models.Section{
			{Heading: fmt.Sprintf("What Makes Great %s?", keyword.Title(kw)), Body: whatMakes, Level: models.H2},
			{Heading: "Top Recommendations", Body: recommendations, Level: models.H2},
			{Heading: "1. Premium Choice", Body: premium, Level: models.H3},
			{Heading: "2. Best Value", Body: value, Level: models.H3},
			{Heading: "Buying Guide", Body: buying, Level: models.H2},
			{Heading: "Conclusion", Body: conclusion, Level: models.H2},
		},
		FAQ: []models.FAQ{
			{
				Question: fmt.Sprintf("What's the best %s for beginners?", kw),
				Answer:   `<p>For beginners, we recommend starting with <a href="{{AFF_LINK_3}}">this user-friendly option</a> that offers great features without being overwhelming.</p>`,
			},
			{
				Question: fmt.Sprintf("How much should I spend on %s?", kw),
				Answer:   `<p>The price range varies widely, but you can find quality options at different price points. Set a budget that matches how often you'll use it.</p>`,
			},
			{
				Question: "Are there any special features I should look for?",
				Answer:   `<p>Key features to consider include durability, ease of use, customer support, and warranty coverage.</p>`,
			},
		},
	}
}

func limit(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
