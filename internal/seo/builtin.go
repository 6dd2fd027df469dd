package seo

import "github.com/starford/seopress/internal/models"

// builtin is the static lookup shipped with the binary.
var builtin = []models.SeoMetrics{
	{
		Keyword:             "wireless earbuds",
		MonthlySearchVolume: 10000,
		Difficulty:          45,
		CPC:                 2.35,
		RelatedKeywords:     []string{"best wireless earbuds", "bluetooth earbuds", "noise canceling earbuds", "wireless earbuds review", "cheap wireless earbuds"},
	},
	{
		Keyword:             "best headphones",
		MonthlySearchVolume: 33000,
		Difficulty:          78,
		CPC:                 4.10,
		RelatedKeywords:     []string{"best headphones 2025", "over ear headphones", "noise cancelling headphones", "headphones review"},
	},
	{
		Keyword:             "gaming mouse",
		MonthlySearchVolume: 27100,
		Difficulty:          71,
		CPC:                 1.85,
		RelatedKeywords:     []string{"best gaming mouse", "wireless gaming mouse", "lightweight gaming mouse", "gaming mouse vs"},
	},
	{
		Keyword:             "fitness tracker",
		MonthlySearchVolume: 22200,
		Difficulty:          66,
		CPC:                 1.40,
		RelatedKeywords:     []string{"best fitness tracker", "fitness tracker watch", "cheap fitness tracker", "tracker fitness"},
	},
	{
		Keyword:             "coffee maker",
		MonthlySearchVolume: 40500,
		Difficulty:          82,
		CPC:                 1.12,
		RelatedKeywords:     []string{"best coffee maker", "drip coffee maker", "coffee maker with grinder", "maker coffee"},
	},
	{
		Keyword:             "yoga mat",
		MonthlySearchVolume: 49500,
		Difficulty:          74,
		CPC:                 0.95,
		RelatedKeywords:     []string{"best yoga mat", "thick yoga mat", "non slip yoga mat", "mat yoga"},
	},
	{
		Keyword:             "running shoes",
		MonthlySearchVolume: 60500,
		Difficulty:          88,
		CPC:                 1.30,
		RelatedKeywords:     []string{"best running shoes", "running shoes for women", "trail running shoes", "shoes running"},
	},
}
