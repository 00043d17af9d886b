package filter

import (
	"strings"

	"github.com/abelbrown/marketpulse/internal/model"
)

// RelevanceKeywords are matched as case-folded substrings of title + description.
var RelevanceKeywords = []string{
	// markets and asset classes
	"market", "stock", "share", "equit", "bond", "yield", "treasur", "forex",
	"currency", "currencies", "dollar", "euro", "yen", "yuan", "sterling",
	"crypto", "bitcoin", "ethereum", "oil", "crude", "brent", "gold", "silver",
	"copper", "commodit", "natural gas", "wheat",
	// indices and venues
	"nasdaq", "s&p", "dow", "ftse", "dax", "nikkei", "hang seng", "wall street",
	// macro
	"fed", "federal reserve", "ecb", "central bank", "interest rate", "rate cut",
	"rate hike", "inflation", "cpi", "gdp", "recession", "economy", "economic",
	"jobs report", "unemployment", "payroll", "tariff", "trade", "deficit", "debt",
	// corporate
	"earnings", "revenue", "profit", "ipo", "merger", "acquisition", "bank",
	"investor", "trading", "hedge fund",
	// geopolitics that moves markets
	"sanction", "war", "opec", "conflict", "election", "embargo",
	// tech that moves markets
	"chip", "semiconductor", "nvidia", "apple", "microsoft", "ai ",
}

// Relevant reports whether title or description mentions a market keyword.
func Relevant(title, description string) bool {
	return containsAny(strings.ToLower(title+" "+description), RelevanceKeywords)
}

// ByRelevance keeps items whose text passes Relevant. Order is preserved.
func ByRelevance(items []model.NewsItem) []model.NewsItem {
	result := make([]model.NewsItem, 0, len(items))
	for _, item := range items {
		if Relevant(item.Title, item.Description) {
			result = append(result, item)
		}
	}
	return result
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
