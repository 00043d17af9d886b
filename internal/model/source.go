package model

import "fmt"

// Category is the topical bucket a feed belongs to.
type Category string

const (
	CategoryMarkets     Category = "markets"
	CategoryStocks      Category = "stocks"
	CategoryForex       Category = "forex"
	CategoryCrypto      Category = "crypto"
	CategoryCommodities Category = "commodities"
	CategoryGeopolitics Category = "geopolitics"
	CategoryEconomics   Category = "economics"
	CategoryTech        Category = "tech"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryMarkets,
	CategoryStocks,
	CategoryForex,
	CategoryCrypto,
	CategoryCommodities,
	CategoryGeopolitics,
	CategoryEconomics,
	CategoryTech,
}

// ParseCategory converts a string into a known Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Label returns the human-readable form used as a subtitle fallback.
func (c Category) Label() string {
	switch c {
	case CategoryMarkets:
		return "Markets"
	case CategoryStocks:
		return "Stocks"
	case CategoryForex:
		return "Forex"
	case CategoryCrypto:
		return "Crypto"
	case CategoryCommodities:
		return "Commodities"
	case CategoryGeopolitics:
		return "Geopolitics"
	case CategoryEconomics:
		return "Economics"
	case CategoryTech:
		return "Tech"
	default:
		return string(c)
	}
}

// FeedSource describes one upstream RSS/Atom feed. Immutable after registry load.
// Priority only orders the registry; it never feeds into scoring.
type FeedSource struct {
	URL      string   `json:"url" yaml:"url"`
	Label    string   `json:"label" yaml:"label"`
	Category Category `json:"category" yaml:"category"`
	Priority int      `json:"priority" yaml:"priority"`
}
