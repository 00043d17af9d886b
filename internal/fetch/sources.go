package fetch

import (
	"sort"

	"github.com/abelbrown/marketpulse/internal/model"
)

// Registry is the ordered feed list. Higher priority feeds come first, so
// their copy of a story wins deduplication. Immutable after construction.
type Registry struct {
	feeds []model.FeedSource
}

// NewRegistry copies feeds and orders them by descending priority. Feeds of
// equal priority keep their given order.
func NewRegistry(feeds []model.FeedSource) *Registry {
	sorted := make([]model.FeedSource, len(feeds))
	copy(sorted, feeds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &Registry{feeds: sorted}
}

// DefaultRegistry returns the built-in market feed list.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultSources())
}

// Feeds returns a copy of the ordered feed list.
func (r *Registry) Feeds() []model.FeedSource {
	out := make([]model.FeedSource, len(r.feeds))
	copy(out, r.feeds)
	return out
}

// Len returns the number of feeds.
func (r *Registry) Len() int {
	return len(r.feeds)
}

// ByCategory returns the feeds in one category, in registry order.
func (r *Registry) ByCategory(c model.Category) []model.FeedSource {
	var out []model.FeedSource
	for _, f := range r.feeds {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

// DefaultSources is the curated market feed list.
func DefaultSources() []model.FeedSource {
	return []model.FeedSource{
		// Markets (wire-grade, highest trust)
		{URL: "https://feeds.bloomberg.com/markets/news.rss", Label: "Bloomberg", Category: model.CategoryMarkets, Priority: 10},
		{URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html", Label: "CNBC", Category: model.CategoryMarkets, Priority: 9},
		{URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories", Label: "MarketWatch", Category: model.CategoryMarkets, Priority: 9},
		{URL: "https://feeds.bbci.co.uk/news/business/rss.xml", Label: "BBC Business", Category: model.CategoryEconomics, Priority: 8},

		// Stocks
		{URL: "https://finance.yahoo.com/news/rssindex", Label: "Yahoo Finance", Category: model.CategoryStocks, Priority: 7},
		{URL: "https://www.investing.com/rss/news_25.rss", Label: "Investing.com", Category: model.CategoryStocks, Priority: 6},

		// Forex
		{URL: "https://www.fxstreet.com/rss/news", Label: "FXStreet", Category: model.CategoryForex, Priority: 6},
		{URL: "https://www.forexlive.com/feed/news", Label: "ForexLive", Category: model.CategoryForex, Priority: 5},

		// Crypto
		{URL: "https://www.coindesk.com/arc/outboundfeeds/rss/", Label: "CoinDesk", Category: model.CategoryCrypto, Priority: 6},
		{URL: "https://cointelegraph.com/rss", Label: "Cointelegraph", Category: model.CategoryCrypto, Priority: 5},

		// Commodities
		{URL: "https://oilprice.com/rss/main", Label: "OilPrice", Category: model.CategoryCommodities, Priority: 5},

		// Geopolitics
		{URL: "https://www.aljazeera.com/xml/rss/all.xml", Label: "Al Jazeera", Category: model.CategoryGeopolitics, Priority: 5},
		{URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Label: "BBC World", Category: model.CategoryGeopolitics, Priority: 6},

		// Economics
		{URL: "https://www.federalreserve.gov/feeds/press_all.xml", Label: "Federal Reserve", Category: model.CategoryEconomics, Priority: 8},

		// Tech
		{URL: "https://techcrunch.com/feed/", Label: "TechCrunch", Category: model.CategoryTech, Priority: 4},
		{URL: "https://www.theverge.com/rss/index.xml", Label: "The Verge", Category: model.CategoryTech, Priority: 3},
	}
}
