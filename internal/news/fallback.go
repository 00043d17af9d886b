package news

import (
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
)

// fallbackItems is served when no feed produced anything. Links are unique
// and point at real landing pages so a reader can still click through.
var fallbackItems = []struct {
	title    string
	subtitle string
	link     string
	source   string
	category model.Category
	urgency  model.Urgency
	ago      time.Duration
}{
	{
		title:    "Markets data temporarily unavailable",
		subtitle: "Live feeds could not be reached. Headlines will return shortly.",
		link:     "https://www.reuters.com/markets/",
		source:   "MarketPulse",
		category: model.CategoryMarkets,
		urgency:  model.UrgencyHigh,
		ago:      2 * time.Minute,
	},
	{
		title:    "Central bank calendar: upcoming rate decisions",
		subtitle: "Federal Reserve, ECB and Bank of England meetings this quarter.",
		link:     "https://www.federalreserve.gov/newsevents.htm",
		source:   "Federal Reserve",
		category: model.CategoryEconomics,
		urgency:  model.UrgencyMedium,
		ago:      15 * time.Minute,
	},
	{
		title:    "Currency markets overview",
		subtitle: "Major pairs, dollar index and emerging market currencies.",
		link:     "https://www.fxstreet.com/news",
		source:   "FXStreet",
		category: model.CategoryForex,
		urgency:  model.UrgencyNormal,
		ago:      40 * time.Minute,
	},
	{
		title:    "Crypto market snapshot",
		subtitle: "Bitcoin, Ethereum and stablecoin flows across exchanges.",
		link:     "https://www.coindesk.com/markets/",
		source:   "CoinDesk",
		category: model.CategoryCrypto,
		urgency:  model.UrgencyNormal,
		ago:      90 * time.Minute,
	},
	{
		title:    "Energy and commodities briefing",
		subtitle: "Oil, gas and metals prices with supply outlook.",
		link:     "https://oilprice.com/",
		source:   "OilPrice",
		category: model.CategoryCommodities,
		urgency:  model.UrgencyNormal,
		ago:      3 * time.Hour,
	},
}

// Fallback returns the fixed placeholder list, timestamped relative to now.
// It is a pure function of now.
func Fallback(now time.Time) []model.NewsItem {
	out := make([]model.NewsItem, len(fallbackItems))
	for i, f := range fallbackItems {
		out[i] = model.NewsItem{
			Title:       f.title,
			Subtitle:    f.subtitle,
			Link:        f.link,
			Source:      f.source,
			Category:    f.category,
			PublishedAt: now.Add(-f.ago),
			Urgency:     f.urgency,
		}
	}
	return out
}
