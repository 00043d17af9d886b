// Package ranking assigns urgency tiers and orders the final news list.
package ranking

import (
	"strings"
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
)

// Default recency windows.
const (
	DefaultVeryRecent = 30 * time.Minute
	DefaultRecent     = 2 * time.Hour
)

// CriticalKeywords mark market-moving shocks.
var CriticalKeywords = []string{
	"breaking", "urgent", "just in", "flash crash", "crash", "plunge", "plummet",
	"surge", "collapse", "emergency", "invasion", "war", "missile", "attack",
	"default", "bankrupt", "halted", "circuit breaker", "rate hike", "rate cut",
	"sanctions",
}

// HighKeywords mark significant but routine market news.
var HighKeywords = []string{
	"developing", "soar", "tumble", "slump", "sell-off", "selloff",
	"rally", "record", "inflation", "recession", "tariff", "layoffs",
	"downgrade", "upgrade", "earnings", "federal reserve", "fed ", "ecb",
	"opec", "crisis", "volatility", "warning", "probe", "strike",
}

// Classifier assigns urgency tiers from keywords and recency.
// A zero Classifier is not usable; use NewClassifier.
type Classifier struct {
	Critical   []string
	High       []string
	VeryRecent time.Duration
	Recent     time.Duration
}

// NewClassifier returns a Classifier with the default keyword sets and windows.
func NewClassifier() *Classifier {
	return &Classifier{
		Critical:   CriticalKeywords,
		High:       HighKeywords,
		VeryRecent: DefaultVeryRecent,
		Recent:     DefaultRecent,
	}
}

// Classify returns the urgency tier for an item as of now. A zero
// publishedAt counts as infinitely old.
//
//	critical: critical keyword and very recent
//	high:     critical keyword, or high keyword and very recent
//	medium:   high keyword, or recent
//	normal:   everything else
func (c *Classifier) Classify(title, description string, publishedAt, now time.Time) model.Urgency {
	text := strings.ToLower(title + " " + description)
	hasCritical := containsAny(text, c.Critical)
	hasHigh := containsAny(text, c.High)

	veryRecent, recent := false, false
	if !publishedAt.IsZero() {
		age := now.Sub(publishedAt)
		veryRecent = age < c.VeryRecent
		recent = age < c.Recent
	}

	switch {
	case hasCritical && veryRecent:
		return model.UrgencyCritical
	case hasCritical || (hasHigh && veryRecent):
		return model.UrgencyHigh
	case hasHigh || recent:
		return model.UrgencyMedium
	default:
		return model.UrgencyNormal
	}
}

// Apply returns a copy of items with Urgency set.
func (c *Classifier) Apply(items []model.NewsItem, now time.Time) []model.NewsItem {
	result := make([]model.NewsItem, len(items))
	for i, item := range items {
		item.Urgency = c.Classify(item.Title, item.Description, item.PublishedAt, now)
		result[i] = item
	}
	return result
}

// shortKeyword is the longest keyword matched only as a whole word, so that
// "war" does not fire on "software" or "warning".
const shortKeyword = 3

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if len(kw) <= shortKeyword {
			if containsWord(text, kw) {
				return true
			}
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in text bounded by non-letters
// on both sides. A trailing plural "s" is allowed.
func containsWord(text, word string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if end < len(text) && text[end] == 's' {
			end++
		}
		if (start == 0 || !isLetter(text[start-1])) && (end == len(text) || !isLetter(text[end])) {
			return true
		}
		from = start + 1
	}
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
