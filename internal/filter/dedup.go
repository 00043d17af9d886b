// Package filter provides pure filter functions for news items.
// Everything here is []NewsItem in, []NewsItem out. No side effects.
package filter

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/abelbrown/marketpulse/internal/model"
)

// DefaultSimilarityThreshold is the similarity above which two titles are
// the same story. A pair scoring exactly the threshold is kept.
const DefaultSimilarityThreshold = 0.8

// NormalizeTitle lower-cases title and drops every non-alphanumeric rune.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity is 1 - editDistance/max(len(a), len(b)) over runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	// one division keeps ratios such as 8/10 exactly equal to the threshold
	return float64(longest-d) / float64(longest)
}

// Dedup drops items whose link was already kept, or whose normalized title
// equals, or is more than threshold similar to, an earlier kept title.
// First occurrence wins, so input order decides which feed's copy survives.
// Quadratic in len(items).
func Dedup(items []model.NewsItem, threshold float64) []model.NewsItem {
	if len(items) == 0 {
		return []model.NewsItem{}
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	seenLinks := make(map[string]bool, len(items))
	kept := make([]string, 0, len(items))
	result := make([]model.NewsItem, 0, len(items))

	for _, item := range items {
		if seenLinks[item.Link] {
			continue
		}
		norm := NormalizeTitle(item.Title)
		if isDuplicate(norm, kept, threshold) {
			continue
		}
		seenLinks[item.Link] = true
		kept = append(kept, norm)
		result = append(result, item)
	}

	return result
}

func isDuplicate(norm string, kept []string, threshold float64) bool {
	for _, k := range kept {
		if norm == k || Similarity(norm, k) > threshold {
			return true
		}
	}
	return false
}
