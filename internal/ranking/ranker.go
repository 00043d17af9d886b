package ranking

import (
	"sort"

	"github.com/abelbrown/marketpulse/internal/model"
)

// DefaultMaxItems is the size of the served list.
const DefaultMaxItems = 50

// ImageLookup resolves previously scraped preview images by article link.
// ok is false for links never checked and for links checked without result.
type ImageLookup interface {
	Image(link string) (url string, ok bool)
}

// Rank orders items by urgency tier, then newest first, keeps the top max
// and backfills missing images from images (which may be nil). The input
// slice is not modified.
func Rank(items []model.NewsItem, max int, images ImageLookup) []model.NewsItem {
	if max <= 0 {
		max = DefaultMaxItems
	}

	result := make([]model.NewsItem, len(items))
	copy(result, items)

	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := result[i].Urgency.Rank(), result[j].Urgency.Rank()
		if ri != rj {
			return ri < rj
		}
		return result[i].PublishedAt.After(result[j].PublishedAt)
	})

	if len(result) > max {
		result = result[:max]
	}

	if images != nil {
		for i := range result {
			if result[i].HasImage() {
				continue
			}
			if u, ok := images.Image(result[i].Link); ok {
				result[i].Image = u
			}
		}
	}
	return result
}

// CountByUrgency tallies items per tier. Every tier is present in the map.
func CountByUrgency(items []model.NewsItem) map[model.Urgency]int {
	counts := make(map[model.Urgency]int, len(model.Urgencies))
	for _, u := range model.Urgencies {
		counts[u] = 0
	}
	for _, item := range items {
		counts[item.Urgency]++
	}
	return counts
}
