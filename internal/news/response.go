package news

import (
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/ranking"
)

// Response is what a reader receives. Exactly one of Cached and IsFallback
// may be set; both false means the items come from a run made for this read.
type Response struct {
	Items      []model.NewsItem `json:"items"`
	Cached     bool             `json:"cached"`
	IsFallback bool             `json:"isFallback"`
	Timestamp  time.Time        `json:"timestamp"`
	Meta       Meta             `json:"meta"`
}

// Meta summarizes a Response.
type Meta struct {
	Total       int                   `json:"total"`
	ByUrgency   map[model.Urgency]int `json:"byUrgency"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// newResponse copies items and stamps each with its age relative to now.
func newResponse(items []model.NewsItem, ts time.Time, cached, fallback bool, now time.Time) Response {
	out := make([]model.NewsItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Age = model.FormatAge(out[i].PublishedAt, now)
	}

	return Response{
		Items:      out,
		Cached:     cached,
		IsFallback: fallback,
		Timestamp:  ts,
		Meta: Meta{
			Total:       len(out),
			ByUrgency:   ranking.CountByUrgency(out),
			GeneratedAt: now,
		},
	}
}
