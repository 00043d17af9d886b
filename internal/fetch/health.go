package fetch

import (
	"sort"
	"sync"
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
)

// FeedHealth is the running record for one feed.
type FeedHealth struct {
	Label               string    `json:"label"`
	URL                 string    `json:"url"`
	Category            string    `json:"category"`
	Successes           int       `json:"successes"`
	Failures            int       `json:"failures"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
	LastSuccess         time.Time `json:"lastSuccess,omitempty"`
	LastFailure         time.Time `json:"lastFailure,omitempty"`
	LastItems           int       `json:"lastItems"`
	LastSkipped         int       `json:"lastSkipped"`
}

// Health tracks per-feed outcomes so a systemically broken feed is visible.
// All methods are nil-safe and goroutine-safe.
type Health struct {
	mu    sync.Mutex
	now   func() time.Time
	feeds map[string]*FeedHealth
}

// NewHealth creates an empty tracker. A nil clock uses time.Now.
func NewHealth(now func() time.Time) *Health {
	if now == nil {
		now = time.Now
	}
	return &Health{now: now, feeds: make(map[string]*FeedHealth)}
}

func (h *Health) entry(src model.FeedSource) *FeedHealth {
	fh, ok := h.feeds[src.URL]
	if !ok {
		fh = &FeedHealth{Label: src.Label, URL: src.URL, Category: string(src.Category)}
		h.feeds[src.URL] = fh
	}
	return fh
}

// RecordSuccess notes a payload was retrieved.
func (h *Health) RecordSuccess(src model.FeedSource) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	fh := h.entry(src)
	fh.Successes++
	fh.ConsecutiveFailures = 0
	fh.LastSuccess = h.now()
}

// RecordFailure notes a swallowed fetch failure.
func (h *Health) RecordFailure(src model.FeedSource, err error) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	fh := h.entry(src)
	fh.Failures++
	fh.ConsecutiveFailures++
	fh.LastFailure = h.now()
	if err != nil {
		fh.LastError = err.Error()
	}
}

// RecordParse notes how many drafts the last payload produced.
func (h *Health) RecordParse(src model.FeedSource, items, skipped int) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	fh := h.entry(src)
	fh.LastItems = items
	fh.LastSkipped = skipped
}

// Get returns the record for a feed URL.
func (h *Health) Get(url string) (FeedHealth, bool) {
	if h == nil {
		return FeedHealth{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	fh, ok := h.feeds[url]
	if !ok {
		return FeedHealth{}, false
	}
	return *fh, true
}

// Snapshot returns every record ordered by label.
func (h *Health) Snapshot() []FeedHealth {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]FeedHealth, 0, len(h.feeds))
	for _, fh := range h.feeds {
		out = append(out, *fh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Failing returns feeds with at least n consecutive failures.
func (h *Health) Failing(n int) []FeedHealth {
	var out []FeedHealth
	for _, fh := range h.Snapshot() {
		if fh.ConsecutiveFailures >= n {
			out = append(out, fh)
		}
	}
	return out
}
