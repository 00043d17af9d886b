// Package enrich recovers preview images for articles their feed left
// without one.
//
// A sweep runs in its own goroutine, detached from the request that
// triggered it, and at most one sweep runs per Store at a time. Every
// scraped link is cached, with a negative marker when nothing usable was
// found, so a link is fetched at most once.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/marketpulse/internal/fetch"
	"github.com/abelbrown/marketpulse/internal/logging"
	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/otel"
	"github.com/abelbrown/marketpulse/internal/store"
)

const (
	DefaultTimeout  = 3 * time.Second
	DefaultMaxBytes = 50 * 1024
	DefaultMaxItems = 20
	DefaultParallel = 4
)

// Worker runs image enrichment sweeps.
type Worker struct {
	ctx       context.Context // worker lifetime, not any request's
	store     *store.Store
	client    fetch.Doer
	events    *otel.Logger
	timeout   time.Duration
	maxBytes  int64
	maxItems  int
	parallel  int
	userAgent string

	wg     sync.WaitGroup
	sweeps atomic.Int64
}

// Option configures a Worker.
type Option func(*Worker)

// WithClient replaces the default HTTP client.
func WithClient(d fetch.Doer) Option { return func(w *Worker) { w.client = d } }

// WithEvents attaches an observability logger.
func WithEvents(l *otel.Logger) Option { return func(w *Worker) { w.events = l } }

// WithTimeout sets the per-article budget.
func WithTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithMaxBytes caps how much of each page is read.
func WithMaxBytes(n int64) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxBytes = n
		}
	}
}

// WithMaxItems caps candidates per sweep.
func WithMaxItems(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxItems = n
		}
	}
}

// WithParallel bounds concurrent scrapes within one sweep.
func WithParallel(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.parallel = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(w *Worker) {
		if ua != "" {
			w.userAgent = ua
		}
	}
}

// NewWorker creates a Worker whose sweeps live until ctx is cancelled.
func NewWorker(ctx context.Context, st *store.Store, opts ...Option) *Worker {
	w := &Worker{
		ctx:       ctx,
		store:     st,
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		maxBytes:  DefaultMaxBytes,
		maxItems:  DefaultMaxItems,
		parallel:  DefaultParallel,
		userAgent: fetch.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Candidates returns links of items with no image that the image cache has
// never seen, in list order, capped at the per-sweep limit.
func (w *Worker) Candidates(items []model.NewsItem) []string {
	var links []string
	seen := make(map[string]bool)
	for _, item := range items {
		if len(links) >= w.maxItems {
			break
		}
		if item.HasImage() || item.Link == "" || seen[item.Link] || w.store.ImageChecked(item.Link) {
			continue
		}
		seen[item.Link] = true
		links = append(links, item.Link)
	}
	return links
}

// Trigger starts a background sweep over items and returns immediately.
// It returns false when there is nothing to do or a sweep is already
// running; the trigger is then dropped, not queued.
func (w *Worker) Trigger(items []model.NewsItem) bool {
	links := w.Candidates(items)
	if len(links) == 0 {
		return false
	}
	if !w.store.TryBeginSweep() {
		w.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindEnrichSkip, Comp: "enrich", Count: len(links)})
		return false
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.store.EndSweep()
		w.sweep(links)
	}()
	return true
}

// Wait blocks until every started sweep has finished.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Sweeps returns how many sweeps have completed.
func (w *Worker) Sweeps() int64 {
	return w.sweeps.Load()
}

func (w *Worker) sweep(links []string) {
	runID := uuid.NewString()
	start := time.Now()
	w.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindEnrichStart, Comp: "enrich", RunID: runID, Count: len(links)})

	var found atomic.Int32
	var g errgroup.Group
	g.SetLimit(w.parallel)
	for _, link := range links {
		g.Go(func() error {
			if w.ctx.Err() != nil {
				return nil
			}
			img, err := w.scrape(w.ctx, link)
			w.store.PutImage(link, img)

			switch {
			case err != nil:
				w.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindEnrichError, Comp: "enrich", RunID: runID, Link: link, Err: err.Error()})
			case img == "":
				w.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindEnrichMiss, Comp: "enrich", RunID: runID, Link: link})
			default:
				found.Add(1)
				w.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindEnrichScrape, Comp: "enrich", RunID: runID, Link: link})
			}
			return nil // per-link failures are cached, not propagated
		})
	}
	_ = g.Wait()

	w.sweeps.Add(1)
	w.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindEnrichComplete,
		Comp:  "enrich",
		RunID: runID,
		Count: int(found.Load()),
		Dur:   time.Since(start),
		Extra: map[string]any{"checked": len(links)},
	})
	logging.Debug("enrichment sweep done", "checked", len(links), "found", found.Load(), "dur", time.Since(start))
}

// scrape fetches link and looks for a preview image in its <head>.
func (w *Worker) scrape(ctx context.Context, link string) (string, error) {
	page, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("bad link: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &fetch.StatusError{Code: resp.StatusCode}
	}

	head, err := readHead(resp.Body, w.maxBytes)
	if err != nil && len(head) == 0 {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	if resp.Request != nil && resp.Request.URL != nil {
		page = resp.Request.URL // after redirects
	}
	return extractImage(head, page)
}
