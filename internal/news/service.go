// Package news serves the ranked news list.
//
// Get answers from the result cache while it is fresh. Otherwise it fetches
// every feed, runs the pipeline, stores the result and kicks off image
// enrichment in the background. When nothing survives, the fixed fallback
// list is returned and the cache is left as it was.
package news

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/abelbrown/marketpulse/internal/fetch"
	"github.com/abelbrown/marketpulse/internal/logging"
	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/otel"
	"github.com/abelbrown/marketpulse/internal/parse"
	"github.com/abelbrown/marketpulse/internal/pipeline"
	"github.com/abelbrown/marketpulse/internal/store"
)

// Enricher starts background image recovery for a freshly ranked list.
type Enricher interface {
	Trigger(items []model.NewsItem) bool
}

// Options wires a Service. Registry, Getter, Store and Pipeline are required.
type Options struct {
	Registry   *fetch.Registry
	Getter     fetch.Getter
	Store      *store.Store
	Pipeline   *pipeline.Pipeline
	Enricher   Enricher      // optional
	Health     *fetch.Health // optional
	Events     *otel.Logger  // optional
	MaxPerFeed int
}

// Service answers read requests for the news list.
type Service struct {
	registry   *fetch.Registry
	getter     fetch.Getter
	store      *store.Store
	pipeline   *pipeline.Pipeline
	enricher   Enricher
	health     *fetch.Health
	events     *otel.Logger
	maxPerFeed int

	group singleflight.Group
	wg    sync.WaitGroup
}

// NewService builds a Service from opts.
func NewService(opts Options) *Service {
	if opts.MaxPerFeed <= 0 {
		opts.MaxPerFeed = parse.DefaultMaxItems
	}
	return &Service{
		registry:   opts.Registry,
		getter:     opts.Getter,
		store:      opts.Store,
		pipeline:   opts.Pipeline,
		enricher:   opts.Enricher,
		health:     opts.Health,
		events:     opts.Events,
		maxPerFeed: opts.MaxPerFeed,
	}
}

// Get returns the current ranked list. It never fails: upstream trouble
// shows up as a fallback response.
func (s *Service) Get(ctx context.Context) Response {
	if entry, ok := s.store.Fresh(); ok {
		s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheHit, Comp: "news", Count: len(entry.Items)})
		return newResponse(entry.Items, entry.Timestamp, true, false, s.store.Now())
	}
	s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheMiss, Comp: "news"})

	entry, ok := s.Refresh(ctx)
	now := s.store.Now()
	if !ok {
		s.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPipelineFallback, Comp: "news", Count: len(fallbackItems)})
		return newResponse(Fallback(now), now, false, true, now)
	}
	return newResponse(entry.Items, entry.Timestamp, false, false, now)
}

type refreshResult struct {
	entry store.ResultEntry
	ok    bool
}

// Refresh runs the pipeline now, regardless of cache freshness. Concurrent
// callers share one run. ok is false when the run produced no items, in
// which case the cache was not touched.
func (s *Service) Refresh(ctx context.Context) (store.ResultEntry, bool) {
	// the shared run must outlive whichever caller started it
	runCtx := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do("refresh", func() (any, error) {
		entry, ok := s.run(runCtx)
		return refreshResult{entry: entry, ok: ok}, nil
	})
	r := v.(refreshResult)
	return r.entry, r.ok
}

func (s *Service) run(ctx context.Context) (store.ResultEntry, bool) {
	runID := uuid.NewString()
	start := time.Now()
	sources := s.registry.Feeds()

	results := fetch.FetchAll(ctx, s.getter, sources, s.health, s.events, runID)
	drafts := s.parseAll(results, runID)

	items, err := s.pipeline.Run(ctx, drafts, runID)
	if err != nil {
		logging.Error("pipeline failed", "run", runID, "error", err)
		s.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindError, Comp: "news", RunID: runID, Err: err.Error()})
		return store.ResultEntry{}, false
	}

	if len(items) == 0 {
		s.events.Emit(otel.Event{
			Level: otel.LevelWarn,
			Kind:  otel.KindPipelineEmpty,
			Comp:  "news",
			RunID: runID,
			Dur:   time.Since(start),
			Extra: map[string]any{"feeds": len(sources), "drafts": len(drafts)},
		})
		logging.Warn("pipeline produced no items", "feeds", len(sources), "drafts", len(drafts))
		return store.ResultEntry{}, false
	}

	entry, _ := s.store.PutResult(items)
	s.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindPipelineComplete,
		Comp:  "news",
		RunID: runID,
		Count: len(items),
		Dur:   time.Since(start),
		Extra: map[string]any{"feeds": len(sources), "drafts": len(drafts)},
	})
	s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheStore, Comp: "news", RunID: runID, Count: len(items)})
	logging.Info("news refreshed", "items", len(items), "drafts", len(drafts), "dur", time.Since(start))

	if s.enricher != nil {
		s.enricher.Trigger(entry.Items)
	}
	return entry, true
}

// parseAll turns successful fetches into drafts, in registry order.
func (s *Service) parseAll(results []fetch.Result, runID string) []model.NewsItem {
	now := s.store.Now()
	var drafts []model.NewsItem

	for _, r := range results {
		if !r.OK() {
			continue
		}
		pr := parse.Parse(r.Body, r.Source, parse.Options{MaxItems: s.maxPerFeed, Now: now})
		s.health.RecordParse(r.Source, len(pr.Items), pr.Skipped)

		s.events.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindParseComplete,
			Comp:  "parse",
			RunID: runID,
			Feed:  r.Source.Label,
			Count: len(pr.Items),
			Extra: map[string]any{"format": pr.Format, "blocks": pr.Blocks},
		})
		if pr.Skipped > 0 {
			s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindParseBlockSkipped, Comp: "parse", RunID: runID, Feed: r.Source.Label, Count: pr.Skipped})
		}
		if pr.DateFallbacks > 0 {
			s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindParseDateFallback, Comp: "parse", RunID: runID, Feed: r.Source.Label, Count: pr.DateFallbacks})
		}

		drafts = append(drafts, pr.Items...)
	}
	return drafts
}

// Start keeps the cache warm: every interval, a stale cache is refreshed in
// the background. Cancel ctx and call Wait to stop.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, fresh := s.store.Fresh(); !fresh {
					s.Refresh(ctx)
				}
			}
		}
	}()
}

// Wait blocks until the warmer started by Start exits.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Health returns the per-feed health tracker, which may be nil.
func (s *Service) Health() *fetch.Health {
	return s.health
}

// Registry returns the feed registry.
func (s *Service) Registry() *fetch.Registry {
	return s.registry
}

// Events returns the observability logger, which may be nil.
func (s *Service) Events() *otel.Logger {
	return s.events
}
