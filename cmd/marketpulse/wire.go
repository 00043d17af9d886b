package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abelbrown/marketpulse/internal/config"
	"github.com/abelbrown/marketpulse/internal/enrich"
	"github.com/abelbrown/marketpulse/internal/fetch"
	"github.com/abelbrown/marketpulse/internal/news"
	"github.com/abelbrown/marketpulse/internal/otel"
	"github.com/abelbrown/marketpulse/internal/pipeline"
	"github.com/abelbrown/marketpulse/internal/ranking"
	"github.com/abelbrown/marketpulse/internal/store"
)

// ringSize is how many recent events /debug/events and the TUI overlay keep.
const ringSize = 1000

// runtime holds everything a command needs to read news.
type runtime struct {
	cfg      *config.Config
	events   *otel.Logger
	registry *fetch.Registry
	health   *fetch.Health
	store    *store.Store
	worker   *enrich.Worker
	service  *news.Service

	eventFile io.Closer
}

// newRuntime wires the news service from cfg. ctx bounds background work
// such as enrichment sweeps. Call close when done.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	if flagTrace {
		otel.SetTraceEnabled(true)
	}

	rt := &runtime{cfg: cfg}

	var w io.Writer = io.Discard
	if cfg.Log.Events != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.Events), 0o755); err != nil {
			return nil, fmt.Errorf("creating event log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.Events, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening event log: %w", err)
		}
		rt.eventFile = f
		w = f
	}
	rt.events = otel.NewLogger(w)
	rt.events.SetRingBuffer(otel.NewRingBuffer(ringSize))

	if len(cfg.Feeds) > 0 {
		rt.registry = fetch.NewRegistry(cfg.Feeds)
	} else {
		rt.registry = fetch.DefaultRegistry()
	}
	rt.health = fetch.NewHealth(nil)
	rt.store = store.New(cfg.Cache.TTL, nil)

	fetcher := fetch.NewFetcher(cfg.Fetch.Timeout,
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithMaxBody(cfg.Fetch.MaxBodyBytes),
	)

	classifier := ranking.NewClassifier()
	classifier.VeryRecent = cfg.Ranking.VeryRecent
	classifier.Recent = cfg.Ranking.Recent

	pipe := pipeline.Standard(rt.events, pipeline.Settings{
		Classifier:          classifier,
		SimilarityThreshold: cfg.Ranking.SimilarityThreshold,
		MaxItems:            cfg.Ranking.MaxItems,
		Images:              rt.store,
		Now:                 rt.store.Now,
	})

	opts := news.Options{
		Registry:   rt.registry,
		Getter:     fetcher,
		Store:      rt.store,
		Pipeline:   pipe,
		Health:     rt.health,
		Events:     rt.events,
		MaxPerFeed: cfg.Fetch.MaxItemsPerFeed,
	}
	if cfg.Enrich.MaxItems > 0 {
		rt.worker = enrich.NewWorker(ctx, rt.store,
			enrich.WithEvents(rt.events),
			enrich.WithTimeout(cfg.Enrich.Timeout),
			enrich.WithMaxBytes(cfg.Enrich.MaxBytes),
			enrich.WithMaxItems(cfg.Enrich.MaxItems),
			enrich.WithParallel(cfg.Enrich.Parallel),
			enrich.WithUserAgent(cfg.Fetch.UserAgent),
		)
		opts.Enricher = rt.worker
	}
	rt.service = news.NewService(opts)

	rt.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindStartup,
		Comp:  "main",
		Msg:   version,
		Count: rt.registry.Len(),
	})
	return rt, nil
}

// close waits for background work and flushes the event log.
func (rt *runtime) close() {
	if rt.worker != nil {
		rt.worker.Wait()
	}
	rt.service.Wait()
	rt.events.Info(otel.KindShutdown, "main", "")
	rt.events.Close()
	if rt.eventFile != nil {
		rt.eventFile.Close()
	}
}
