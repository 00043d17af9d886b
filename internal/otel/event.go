// Package otel provides structured observability for marketpulse.
//
// Every failure the pipeline swallows (a dead feed, an unparsable date, an
// article page without a preview image) is recorded here as a typed Event.
// Events are written as JSONL by an asynchronous Logger; an optional
// RingBuffer keeps the most recent ones in memory for the debug endpoint.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind is "<subsystem>.<action>".
type EventKind string

const (
	// Fetch events
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"

	// Parse events
	KindParseComplete     EventKind = "parse.complete"
	KindParseBlockSkipped EventKind = "parse.block_skipped"
	KindParseDateFallback EventKind = "parse.date_fallback"

	// Pipeline events
	KindPipelineStage    EventKind = "pipeline.stage"
	KindPipelineComplete EventKind = "pipeline.complete"
	KindPipelineEmpty    EventKind = "pipeline.empty"
	KindPipelineFallback EventKind = "pipeline.fallback"

	// Cache events
	KindCacheHit   EventKind = "cache.hit"
	KindCacheMiss  EventKind = "cache.miss"
	KindCacheStore EventKind = "cache.store"

	// Enrichment events
	KindEnrichStart    EventKind = "enrich.start"
	KindEnrichSkip     EventKind = "enrich.skip"
	KindEnrichScrape   EventKind = "enrich.scrape"
	KindEnrichMiss     EventKind = "enrich.miss"
	KindEnrichError    EventKind = "enrich.error"
	KindEnrichComplete EventKind = "enrich.complete"

	// HTTP events
	KindHTTPRequest EventKind = "http.request"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Only Kind and Time are
// required. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // "fetch", "news", "enrich", "http", "main"
	SessionID string         `json:"session_id,omitempty"` // same for the whole process
	RunID     string         `json:"run_id,omitempty"`     // one pipeline run or enrichment sweep
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // filled from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Feed      string         `json:"feed,omitempty"` // feed label
	Link      string         `json:"link,omitempty"` // article link
	Status    int            `json:"status,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}

// ErrString returns err.Error(), or "" for nil.
func ErrString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
