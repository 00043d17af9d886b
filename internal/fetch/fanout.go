package fetch

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/otel"
)

// Getter retrieves one feed payload. *Fetcher satisfies it; tests inject fakes.
type Getter interface {
	Fetch(ctx context.Context, src model.FeedSource) ([]byte, error)
}

// Result is the outcome for one feed. Exactly one of Body and Err is set.
type Result struct {
	Source model.FeedSource
	Body   []byte
	Err    error
	Dur    time.Duration
}

// OK reports whether the feed produced a payload.
func (r Result) OK() bool {
	return r.Err == nil
}

// FetchAll fetches every source concurrently and waits for all of them.
// Results are in source order. Failures are recorded in health and as
// fetch.error events and never abort the other fetches. health and events
// may be nil.
func FetchAll(ctx context.Context, g Getter, sources []model.FeedSource, health *Health, events *otel.Logger, runID string) []Result {
	results := make([]Result, len(sources))

	var group errgroup.Group
	for i, src := range sources {
		group.Go(func() error {
			start := time.Now()
			body, err := g.Fetch(ctx, src)
			dur := time.Since(start)

			results[i] = Result{Source: src, Body: body, Err: err, Dur: dur}

			if err != nil {
				health.RecordFailure(src, err)
				events.Emit(otel.Event{
					Level:  otel.LevelWarn,
					Kind:   otel.KindFetchError,
					Comp:   "fetch",
					RunID:  runID,
					Feed:   src.Label,
					Status: statusCode(err),
					Dur:    dur,
					Err:    err.Error(),
				})
			} else {
				health.RecordSuccess(src)
				events.Emit(otel.Event{
					Level: otel.LevelDebug,
					Kind:  otel.KindFetchComplete,
					Comp:  "fetch",
					RunID: runID,
					Feed:  src.Label,
					Count: len(body),
					Dur:   dur,
				})
			}
			return nil // errors are per-feed; never fail the group
		})
	}
	_ = group.Wait()

	return results
}

func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
