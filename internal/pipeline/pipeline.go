// Package pipeline runs the ordered post-parse stages over a news list.
//
// A Pipeline is a fixed sequence of named Stages. Each stage receives the
// previous stage's output. Stages must not modify their input slice.
//
// # Context Cancellation
//
// The pipeline checks ctx before every stage and returns ctx.Err() when it
// is done. Stages that loop over large inputs should check it too.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/abelbrown/marketpulse/internal/filter"
	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/otel"
	"github.com/abelbrown/marketpulse/internal/ranking"
)

// Stage transforms a list of items.
type Stage interface {
	// Name identifies the stage in events.
	Name() string

	// Run returns the transformed items or an error.
	Run(ctx context.Context, items []model.NewsItem) ([]model.NewsItem, error)
}

// SyncStage adapts a plain function into a Stage.
//
// Example:
//
//	stage := NewSyncStage("drop-empty", func(ctx context.Context, items []model.NewsItem) ([]model.NewsItem, error) {
//	    out := make([]model.NewsItem, 0, len(items))
//	    for _, it := range items {
//	        if it.Title != "" {
//	            out = append(out, it)
//	        }
//	    }
//	    return out, nil
//	})
type SyncStage struct {
	name string
	fn   func(ctx context.Context, items []model.NewsItem) ([]model.NewsItem, error)
}

// NewSyncStage creates a Stage from fn.
func NewSyncStage(name string, fn func(ctx context.Context, items []model.NewsItem) ([]model.NewsItem, error)) *SyncStage {
	return &SyncStage{name: name, fn: fn}
}

// Name returns the stage name.
func (s *SyncStage) Name() string {
	return s.name
}

// Run executes the stage.
func (s *SyncStage) Run(ctx context.Context, items []model.NewsItem) ([]model.NewsItem, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return s.fn(ctx, items)
}

// Pipeline is an ordered list of stages. Safe for concurrent Run calls as
// long as its stages are.
type Pipeline struct {
	stages []Stage
	events *otel.Logger
}

// New creates a Pipeline. events may be nil.
func New(events *otel.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, events: events}
}

// Stages returns the stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run feeds items through every stage. A pipeline.stage event with the
// output count and duration is emitted per stage.
func (p *Pipeline) Run(ctx context.Context, items []model.NewsItem, runID string) ([]model.NewsItem, error) {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		out, err := stage.Run(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}

		p.events.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindPipelineStage,
			Comp:  "pipeline",
			RunID: runID,
			Msg:   stage.Name(),
			Count: len(out),
			Dur:   time.Since(start),
			Extra: map[string]any{"in": len(items)},
		})
		items = out
	}
	return items, nil
}

// Settings parameterize the standard stages.
type Settings struct {
	Classifier          *ranking.Classifier
	SimilarityThreshold float64
	MaxItems            int
	Images              ranking.ImageLookup // may be nil
	Now                 func() time.Time
}

// Standard builds relevance → classify → dedup → rank.
func Standard(events *otel.Logger, s Settings) *Pipeline {
	if s.Classifier == nil {
		s.Classifier = ranking.NewClassifier()
	}
	if s.Now == nil {
		s.Now = time.Now
	}

	return New(events,
		NewSyncStage("relevance", func(_ context.Context, items []model.NewsItem) ([]model.NewsItem, error) {
			return filter.ByRelevance(items), nil
		}),
		NewSyncStage("classify", func(_ context.Context, items []model.NewsItem) ([]model.NewsItem, error) {
			return s.Classifier.Apply(items, s.Now()), nil
		}),
		NewSyncStage("dedup", func(_ context.Context, items []model.NewsItem) ([]model.NewsItem, error) {
			return filter.Dedup(items, s.SimilarityThreshold), nil
		}),
		NewSyncStage("rank", func(_ context.Context, items []model.NewsItem) ([]model.NewsItem, error) {
			return ranking.Rank(items, s.MaxItems, s.Images), nil
		}),
	)
}
