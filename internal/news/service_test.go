package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/marketpulse/internal/fetch"
	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/otel"
	"github.com/abelbrown/marketpulse/internal/pipeline"
	"github.com/abelbrown/marketpulse/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// stubGetter serves the same body for every feed, or fails them all.
type stubGetter struct {
	body  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (g *stubGetter) Fetch(ctx context.Context, src model.FeedSource) ([]byte, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return []byte(g.body), nil
}

type recordingEnricher struct {
	mu    sync.Mutex
	calls [][]model.NewsItem
}

func (e *recordingEnricher) Trigger(items []model.NewsItem) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, items)
	return true
}

// rss builds a feed of n distinct market headlines published a minute apart.
func rss(n int, now time.Time) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>`)
	for i := 0; i < n; i++ {
		sum := sha256.Sum256([]byte(fmt.Sprint(i)))
		fmt.Fprintf(&b, `<item><title>Stock market update %s</title><link>https://wire.example.com/%d</link><pubDate>%s</pubDate><description>Shares moved.</description></item>`,
			hex.EncodeToString(sum[:]), i, now.Add(-time.Duration(i)*time.Minute).Format(time.RFC1123Z))
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func newTestService(t *testing.T, g fetch.Getter, clock *fakeClock, e Enricher) (*Service, *store.Store) {
	t.Helper()
	st := store.New(120*time.Second, clock.Now)
	reg := fetch.NewRegistry([]model.FeedSource{
		{URL: "https://wire.example.com/rss", Label: "Wire", Category: model.CategoryMarkets},
	})
	svc := NewService(Options{
		Registry: reg,
		Getter:   g,
		Store:    st,
		Pipeline: pipeline.Standard(nil, pipeline.Settings{
			SimilarityThreshold: 0.8,
			MaxItems:            50,
			Images:              st,
			Now:                 clock.Now,
		}),
		Enricher:   e,
		Health:     fetch.NewHealth(clock.Now),
		MaxPerFeed: 100,
	})
	return svc, st
}

func TestGetServesCacheWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := &stubGetter{body: rss(5, clock.Now())}
	svc, _ := newTestService(t, g, clock, nil)

	first := svc.Get(context.Background())
	if first.Cached || first.IsFallback {
		t.Fatalf("first read should be a fresh run: %+v", first)
	}
	if len(first.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(first.Items))
	}

	clock.Advance(60 * time.Second)
	second := svc.Get(context.Background())
	if !second.Cached {
		t.Fatal("second read within TTL should be cached")
	}
	if !second.Timestamp.Equal(first.Timestamp) {
		t.Errorf("timestamp changed: %v vs %v", second.Timestamp, first.Timestamp)
	}
	for i := range first.Items {
		if first.Items[i].Link != second.Items[i].Link || first.Items[i].Title != second.Items[i].Title {
			t.Errorf("item %d differs between reads", i)
		}
	}
	if g.calls.Load() != 1 {
		t.Errorf("cached read fetched again: %d calls", g.calls.Load())
	}

	clock.Advance(61 * time.Second)
	third := svc.Get(context.Background())
	if third.Cached {
		t.Error("read after TTL should rerun the pipeline")
	}
	if g.calls.Load() != 2 {
		t.Errorf("expected a second fetch, got %d calls", g.calls.Load())
	}
	if !third.Timestamp.After(first.Timestamp) {
		t.Error("new run should carry a newer timestamp")
	}
}

func TestGetComputesAgeAtReadTime(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc, st := newTestService(t, &stubGetter{body: rss(1, clock.Now())}, clock, nil)

	resp := svc.Get(context.Background())
	if resp.Items[0].Age != "just now" {
		t.Errorf("age = %q", resp.Items[0].Age)
	}

	clock.Advance(90 * time.Second)
	resp = svc.Get(context.Background())
	if !resp.Cached || resp.Items[0].Age != "1m ago" {
		t.Errorf("cached age = %q (cached=%v)", resp.Items[0].Age, resp.Cached)
	}

	entry, _ := st.Latest()
	if entry.Items[0].Age != "" {
		t.Error("age must not be stored in the cache")
	}
}

func TestGetFallbackWhenAllFeedsFail(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := &stubGetter{err: context.DeadlineExceeded}
	svc, st := newTestService(t, g, clock, nil)

	resp := svc.Get(context.Background())
	if !resp.IsFallback || resp.Cached {
		t.Fatalf("expected fallback response, got %+v", resp)
	}
	if len(resp.Items) != 5 {
		t.Errorf("expected 5 fallback items, got %d", len(resp.Items))
	}
	if resp.Meta.Total != 5 {
		t.Errorf("meta.total = %d", resp.Meta.Total)
	}
	if _, ok := st.Latest(); ok {
		t.Error("fallback must not be cached")
	}

	h, ok := svc.Health().Get("https://wire.example.com/rss")
	if !ok || h.ConsecutiveFailures != 1 {
		t.Errorf("health = %+v, %v", h, ok)
	}
}

func TestFailedRunKeepsExpiredEntry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := &stubGetter{body: rss(3, clock.Now())}
	svc, st := newTestService(t, g, clock, nil)

	first := svc.Get(context.Background())

	clock.Advance(5 * time.Minute)
	g.err = errors.New("upstream down")
	resp := svc.Get(context.Background())
	if !resp.IsFallback {
		t.Fatal("expected fallback once the cache expired and feeds failed")
	}

	entry, ok := st.Latest()
	if !ok || !entry.Timestamp.Equal(first.Timestamp) || len(entry.Items) != 3 {
		t.Errorf("expired entry should be untouched, got %+v (ok=%v)", entry, ok)
	}
}

func TestGetTruncatesToMaxItems(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, &stubGetter{body: rss(80, clock.Now())}, clock, nil)

	resp := svc.Get(context.Background())
	if len(resp.Items) != 50 {
		t.Fatalf("expected 50 items, got %d", len(resp.Items))
	}
	total := 0
	for _, n := range resp.Meta.ByUrgency {
		total += n
	}
	if total != 50 || resp.Meta.Total != 50 {
		t.Errorf("meta mismatch: total=%d byUrgency sum=%d", resp.Meta.Total, total)
	}

	seen := make(map[string]bool)
	for _, item := range resp.Items {
		if seen[item.Link] {
			t.Errorf("duplicate link %s", item.Link)
		}
		seen[item.Link] = true
	}
}

func TestGetTriggersEnrichment(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	e := &recordingEnricher{}
	svc, _ := newTestService(t, &stubGetter{body: rss(4, clock.Now())}, clock, e)

	svc.Get(context.Background())
	svc.Get(context.Background()) // cached, no new run

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(e.calls))
	}
	if len(e.calls[0]) != 4 {
		t.Errorf("trigger saw %d items", len(e.calls[0]))
	}
}

func TestConcurrentMissesShareOneRun(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := &stubGetter{body: rss(3, clock.Now()), delay: 100 * time.Millisecond}
	svc, _ := newTestService(t, g, clock, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp := svc.Get(context.Background()); len(resp.Items) != 3 {
				t.Errorf("got %d items", len(resp.Items))
			}
		}()
	}
	wg.Wait()

	if n := g.calls.Load(); n != 1 {
		t.Errorf("expected one shared fetch, got %d", n)
	}
}

func TestRefreshSurvivesCallerCancel(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := &stubGetter{body: rss(2, clock.Now()), delay: 50 * time.Millisecond}
	svc, st := newTestService(t, g, clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := svc.Refresh(ctx); !ok {
		t.Fatal("refresh should complete despite a cancelled caller")
	}
	if _, ok := st.Fresh(); !ok {
		t.Error("cache should be populated")
	}
}

func TestStartWarmsStaleCache(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := &stubGetter{body: rss(2, clock.Now())}
	svc, st := newTestService(t, g, clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := st.Fresh(); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	svc.Wait()

	if _, ok := st.Fresh(); !ok {
		t.Fatal("warmer never populated the cache")
	}
	if n := g.calls.Load(); n != 1 {
		t.Errorf("warmer should skip refresh while fresh, got %d fetches", n)
	}
}

func TestGetEmitsCacheEvents(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	events := otel.NewNullLogger()
	ring := otel.NewRingBuffer(64)
	events.SetRingBuffer(ring)

	st := store.New(0, clock.Now)
	svc := NewService(Options{
		Registry: fetch.NewRegistry([]model.FeedSource{{URL: "https://a.example.com/rss", Label: "A", Category: model.CategoryMarkets}}),
		Getter:   &stubGetter{body: rss(2, clock.Now())},
		Store:    st,
		Pipeline: pipeline.Standard(events, pipeline.Settings{SimilarityThreshold: 0.8, MaxItems: 50, Now: clock.Now}),
		Events:   events,
	})

	svc.Get(context.Background())
	svc.Get(context.Background())
	events.Close()

	stats := ring.Stats()
	if stats[otel.KindCacheMiss] != 1 || stats[otel.KindCacheHit] != 1 {
		t.Errorf("cache events = %v", stats)
	}
	if stats[otel.KindPipelineComplete] != 1 || stats[otel.KindParseComplete] != 1 {
		t.Errorf("run events = %v", stats)
	}
}
