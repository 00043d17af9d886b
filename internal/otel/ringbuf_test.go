package otel

import "testing"

func TestRingLastBeforeWrap(t *testing.T) {
	r := NewRingBuffer(4)
	r.Push(Event{Kind: KindFetchStart, Count: 1})
	r.Push(Event{Kind: KindFetchComplete, Count: 2})

	got := r.Last(5)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Count != 1 || got[1].Count != 2 {
		t.Errorf("wrong order: %+v", got)
	}
}

func TestRingLastAfterWrap(t *testing.T) {
	r := NewRingBuffer(3)
	for i := 1; i <= 5; i++ {
		r.Push(Event{Kind: KindFetchError, Count: i})
	}

	got := r.Last(3)
	want := []int{3, 4, 5}
	for i, ev := range got {
		if ev.Count != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], ev.Count)
		}
	}
	if last := r.Last(1); len(last) != 1 || last[0].Count != 5 {
		t.Errorf("Last(1) = %+v", last)
	}
	if r.Last(0) != nil {
		t.Error("Last(0) should be nil")
	}
	if r.Len() != 3 || r.Cap() != 3 {
		t.Errorf("len=%d cap=%d", r.Len(), r.Cap())
	}
}

func TestRingStats(t *testing.T) {
	r := NewRingBuffer(3)
	r.Push(Event{Kind: KindFetchError})
	r.Push(Event{Kind: KindFetchError})
	r.Push(Event{Kind: KindCacheHit})
	r.Push(Event{Kind: KindCacheHit}) // evicts the first fetch.error

	stats := r.Stats()
	if stats[KindFetchError] != 1 {
		t.Errorf("expected 1 fetch.error, got %d", stats[KindFetchError])
	}
	if stats[KindCacheHit] != 2 {
		t.Errorf("expected 2 cache.hit, got %d", stats[KindCacheHit])
	}
}

func TestRingCopiesExtra(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"k": 1}
	r.Push(Event{Kind: KindStartup, Extra: extra})
	extra["k"] = 2

	if got := r.Last(1)[0].Extra["k"]; got != 1 {
		t.Errorf("ring aliased caller map: %v", got)
	}
}

func TestDefaultRingSize(t *testing.T) {
	if NewRingBuffer(0).Cap() != DefaultRingSize {
		t.Error("expected default capacity")
	}
}
