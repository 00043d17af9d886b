// Package store holds marketpulse's process-wide caches: the ranked result
// list, the per-article image cache and the enrichment sweep flag.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
)

const (
	// DefaultTTL is how long a ranked list is served without recomputing.
	DefaultTTL = 120 * time.Second
	// DefaultMaxImages bounds the image cache; oldest entries go first.
	DefaultMaxImages = 10000
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Store is a concrete cache service. Safe for concurrent use.
type Store struct {
	now       Clock
	ttl       time.Duration
	maxImages int

	mu     sync.RWMutex // guards result
	result *ResultEntry

	imgMu    sync.RWMutex // guards images and imgOrder
	images   map[string]*string
	imgOrder []string

	sweeping atomic.Bool
}

// ResultEntry is one cached pipeline output.
type ResultEntry struct {
	Items     []model.NewsItem
	Timestamp time.Time
}

// New creates a Store. A zero ttl selects DefaultTTL; a nil clock uses time.Now.
func New(ttl time.Duration, now Clock) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:       now,
		ttl:       ttl,
		maxImages: DefaultMaxImages,
		images:    make(map[string]*string),
	}
}

// Now returns the store's notion of the current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// TTL returns the result freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Fresh returns the cached result when now - Timestamp < TTL.
func (s *Store) Fresh() (ResultEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result == nil || s.now().Sub(s.result.Timestamp) >= s.ttl {
		return ResultEntry{}, false
	}
	return s.result.clone(), true
}

// Latest returns the cached result regardless of age.
func (s *Store) Latest() (ResultEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result == nil {
		return ResultEntry{}, false
	}
	return s.result.clone(), true
}

// PutResult replaces the cached result, stamped with the current time.
// An empty list never replaces an entry; ok reports whether it was stored.
func (s *Store) PutResult(items []model.NewsItem) (entry ResultEntry, ok bool) {
	if len(items) == 0 {
		return ResultEntry{}, false
	}
	e := ResultEntry{Items: items, Timestamp: s.now()}
	stored := e.clone()

	s.mu.Lock()
	s.result = &stored
	s.mu.Unlock()
	return stored.clone(), true
}

func (e *ResultEntry) clone() ResultEntry {
	items := make([]model.NewsItem, len(e.Items))
	copy(items, e.Items)
	return ResultEntry{Items: items, Timestamp: e.Timestamp}
}

// Image returns a positively cached image URL for link.
func (s *Store) Image(link string) (string, bool) {
	s.imgMu.RLock()
	defer s.imgMu.RUnlock()

	u, ok := s.images[link]
	if !ok || u == nil {
		return "", false
	}
	return *u, true
}

// ImageChecked reports whether link has an entry, positive or negative.
func (s *Store) ImageChecked(link string) bool {
	s.imgMu.RLock()
	defer s.imgMu.RUnlock()

	_, ok := s.images[link]
	return ok
}

// PutImage records the scrape outcome for link. An empty url stores the
// negative marker so the link is not scraped again.
func (s *Store) PutImage(link, url string) {
	var v *string
	if url != "" {
		v = &url
	}

	s.imgMu.Lock()
	defer s.imgMu.Unlock()

	if _, exists := s.images[link]; !exists {
		s.imgOrder = append(s.imgOrder, link)
	}
	s.images[link] = v

	for len(s.imgOrder) > s.maxImages {
		delete(s.images, s.imgOrder[0])
		s.imgOrder = s.imgOrder[1:]
	}
}

// ImageStats counts positive and negative image entries.
func (s *Store) ImageStats() (found, missing int) {
	s.imgMu.RLock()
	defer s.imgMu.RUnlock()

	for _, u := range s.images {
		if u == nil {
			missing++
		} else {
			found++
		}
	}
	return found, missing
}

// TryBeginSweep claims the enrichment flag. It returns false when a sweep
// is already running; the caller must then skip, not wait.
func (s *Store) TryBeginSweep() bool {
	return s.sweeping.CompareAndSwap(false, true)
}

// EndSweep releases the enrichment flag.
func (s *Store) EndSweep() {
	s.sweeping.Store(false)
}

// Sweeping reports whether an enrichment sweep is in flight.
func (s *Store) Sweeping() bool {
	return s.sweeping.Load()
}
