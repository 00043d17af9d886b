package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
)

const testRSS = `<?xml version="1.0"?><rss version="2.0"><channel><item><title>Stocks up</title><link>http://example.com/1</link></item></channel></rss>`

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	defer server.Close()

	f := NewFetcher(time.Second, WithUserAgent("marketpulse-test"))
	body, err := f.Fetch(context.Background(), model.FeedSource{URL: server.URL, Label: "Test"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != testRSS {
		t.Errorf("unexpected body %q", body)
	}
	if gotUA != "marketpulse-test" {
		t.Errorf("expected custom user agent, got %q", gotUA)
	}
}

func TestFetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewFetcher(time.Second).Fetch(context.Background(), model.FeedSource{URL: server.URL})
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if statusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", statusCode(err))
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := NewFetcher(50*time.Millisecond).Fetch(context.Background(), model.FeedSource{URL: server.URL})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
}

func TestFetchBodyCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	body, err := NewFetcher(time.Second, WithMaxBody(100)).Fetch(context.Background(), model.FeedSource{URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(body) != 100 {
		t.Errorf("expected 100 bytes, got %d", len(body))
	}
}

func TestFetchBadURL(t *testing.T) {
	_, err := NewFetcher(time.Second).Fetch(context.Background(), model.FeedSource{URL: "http://localhost:99999/nope"})
	if err == nil {
		t.Error("expected error for unreachable feed")
	}
}

func TestRegistryOrdering(t *testing.T) {
	r := NewRegistry([]model.FeedSource{
		{Label: "low", Priority: 1},
		{Label: "high-a", Priority: 5},
		{Label: "mid", Priority: 3},
		{Label: "high-b", Priority: 5},
	})
	want := []string{"high-a", "high-b", "mid", "low"}
	for i, f := range r.Feeds() {
		if f.Label != want[i] {
			t.Errorf("position %d: got %s, want %s", i, f.Label, want[i])
		}
	}

	feeds := r.Feeds()
	feeds[0].Label = "mutated"
	if r.Feeds()[0].Label != "high-a" {
		t.Error("Feeds should return a copy")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	if r.Len() == 0 {
		t.Fatal("default registry is empty")
	}
	seen := make(map[string]bool)
	for _, f := range r.Feeds() {
		if _, err := model.ParseCategory(string(f.Category)); err != nil {
			t.Errorf("%s: %v", f.Label, err)
		}
		if !strings.HasPrefix(f.URL, "https://") {
			t.Errorf("%s: expected https URL, got %s", f.Label, f.URL)
		}
		if seen[f.URL] {
			t.Errorf("duplicate feed URL %s", f.URL)
		}
		seen[f.URL] = true
	}
	if len(r.ByCategory(model.CategoryCrypto)) == 0 {
		t.Error("expected at least one crypto feed")
	}
}
