package enrich

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/otel"
	"github.com/abelbrown/marketpulse/internal/store"
)

func page(head string) string {
	return "<html><head><title>t</title>" + head + "</head><body><p>story</p></body></html>"
}

func newsItems(links ...string) []model.NewsItem {
	out := make([]model.NewsItem, len(links))
	for i, l := range links {
		out[i] = model.NewsItem{Title: fmt.Sprintf("story %d", i), Link: l}
	}
	return out
}

func TestExtractImageOrder(t *testing.T) {
	base, _ := url.Parse("https://news.example.com/markets/story.html")

	tests := []struct {
		name string
		head string
		want string
	}{
		{
			name: "og image wins",
			head: `<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">` +
				`<meta property="og:image" content="https://cdn.example.com/og.jpg">`,
			want: "https://cdn.example.com/og.jpg",
		},
		{
			name: "twitter when no og",
			head: `<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">`,
			want: "https://cdn.example.com/tw.jpg",
		},
		{
			name: "twitter property form",
			head: `<meta property="twitter:image" content="https://cdn.example.com/tw2.jpg">`,
			want: "https://cdn.example.com/tw2.jpg",
		},
		{
			name: "image_src link",
			head: `<link rel="image_src" href="https://cdn.example.com/src.png">`,
			want: "https://cdn.example.com/src.png",
		},
		{
			name: "relative og image resolved",
			head: `<meta property="og:image" content="/img/lead.jpg">`,
			want: "https://news.example.com/img/lead.jpg",
		},
		{
			name: "junk og falls through",
			head: `<meta property="og:image" content="https://cdn.example.com/pixel.gif">` +
				`<link rel="image_src" href="https://cdn.example.com/real.jpg">`,
			want: "https://cdn.example.com/real.jpg",
		},
		{
			name: "nothing",
			head: `<meta name="description" content="no image here">`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractImage([]byte(page(tt.head)), base)
			if err != nil {
				t.Fatalf("extractImage: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadHeadStopsAtHeadClose(t *testing.T) {
	body := "<html><HEAD><meta property=\"og:image\" content=\"x\"></HEAD><body>" +
		strings.Repeat("filler ", 20000) + "</body></html>"

	got, err := readHead(strings.NewReader(body), 1<<20)
	if err != nil {
		t.Fatalf("readHead: %v", err)
	}
	if !bytes.Contains(bytes.ToLower(got), []byte("</head>")) {
		t.Fatal("head close missing from result")
	}
	if len(got) >= len(body) {
		t.Errorf("read %d bytes, expected early stop", len(got))
	}
}

func TestReadHeadRespectsLimit(t *testing.T) {
	body := strings.Repeat("a", 100_000)

	got, err := readHead(strings.NewReader(body), DefaultMaxBytes)
	if err != nil {
		t.Fatalf("readHead: %v", err)
	}
	if len(got) != DefaultMaxBytes {
		t.Errorf("read %d bytes, want %d", len(got), DefaultMaxBytes)
	}
}

func TestReadHeadSplitAcrossChunks(t *testing.T) {
	// place </head> so it straddles the 4096-byte read boundary
	prefix := strings.Repeat("x", 4093)
	body := prefix + "</head>" + strings.Repeat("y", 50_000)

	got, err := readHead(strings.NewReader(body), 1<<20)
	if err != nil {
		t.Fatalf("readHead: %v", err)
	}
	if len(got) > 8192 {
		t.Errorf("read %d bytes, expected stop after second chunk", len(got))
	}
}

func TestTriggerFindsAndCachesImages(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/with":
			fmt.Fprint(w, page(`<meta property="og:image" content="/lead.jpg">`))
		case "/without":
			fmt.Fprint(w, page(""))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	st := store.New(0, nil)
	ring := otel.NewRingBuffer(64)
	events := otel.NewNullLogger()
	events.SetRingBuffer(ring)

	w := NewWorker(context.Background(), st, WithEvents(events))
	items := newsItems(srv.URL+"/with", srv.URL+"/without", srv.URL+"/gone")

	if !w.Trigger(items) {
		t.Fatal("first trigger should start a sweep")
	}
	w.Wait()
	events.Close()

	if got, ok := st.Image(srv.URL + "/with"); !ok || got != srv.URL+"/lead.jpg" {
		t.Errorf("image for /with = %q, %v", got, ok)
	}
	for _, l := range []string{"/without", "/gone"} {
		if !st.ImageChecked(srv.URL + l) {
			t.Errorf("%s should have a negative entry", l)
		}
		if _, ok := st.Image(srv.URL + l); ok {
			t.Errorf("%s should not have an image", l)
		}
	}
	if st.Sweeping() {
		t.Error("sweep flag still held after Wait")
	}
	if w.Sweeps() != 1 {
		t.Errorf("sweeps = %d, want 1", w.Sweeps())
	}

	// everything is cached now, so nothing is fetched again
	if w.Trigger(items) {
		t.Error("second trigger should have no candidates")
	}
	w.Wait()
	if n := hits.Load(); n != 3 {
		t.Errorf("server hits = %d, want 3", n)
	}

	stats := ring.Stats()
	if stats[otel.KindEnrichComplete] != 1 {
		t.Errorf("enrich.complete events = %d, want 1", stats[otel.KindEnrichComplete])
	}
	if stats[otel.KindEnrichError] != 1 {
		t.Errorf("enrich.error events = %d, want 1", stats[otel.KindEnrichError])
	}
}

func TestTriggerSkipsWhileSweepRunning(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, page(""))
	}))
	defer srv.Close()

	st := store.New(0, nil)
	w := NewWorker(context.Background(), st, WithTimeout(5*time.Second))

	if !w.Trigger(newsItems(srv.URL + "/a")) {
		t.Fatal("first trigger should start a sweep")
	}
	if w.Trigger(newsItems(srv.URL + "/b")) {
		t.Error("second trigger should be dropped while a sweep runs")
	}
	close(release)
	w.Wait()

	if st.ImageChecked(srv.URL + "/b") {
		t.Error("dropped trigger must not be queued")
	}
	if !st.ImageChecked(srv.URL + "/a") {
		t.Error("first sweep should have recorded /a")
	}
}

func TestCandidates(t *testing.T) {
	st := store.New(0, nil)
	st.PutImage("https://x.example.com/checked", "")
	w := NewWorker(context.Background(), st, WithMaxItems(2))

	items := newsItems(
		"https://x.example.com/checked",
		"https://x.example.com/a",
		"https://x.example.com/a",
		"",
		"https://x.example.com/b",
		"https://x.example.com/c",
	)
	items = append(items, model.NewsItem{Link: "https://x.example.com/img", Image: "https://cdn.example.com/i.jpg"})

	got := w.Candidates(items)
	want := []string{"https://x.example.com/a", "https://x.example.com/b"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidates[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScrapeTimeoutCachesNegative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	st := store.New(0, nil)
	w := NewWorker(context.Background(), st, WithTimeout(50*time.Millisecond))

	start := time.Now()
	w.Trigger(newsItems(srv.URL + "/slow"))
	w.Wait()

	if time.Since(start) > time.Second {
		t.Errorf("sweep took %v, per-article timeout not applied", time.Since(start))
	}
	if !st.ImageChecked(srv.URL + "/slow") {
		t.Error("timed out link should be cached negative")
	}
}
