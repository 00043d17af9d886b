package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fixtureTitles are the market headlines served by the fixture feed.
var fixtureTitles = []string{
	"Fixture stocks rally as Fed signals rate cut",
	"Fixture bond yields slide after inflation report",
}

// newFixtureServer serves one RSS feed at /feed.xml and one article page per
// item carrying an og:image tag.
func newFixtureServer() *httptest.Server {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Fixture</title>`)
		for i, title := range fixtureTitles {
			fmt.Fprintf(&b, `<item><title>%s</title><link>%s/article/%d</link><description>Deterministic item for UI tests.</description><pubDate>%s</pubDate></item>`,
				title, srv.URL, i, now.Add(-time.Duration(i+1)*10*time.Minute).Format(time.RFC1123Z))
		}
		b.WriteString(`</channel></rss>`)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/article/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `<html><head><meta property="og:image" content="/img%s.jpg"></head><body></body></html>`, r.URL.Path)
	})
	srv = httptest.NewServer(mux)
	return srv
}

// writeFixtureConfig writes a config that points marketpulse at feedURL and
// keeps all state under homeDir. Returns the config path.
func writeFixtureConfig(homeDir, feedURL string) (string, error) {
	cfgDir := filepath.Join(homeDir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(cfgDir, "config.yaml")
	body := fmt.Sprintf(`cache:
  ttl: 2m
log:
  level: debug
  events: %s
feeds:
  - url: %s
    label: Fixture Wire
    category: markets
    priority: 1
`, filepath.Join(homeDir, "events.jsonl"), feedURL)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// fixtureEnv isolates XDG directories under homeDir.
func fixtureEnv(homeDir string) []string {
	return append(os.Environ(),
		"HOME="+homeDir,
		"XDG_CONFIG_HOME="+filepath.Join(homeDir, "config"),
		"XDG_STATE_HOME="+filepath.Join(homeDir, "state"),
	)
}
