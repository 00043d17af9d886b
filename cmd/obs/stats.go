package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var statsSince time.Duration

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the event log: runs, cache, enrichment and per-feed failures",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().DurationVar(&statsSince, "since", 0, "only count events newer than this (e.g. 1h); 0 counts all")
}

type feedStats struct {
	ok       int
	failed   int
	totalMs  float64
	lastErr  string
	lastCode int
}

type logStats struct {
	events    int
	byKind    map[string]int
	feeds     map[string]*feedStats
	sessions  map[string]bool
	runMs     []float64
	firstSeen time.Time
	lastSeen  time.Time
}

func newLogStats() *logStats {
	return &logStats{
		byKind:   make(map[string]int),
		feeds:    make(map[string]*feedStats),
		sessions: make(map[string]bool),
	}
}

func (s *logStats) add(ev eventRecord) {
	s.events++
	s.byKind[ev.Kind]++
	if ev.SessionID != "" {
		s.sessions[ev.SessionID] = true
	}
	if s.firstSeen.IsZero() || ev.Time.Before(s.firstSeen) {
		s.firstSeen = ev.Time
	}
	if ev.Time.After(s.lastSeen) {
		s.lastSeen = ev.Time
	}

	switch ev.Kind {
	case "fetch.complete", "fetch.error":
		fs := s.feeds[ev.Feed]
		if fs == nil {
			fs = &feedStats{}
			s.feeds[ev.Feed] = fs
		}
		fs.totalMs += ev.DurMs
		if ev.Kind == "fetch.complete" {
			fs.ok++
		} else {
			fs.failed++
			fs.lastErr = ev.Err
			fs.lastCode = ev.Status
		}
	case "pipeline.complete":
		s.runMs = append(s.runMs, ev.DurMs)
	}
}

// collectStats reads JSONL events from r, skipping lines older than since.
func collectStats(r io.Reader, since time.Time) (*logStats, error) {
	s := newLogStats()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		var ev eventRecord
		if json.Unmarshal(scanner.Bytes(), &ev) != nil {
			continue
		}
		if !since.IsZero() && ev.Time.Before(since) {
			continue
		}
		s.add(ev)
	}
	return s, scanner.Err()
}

// failingFeeds returns feed labels ordered by failure count, worst first.
func (s *logStats) failingFeeds() []string {
	var names []string
	for name, fs := range s.feeds {
		if fs.failed > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.feeds[names[i]], s.feeds[names[j]]
		if a.failed != b.failed {
			return a.failed > b.failed
		}
		return names[i] < names[j]
	})
	return names
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func runStats(cmd *cobra.Command, args []string) error {
	f, err := openEventLog()
	if err != nil {
		return err
	}
	defer f.Close()

	var since time.Time
	if statsSince > 0 {
		since = time.Now().Add(-statsSince)
	}
	s, err := collectStats(f, since)
	if err != nil {
		return fmt.Errorf("reading event log: %w", err)
	}
	printStats(cmd.OutOrStdout(), s)
	return nil
}

func printStats(w io.Writer, s *logStats) {
	if s.events == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}

	fmt.Fprintf(w, "Events:                %d (%d sessions)\n", s.events, len(s.sessions))
	fmt.Fprintf(w, "Window:                %s .. %s\n", s.firstSeen.Local().Format(time.DateTime), s.lastSeen.Local().Format(time.DateTime))

	runs := s.byKind["pipeline.complete"]
	fmt.Fprintf(w, "\nPipeline runs:         %d\n", runs)
	fmt.Fprintf(w, "Empty runs:            %d\n", s.byKind["pipeline.empty"])
	fmt.Fprintf(w, "Fallback responses:    %d\n", s.byKind["pipeline.fallback"])
	if len(s.runMs) > 0 {
		sum := 0.0
		for _, ms := range s.runMs {
			sum += ms
		}
		fmt.Fprintf(w, "Mean run time:         %.0fms\n", sum/float64(len(s.runMs)))
	}

	hits, misses := s.byKind["cache.hit"], s.byKind["cache.miss"]
	fmt.Fprintf(w, "\nCache hits:            %d (%.1f%%)\n", hits, percent(hits, hits+misses))
	fmt.Fprintf(w, "Cache misses:          %d\n", misses)

	found, miss, scrapeErr := s.byKind["enrich.scrape"], s.byKind["enrich.miss"], s.byKind["enrich.error"]
	fmt.Fprintf(w, "\nEnrichment sweeps:     %d (%d skipped while busy)\n", s.byKind["enrich.complete"], s.byKind["enrich.skip"])
	fmt.Fprintf(w, "Images found:          %d of %d scraped (%.1f%%)\n", found, found+miss+scrapeErr, percent(found, found+miss+scrapeErr))

	failing := s.failingFeeds()
	fmt.Fprintf(w, "\nFeeds seen: %d, with failures: %d\n", len(s.feeds), len(failing))
	for _, name := range failing {
		fs := s.feeds[name]
		last := truncate(fs.lastErr, 50)
		if fs.lastCode > 0 {
			last = fmt.Sprintf("HTTP %d", fs.lastCode)
		}
		total := fs.ok + fs.failed
		fmt.Fprintf(w, "  %-28s %3d/%-3d failed  avg %5.0fms  %s\n", truncate(name, 28), fs.failed, total, fs.totalMs/float64(total), last)
	}

	kinds := make([]string, 0, len(s.byKind))
	for k := range s.byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintln(w, "\nBy kind:")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-24s %d\n", k, s.byKind[k])
	}
}
