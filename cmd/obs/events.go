package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// eventRecord mirrors otel.Event for JSON decoding. Decoding from JSONL
// rather than importing otel keeps obs usable across schema changes.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	RunID     string         `json:"run_id"`
	DurMs     float64        `json:"dur_ms"`
	Count     int            `json:"count"`
	Feed      string         `json:"feed"`
	Link      string         `json:"link"`
	Status    int            `json:"status"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

// eventFilter selects records; empty fields match everything.
type eventFilter struct {
	kind  string // prefix
	level string // minimum
	comp  string
	run   string // prefix
	feed  string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.run != "" && !strings.HasPrefix(ev.RunID, f.run) {
		return false
	}
	if f.feed != "" && !strings.EqualFold(ev.Feed, f.feed) {
		return false
	}
	return true
}

var (
	evFilter  eventFilter
	evTail    int
	evFollow  bool
	evRawJSON bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent observability events",
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.IntVar(&evTail, "tail", 50, "number of recent lines to show")
	f.BoolVarP(&evFollow, "follow", "f", false, "follow mode (like tail -f)")
	f.StringVar(&evFilter.kind, "kind", "", "filter by event kind prefix (e.g. 'fetch')")
	f.StringVar(&evFilter.level, "level", "", "minimum level: debug, info, warn, error")
	f.StringVar(&evFilter.comp, "comp", "", "filter by component name")
	f.StringVar(&evFilter.run, "run", "", "filter by run ID prefix")
	f.StringVar(&evFilter.feed, "feed", "", "filter by feed label")
	f.BoolVar(&evRawJSON, "json", false, "output raw JSON lines")
}

func runEvents(cmd *cobra.Command, args []string) error {
	f, err := openEventLog()
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	for _, l := range readTailLines(f, evTail, evFilter.match) {
		fmt.Fprintln(out, formatEvent(l.ev, l.raw, evRawJSON))
	}
	if !evFollow {
		return nil
	}

	// the file offset is now at EOF; poll for appended lines
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if evFilter.match(ev) {
			fmt.Fprintln(out, formatEvent(ev, line, evRawJSON))
		}
	}
}

func formatEvent(ev eventRecord, raw []byte, rawJSON bool) string {
	if rawJSON {
		return string(raw)
	}
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-8s] %-22s", ev.Time.Local().Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}
	if ev.Feed != "" {
		parts = append(parts, "feed="+ev.Feed)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Status > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", ev.Status))
	}
	if ev.Link != "" {
		parts = append(parts, "link="+truncate(ev.Link, 60))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	if ev.RunID != "" {
		parts = append(parts, "run="+truncate(ev.RunID, 8))
	}
	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines returns the last n lines of r that decode and match.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// some events carry large Extra maps
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 || n <= 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// scanner reuses its buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
