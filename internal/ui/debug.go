package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/marketpulse/internal/otel"
)

// debugPanelChrome is the number of lines DebugPanel's border and padding
// take. Keep in sync with the DebugPanel style.
const debugPanelChrome = 4

// debugOverlay renders run stats and recent events. Returns "" if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Pipeline Stats"))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError]))
	lines = append(lines, fmt.Sprintf("  Runs:       %d complete, %d empty, %d fallback",
		stats[otel.KindPipelineComplete], stats[otel.KindPipelineEmpty], stats[otel.KindPipelineFallback]))
	lines = append(lines, fmt.Sprintf("  Cache:      %d hit, %d miss",
		stats[otel.KindCacheHit], stats[otel.KindCacheMiss]))
	lines = append(lines, fmt.Sprintf("  Enrich:     %d sweeps, %d skipped, %d found, %d errors",
		stats[otel.KindEnrichComplete], stats[otel.KindEnrichSkip], stats[otel.KindEnrichScrape], stats[otel.KindEnrichError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range ring.Last(20) {
		line := fmt.Sprintf("  %6s  %-22s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Feed != "" {
			line += "  " + truncateRunes(e.Feed, 20)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}
	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration compactly. Negative durations from clock
// skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
