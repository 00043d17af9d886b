package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/news"
)

const ageColWidth = 8

// tierLabel is the band header for an urgency tier.
func tierLabel(u model.Urgency) string {
	return strings.ToUpper(string(u))
}

// RenderList renders the ranked list grouped into urgency bands, scrolled
// so the cursor stays visible.
func RenderList(items []model.NewsItem, cursor, width, height int) string {
	if len(items) == 0 {
		return HelpStyle.Render("No news yet. Press 'r' to refresh.")
	}

	availableHeight := height
	if availableHeight < 1 {
		availableHeight = 1
	}
	offset := calcScrollOffset(items, cursor, availableHeight)

	var b strings.Builder
	band := model.Urgency("")
	if offset > 0 {
		band = items[offset-1].Urgency
	}
	lines := 0

	for i := offset; i < len(items) && lines < availableHeight; i++ {
		item := items[i]
		if item.Urgency != band {
			band = item.Urgency
			b.WriteString(UrgencyHeader.Foreground(urgencyColor(band)).Render(tierLabel(band)))
			b.WriteString("\n")
			lines++
			if lines >= availableHeight {
				break
			}
		}
		b.WriteString(renderItemLine(item, i == cursor, width))
		b.WriteString("\n")
		lines++
	}
	return b.String()
}

// calcScrollOffset finds the smallest item index such that everything from
// there through the cursor, band headers included, fits in height lines.
func calcScrollOffset(items []model.NewsItem, cursor, height int) int {
	if len(items) == 0 || cursor < 0 {
		return 0
	}
	if cursor >= len(items) {
		cursor = len(items) - 1
	}

	offset := 0
	if cursor >= height {
		offset = cursor - height + 1
	}
	for offset <= cursor {
		if visibleLineCount(items, offset, cursor) <= height {
			return offset
		}
		offset++
	}
	return cursor
}

// visibleLineCount counts rendered lines for items[from..to], band headers
// included.
func visibleLineCount(items []model.NewsItem, from, to int) int {
	lines := 0
	band := model.Urgency("")
	if from > 0 {
		band = items[from-1].Urgency
	}
	for i := from; i <= to && i < len(items); i++ {
		if items[i].Urgency != band {
			band = items[i].Urgency
			lines++
		}
		lines++
	}
	return lines
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

// renderItemLine renders one headline: marker, source badge, title, age.
func renderItemLine(item model.NewsItem, selected bool, width int) string {
	marker := lipgloss.NewStyle().Foreground(urgencyColor(item.Urgency)).Render("●")
	badge := SourceBadge.Render(item.Source)

	titleWidth := width - lipgloss.Width(marker) - lipgloss.Width(badge) - ageColWidth - 4
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncateRunes(item.Title, titleWidth)

	style := NormalItem
	if selected {
		style = SelectedItem
	}
	left := marker + " " + badge + style.Render(title)

	age := item.Age
	pad := width - lipgloss.Width(left) - utf8.RuneCountInString(age) - 1
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + MetaItem.Render(age)
}

// RenderStatusBar renders the bottom bar: position or spinner on the left,
// key hints on the right.
func RenderStatusBar(resp news.Response, cursor, width int, loading bool, spin string) string {
	var left string
	switch {
	case loading:
		left = fmt.Sprintf(" %s Refreshing... ", spin)
	case len(resp.Items) == 0:
		left = " 0/0 "
	default:
		left = fmt.Sprintf(" %d/%d ", cursor+1, len(resp.Items))
	}
	if resp.Cached {
		left += StatusBarText.Render("cached ")
	}
	if resp.IsFallback {
		left += FallbackBanner.Render("OFFLINE") + " "
	}

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("D") + StatusBarText.Render(":debug"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	hints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + hints)
}

// Render prints a whole response for one-shot output, with subtitles.
func Render(resp news.Response, width int) string {
	var b strings.Builder

	header := fmt.Sprintf("MarketPulse  %d stories  %s", resp.Meta.Total, resp.Timestamp.Local().Format("15:04:05"))
	b.WriteString(DebugHeaderStyle.Render(header))
	if resp.Cached {
		b.WriteString(MetaItem.Render("  (cached)"))
	}
	b.WriteString("\n")
	if resp.IsFallback {
		b.WriteString(FallbackBanner.Render("Live feeds unavailable, showing placeholder headlines"))
		b.WriteString("\n")
	}

	band := model.Urgency("")
	for _, item := range resp.Items {
		if item.Urgency != band {
			band = item.Urgency
			count := resp.Meta.ByUrgency[band]
			b.WriteString(UrgencyHeader.Foreground(urgencyColor(band)).Render(fmt.Sprintf("%s (%d)", tierLabel(band), count)))
			b.WriteString("\n")
		}
		b.WriteString(renderItemLine(item, false, width))
		b.WriteString("\n")
		if item.Subtitle != "" {
			b.WriteString(MetaItem.Render("    " + truncateRunes(item.Subtitle, width-6)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
