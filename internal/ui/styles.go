package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/marketpulse/internal/model"
)

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorWarning   = lipgloss.Color("214") // Amber
	colorCritical  = lipgloss.Color("196") // Red
	colorHigh      = lipgloss.Color("208") // Orange
	colorMedium    = lipgloss.Color("39")  // Blue
)

// SelectedItem style for the currently highlighted item.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected items.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// UrgencyHeader style for tier labels. It must render on a single line;
// the list scroller counts each header as one.
var UrgencyHeader = lipgloss.NewStyle().
	Bold(true).
	Padding(0, 1)

// SourceBadge style for source name badges.
var SourceBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// MetaItem style for ages and subtitles.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorMuted)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// FallbackBanner marks placeholder data.
var FallbackBanner = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorWarning).
	Bold(true).
	Padding(0, 1)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorCritical).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// DebugPanel frames the event overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section titles inside DebugPanel.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// urgencyColor maps tiers to their accent color.
func urgencyColor(u model.Urgency) lipgloss.Color {
	switch u {
	case model.UrgencyCritical:
		return colorCritical
	case model.UrgencyHigh:
		return colorHigh
	case model.UrgencyMedium:
		return colorMedium
	default:
		return colorSecondary
	}
}
