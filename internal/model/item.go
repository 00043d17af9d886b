// Package model defines the core types shared across marketpulse.
package model

import (
	"fmt"
	"time"
)

// Urgency is the coarse importance tier assigned to a news item.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyNormal   Urgency = "normal"
)

// Urgencies lists the tiers from most to least urgent.
var Urgencies = []Urgency{UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyNormal}

// Rank orders tiers for sorting: critical=0 through normal=3.
// Unknown values sort after normal.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyNormal:
		return 3
	default:
		return 4
	}
}

// NewsItem is one normalized story. Link is the identity key.
type NewsItem struct {
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Category    Category  `json:"category"`
	Image       string    `json:"image,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Urgency     Urgency   `json:"urgency"`

	// Age is derived from PublishedAt when a response is built.
	Age string `json:"age,omitempty"`

	// Description is the cleaned feed description, kept for keyword matching only.
	Description string `json:"-"`
}

// HasImage reports whether the item carries a preview image.
func (i NewsItem) HasImage() bool {
	return i.Image != ""
}

// FormatAge renders how long ago t was, relative to now.
// Zero and future times render as "just now".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
