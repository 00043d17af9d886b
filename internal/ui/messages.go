// Package ui renders the ranked news list in the terminal.
package ui

import "github.com/abelbrown/marketpulse/internal/news"

// NewsLoaded is sent when a read of the news service finishes.
type NewsLoaded struct {
	Resp news.Response
	Err  error
}

// RefreshTick triggers periodic refresh.
type RefreshTick struct{}
