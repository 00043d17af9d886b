// Command marketpulse aggregates market news feeds and serves a ranked,
// deduplicated list over HTTP or in the terminal.
//
// Usage:
//
//	marketpulse serve       HTTP API (/api/news, /api/news.rss, /api/feeds)
//	marketpulse show        Print the current list once
//	marketpulse watch       Auto-refreshing terminal UI
//	marketpulse feeds       List configured feeds
//	marketpulse version     Print version information
package main

func main() {
	Execute()
}
