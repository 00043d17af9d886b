// Package parse turns raw RSS, Atom and JSON Feed payloads into news item
// drafts.
//
// One permissive scanner handles every XML source. It never fails: blocks it
// cannot make sense of are skipped and counted in the Result. JSON Feed has
// no tags to scan and goes through gofeed instead.
package parse

import (
	"bytes"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/abelbrown/marketpulse/internal/model"
)

const (
	// DefaultMaxItems caps drafts taken from a single feed.
	DefaultMaxItems = 12
	// MaxTitleLen and MaxSubtitleLen are rune limits.
	MaxTitleLen    = 150
	MaxSubtitleLen = 120
)

var (
	titleTags       = []string{"title"}
	dateTags        = []string{"pubDate", "published", "updated", "dc:date"}
	descriptionTags = []string{"description", "summary", "content", "content:encoded"}
)

// Options tune a Parse call. Zero values select the defaults.
type Options struct {
	MaxItems int
	Now      time.Time // substituted for missing or garbled dates
}

// Result is the outcome of parsing one feed payload.
type Result struct {
	Items         []model.NewsItem
	Format        string // "rss", "atom", "json" or "unknown"
	Blocks        int    // item/entry blocks found
	Skipped       int    // blocks without a title or link
	DateFallbacks int    // drafts stamped with Options.Now
}

// Parse extracts up to opts.MaxItems drafts from raw. Urgency and Age are
// left unset.
func Parse(raw []byte, src model.FeedSource, opts Options) Result {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	res := Result{Format: "unknown", Items: []model.NewsItem{}}
	order := []string{"item", "entry"}
	switch gofeed.DetectFeedType(bytes.NewReader(raw)) {
	case gofeed.FeedTypeAtom:
		res.Format = "atom"
		order = []string{"entry", "item"}
	case gofeed.FeedTypeRSS:
		res.Format = "rss"
	case gofeed.FeedTypeJSON:
		res.Format = "json"
		parseJSON(raw, src, opts, &res)
		return res
	}

	doc := string(raw)
	var blocks []element
	for _, tag := range order {
		if blocks = findElements(doc, tag); len(blocks) > 0 {
			break
		}
	}
	res.Blocks = len(blocks)

	for _, b := range blocks {
		if len(res.Items) >= opts.MaxItems {
			break
		}
		item, dated, ok := parseBlock(b.inner, src, opts.Now)
		if !ok {
			res.Skipped++
			continue
		}
		if !dated {
			res.DateFallbacks++
		}
		res.Items = append(res.Items, item)
	}
	return res
}

// parseBlock builds one draft. dated is false when PublishedAt fell back to now.
func parseBlock(block string, src model.FeedSource, now time.Time) (item model.NewsItem, dated, ok bool) {
	title := CleanText(pickText(block, titleTags...))
	link := pickLink(block)
	if title == "" || link == "" {
		return model.NewsItem{}, false, false
	}

	rawDesc := pickText(block, descriptionTags...)
	desc := CleanText(rawDesc)

	published, dated := ParseDate(pickText(block, dateTags...))
	if !dated {
		published = now
	}

	subtitle := desc
	if subtitle == "" {
		subtitle = src.Category.Label()
	}

	return model.NewsItem{
		Title:       Truncate(title, MaxTitleLen),
		Subtitle:    Truncate(subtitle, MaxSubtitleLen),
		Link:        link,
		Source:      creditedSource(block, src.Label),
		Category:    src.Category,
		Image:       extractImage(block, rawDesc),
		PublishedAt: published,
		Description: desc,
	}, dated, true
}

// creditedSource returns the publisher named by an RSS <source url="...">
// element, as aggregator feeds carry one, else label.
func creditedSource(block, label string) string {
	for _, el := range findElements(block, "source") {
		if el.attrs["url"] == "" {
			continue
		}
		if name := CleanText(el.inner); name != "" {
			return name
		}
	}
	return label
}

// parseJSON fills res from a JSON Feed document. A document gofeed cannot
// decode yields no items, like an XML payload without blocks.
func parseJSON(raw []byte, src model.FeedSource, opts Options, res *Result) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return
	}
	res.Blocks = len(feed.Items)

	for _, it := range feed.Items {
		if len(res.Items) >= opts.MaxItems {
			break
		}
		title := CleanText(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			res.Skipped++
			continue
		}

		rawDesc := it.Description
		if rawDesc == "" {
			rawDesc = it.Content
		}
		desc := CleanText(rawDesc)
		subtitle := desc
		if subtitle == "" {
			subtitle = src.Category.Label()
		}

		published := opts.Now
		switch {
		case it.PublishedParsed != nil:
			published = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			published = *it.UpdatedParsed
		default:
			res.DateFallbacks++
		}

		image := ""
		if it.Image != nil && ValidImageURL(it.Image.URL) {
			image = it.Image.URL
		} else {
			image = extractImage("", rawDesc)
		}

		res.Items = append(res.Items, model.NewsItem{
			Title:       Truncate(title, MaxTitleLen),
			Subtitle:    Truncate(subtitle, MaxSubtitleLen),
			Link:        link,
			Source:      src.Label,
			Category:    src.Category,
			Image:       image,
			PublishedAt: published,
			Description: desc,
		})
	}
}
