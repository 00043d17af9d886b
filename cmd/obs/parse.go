package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/marketpulse/internal/fetch"
	"github.com/abelbrown/marketpulse/internal/filter"
	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/parse"
	"github.com/abelbrown/marketpulse/internal/ranking"
)

var (
	parseLabel    string
	parseCategory string
	parseMax      int
	parseTimeout  time.Duration
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|url>",
	Short: "Run the feed parser on a local file or URL and print the drafts",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	f := parseCmd.Flags()
	f.StringVar(&parseLabel, "label", "debug", "source label for the drafts")
	f.StringVar(&parseCategory, "category", string(model.CategoryMarkets), "feed category")
	f.IntVar(&parseMax, "max", parse.DefaultMaxItems, "maximum drafts")
	f.DurationVar(&parseTimeout, "timeout", 10*time.Second, "fetch timeout for URLs")
}

func runParse(cmd *cobra.Command, args []string) error {
	cat, err := model.ParseCategory(parseCategory)
	if err != nil {
		return err
	}
	src := model.FeedSource{URL: args[0], Label: parseLabel, Category: cat}

	raw, err := readFeed(cmd.Context(), src)
	if err != nil {
		return err
	}

	now := time.Now()
	res := parse.Parse(raw, src, parse.Options{MaxItems: parseMax, Now: now})
	printParse(cmd.OutOrStdout(), res, now)
	return nil
}

// readFeed loads src.URL from the network when it looks like a URL,
// otherwise from disk.
func readFeed(ctx context.Context, src model.FeedSource) ([]byte, error) {
	if strings.HasPrefix(src.URL, "http://") || strings.HasPrefix(src.URL, "https://") {
		if ctx == nil {
			ctx = context.Background()
		}
		return fetch.NewFetcher(parseTimeout).Fetch(ctx, src)
	}
	raw, err := os.ReadFile(src.URL)
	if err != nil {
		return nil, fmt.Errorf("reading feed file: %w", err)
	}
	return raw, nil
}

func printParse(w io.Writer, res parse.Result, now time.Time) {
	fmt.Fprintf(w, "format=%s blocks=%d drafts=%d skipped=%d date_fallbacks=%d\n\n",
		res.Format, res.Blocks, len(res.Items), res.Skipped, res.DateFallbacks)

	classifier := ranking.NewClassifier()
	for i, item := range res.Items {
		relevant := "-"
		if filter.Relevant(item.Title, item.Description) {
			relevant = "R"
		}
		urgency := classifier.Classify(item.Title, item.Description, item.PublishedAt, now)

		fmt.Fprintf(w, "%2d. [%s %-8s] %s\n", i+1, relevant, urgency, item.Title)
		fmt.Fprintf(w, "    %s  %s  %s\n", item.Source, item.PublishedAt.Format(time.RFC3339), model.FormatAge(item.PublishedAt, now))
		fmt.Fprintf(w, "    %s\n", item.Link)
		if item.Image != "" {
			fmt.Fprintf(w, "    img: %s\n", item.Image)
		}
		if item.Subtitle != "" {
			fmt.Fprintf(w, "    %s\n", truncate(item.Subtitle, 100))
		}
	}
}
