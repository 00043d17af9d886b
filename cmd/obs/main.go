// Command obs is the debugging CLI for marketpulse.
//
// Usage:
//
//	obs events              JSONL event log viewer
//	obs stats               Per-kind and per-feed counts from the event log
//	obs parse <file|url>    Run the feed parser and print the drafts
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagEvents string

var rootCmd = &cobra.Command{
	Use:           "obs",
	Short:         "marketpulse debug CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEvents, "events", "", "event log path (default from config)")

	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "obs:", err)
		os.Exit(1)
	}
}
