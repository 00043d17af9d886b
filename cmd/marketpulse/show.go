package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/marketpulse/internal/logging"
	"github.com/abelbrown/marketpulse/internal/ui"
)

var (
	flagJSON  bool
	flagWidth int
	flagLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch and print the ranked news list once",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&flagJSON, "json", false, "print the response as JSON")
	showCmd.Flags().IntVar(&flagWidth, "width", 100, "output width")
	showCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "show at most n items (0 = all)")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// keep stdout clean for the listing
	if err := logging.Init(os.Stderr, cfg.Log.Level); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		cancel()
		return err
	}
	defer rt.close()
	// abandon any enrichment sweep; a one-shot run will not see its results
	defer cancel()

	resp := rt.service.Get(ctx)
	if flagLimit > 0 && len(resp.Items) > flagLimit {
		resp.Items = resp.Items[:flagLimit]
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Fprint(out, ui.Render(resp, flagWidth))
	return nil
}
