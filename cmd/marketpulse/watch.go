package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/marketpulse/internal/config"
	"github.com/abelbrown/marketpulse/internal/logging"
	"github.com/abelbrown/marketpulse/internal/ui"
)

var flagInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Auto-refreshing terminal view of the news list",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagInterval, "interval", time.Minute, "how often to re-read the list")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// the TUI owns the terminal, so human logs go to a file
	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := logging.InitFile(filepath.Join(config.DataDir(), "marketpulse.log"), cfg.Log.Level); err != nil {
		return err
	}
	defer logging.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		cancel()
		return err
	}
	defer rt.close()
	defer cancel()

	load := func() tea.Cmd {
		return func() tea.Msg {
			return ui.NewsLoaded{Resp: rt.service.Get(ctx)}
		}
	}

	app := ui.NewApp(load, flagInterval, rt.events.RingBuffer())
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
