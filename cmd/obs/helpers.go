package main

import (
	"fmt"
	"os"

	"github.com/abelbrown/marketpulse/internal/config"
)

// eventLogPath returns --events, else the path from the config file.
func eventLogPath() (string, error) {
	if flagEvents != "" {
		return flagEvents, nil
	}
	cfg, err := config.Load("")
	if err != nil {
		return "", err
	}
	if cfg.Log.Events == "" {
		return "", fmt.Errorf("event log disabled in config (log.events is empty)")
	}
	return cfg.Log.Events, nil
}

// openEventLog opens the event log with a hint when it does not exist yet.
func openEventLog() (*os.File, error) {
	path, err := eventLogPath()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("event log not found at %s (run `marketpulse serve` or `show` first)", path)
		}
		return nil, err
	}
	return f, nil
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
