package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abelbrown/marketpulse/internal/httpapi"
	"github.com/abelbrown/marketpulse/internal/logging"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ranked news list over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if err := logging.Init(os.Stderr, cfg.Log.Level); err != nil {
		return err
	}
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	var limiter *httpapi.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = httpapi.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
		go limiter.Run(ctx)
	}

	api := httpapi.NewServer(httpapi.Options{
		News:     rt.service,
		Registry: rt.registry,
		Health:   rt.health,
		Events:   rt.events,
		Limiter:  limiter,
		Version:  version,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	rt.service.Start(ctx, cfg.Cache.WarmInterval)

	errCh := make(chan error, 1)
	go func() {
		logging.Info("listening", "addr", cfg.Server.Addr, "feeds", rt.registry.Len())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
		}
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.Info("stopped")
	return nil
}
