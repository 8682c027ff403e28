package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/philipparndt/gowall/internal/engine"
	"github.com/philipparndt/gowall/internal/preview"
	"github.com/philipparndt/gowall/internal/server"
	"github.com/spf13/cobra"
)

var serveAccessLog bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over HTTP",
	Long: `Run the engine behind an HTTP API. Trackers post point and drag events,
menus post commands, renderers read /status and /state. State is restored
from --store or --db on startup and written back on every change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flags.ListenAddr, "listen", "", "listen address")
	serveCmd.Flags().IntVar(&flags.DebounceMS, "debounce-ms", 0, "minimum interval between accepted points")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", false, "log every request")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := engineOptions(cfg, log)
	opts.OnStatus = func(u engine.StatusUpdate) {
		log.Debug("status", "flow", u.Flow, "state", u.State, "points", u.PointCount, "message", u.Message)
	}
	e, err := engine.New(store, opts)
	if err != nil {
		return err
	}

	srv := server.New(e, server.Options{
		Logger:    log,
		Preview:   preview.Options{Size: cfg.PreviewSize, Supersample: cfg.PreviewSupersample},
		AccessLog: serveAccessLog,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.ListenAddr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
