package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/philipparndt/gowall/internal/config"
	"github.com/philipparndt/gowall/internal/engine"
	"github.com/philipparndt/gowall/internal/preview"
	"github.com/philipparndt/gowall/internal/storage"
	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/watcher"
	"github.com/spf13/cobra"
)

var watchPreview string

// saves from editors arrive as bursts of write events
const watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <session.jsonl>",
	Short: "Re-run a session script whenever it changes",
	Long: `Replay a session script from an empty state every time the file is saved.
The result replaces the configured store and, with --preview, is rendered
to an image so a layout can be edited by hand and checked immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPreview, "preview", "", "render the result to this .png or .webp file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cfg.NewLogger()
	script := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, closeSink, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	run := func() {
		if err := rebuild(ctx, cfg, log, script, sink); err != nil {
			log.Error("replay failed", "script", script, "error", err)
		}
	}
	run()

	w, err := watcher.New(watchDebounce, log)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(script); err != nil {
		return err
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", script)
	err = w.Run(ctx, func(string) { run() })
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// rebuild replays script into a fresh store and writes the outcome
func rebuild(ctx context.Context, cfg config.Config, log *slog.Logger, script string, sink storage.Sink) error {
	f, err := os.Open(script)
	if err != nil {
		return err
	}
	defer f.Close()

	store := calibration.NewStore()
	e, err := engine.New(store, engineOptions(cfg, log))
	if err != nil {
		return err
	}
	n, err := e.Replay(ctx, f)
	if err != nil {
		return err
	}
	snap := store.Snapshot()
	log.Info("replayed", "script", script, "events", n, "objects", len(snap.Objects))

	if sink != nil {
		if err := sink.Save(ctx, storage.ToDocument(snap)); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	if watchPreview != "" {
		opts := preview.Options{Size: cfg.PreviewSize, Supersample: cfg.PreviewSupersample}
		if err := writePreview(watchPreview, snap, opts); err != nil {
			return err
		}
	}
	return nil
}

// writePreview renders snap and picks the encoding from the file extension
func writePreview(path string, snap calibration.Snapshot, opts preview.Options) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	img := preview.Render(snap, opts)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := preview.Encode(out, img, format); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
