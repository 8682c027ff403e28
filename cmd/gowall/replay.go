package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/philipparndt/gowall/internal/config"
	"github.com/philipparndt/gowall/internal/engine"
	"github.com/philipparndt/gowall/pkg/placement"
	"github.com/spf13/cobra"
)

var replayVerbose bool

var replayCmd = &cobra.Command{
	Use:   "replay <session.jsonl>",
	Short: "Replay a recorded gesture session",
	Long: `Feed a JSON-lines session script to the engine. Each line holds exactly one of
"point", "command" or "drag". Blank lines and lines starting with # are
skipped. With --store or --db the resulting state is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "print every status update")
	replayCmd.Flags().IntVar(&flags.DebounceMS, "debounce-ms", 0, "minimum interval between accepted points")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cfg.NewLogger()
	return replayFile(cmd.Context(), cfg, log, args[0])
}

// replayFile runs one session script against the persisted state
func replayFile(ctx context.Context, cfg config.Config, log *slog.Logger, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := engineOptions(cfg, log)
	if replayVerbose {
		opts.OnStatus = printStatus
	}
	e, err := engine.New(store, opts)
	if err != nil {
		return err
	}

	n, err := e.Replay(ctx, f)
	if err != nil {
		return err
	}

	wall := store.Wall()
	fmt.Printf("Applied %d event(s) from %s\n", n, path)
	fmt.Printf("Wall calibrated: %t\n", wall.IsCalibrated)
	fmt.Printf("Objects: %d\n", store.Len())
	for _, obj := range store.Objects() {
		fmt.Printf("  %s  %.1f x %.1f cm  anchors=%d locked=%t\n",
			obj.ID, obj.Width*100, obj.Height*100, len(obj.Anchors), obj.Locked)
	}
	for _, kind := range []placement.Kind{placement.WallCalibration, placement.ObjectDefinition, placement.AnchorPlacement} {
		if st := e.Machine(kind); st.State != placement.Idle {
			fmt.Printf("Unfinished %s run: %s with %d point(s)\n", kind, st.State, st.Count)
		}
	}
	return nil
}

func printStatus(u engine.StatusUpdate) {
	line := fmt.Sprintf("[%s] %s %d/%d", u.Flow, u.State, u.PointCount, u.Target)
	if u.Message != "" {
		line += "  " + u.Message
	}
	fmt.Println(line)
}
