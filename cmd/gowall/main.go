package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/gowall/internal/config"
	"github.com/philipparndt/gowall/internal/engine"
	"github.com/philipparndt/gowall/internal/storage"
	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
	"github.com/philipparndt/gowall/version"
	"github.com/spf13/cobra"
)

var (
	configPath string
	flags      config.Flags
)

var rootCmd = &cobra.Command{
	Use:   "gowall",
	Short: "Wall calibration and object anchoring engine",
	Long: `gowall calibrates a wall plane from three sampled points, defines rectangular
objects from three tapped corners and places mounting anchors on them.
It can replay recorded gesture sessions, serve the engine over HTTP and
render layout previews.`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "JSON config file")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.StorePath, "store", "", "JSON state file")
	rootCmd.PersistentFlags().StringVar(&flags.DBPath, "db", "", "SQLite state database (takes priority over --store)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, GOWALL_* variables and flags
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func engineOptions(cfg config.Config, log *slog.Logger) engine.Options {
	opts := engine.DefaultOptions()
	opts.Debounce = cfg.Debounce()
	opts.GeometryEpsilon = cfg.GeometryEpsilon
	opts.DragEpsilon = cfg.DragEpsilon
	opts.AnchorZOffset = cfg.AnchorZOffset
	opts.MaxAnchors = cfg.MaxAnchors
	opts.Logger = log
	return opts
}

// openSink returns the configured persistence target, or nil when none is set
func openSink(ctx context.Context, cfg config.Config) (storage.Sink, func(), error) {
	switch {
	case cfg.DBPath != "":
		db, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		repo := storage.NewRepository(db)
		if err := repo.Init(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init db: %w", err)
		}
		return repo, func() { db.Close() }, nil
	case cfg.StorePath != "":
		return storage.NewJSONFile(cfg.StorePath), func() {}, nil
	}
	return nil, func() {}, nil
}

// openStore creates a store, restores it from the sink and keeps the sink
// up to date
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (*calibration.Store, func(), error) {
	store := calibration.NewStore()
	sink, closeSink, err := openSink(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if sink == nil {
		return store, closeSink, nil
	}
	p := storage.NewPersister(ctx, store, sink, log)
	if err := p.Restore(); err != nil {
		closeSink()
		return nil, nil, err
	}
	p.Attach()
	return store, closeSink, nil
}

// parseVector reads "x,y,z"
func parseVector(s string) (geometry.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geometry.Vector3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		v[i] = f
	}
	return geometry.NewVector3(v[0], v[1], v[2]), nil
}

func parseVectors(args []string) ([]geometry.Vector3, error) {
	out := make([]geometry.Vector3, len(args))
	for i, a := range args {
		v, err := parseVector(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
