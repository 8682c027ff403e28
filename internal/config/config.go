package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every Validate failure
var ErrInvalid = errors.New("invalid config")

// Config holds engine tuning, storage locations and server settings.
type Config struct {
	// Engine
	DebounceMS      int     `json:"debounce_ms"`
	GeometryEpsilon float64 `json:"geometry_epsilon"`
	DragEpsilon     float64 `json:"drag_epsilon"`
	AnchorZOffset   float64 `json:"anchor_z_offset"`
	MaxAnchors      int     `json:"max_anchors"`

	// Storage
	StorePath string `json:"store_path"`
	DBPath    string `json:"db_path"`

	// Server and logging
	ListenAddr string `json:"listen_addr"`
	LogLevel   string `json:"log_level"`

	// Preview
	PreviewSize        int `json:"preview_size"`
	PreviewSupersample int `json:"preview_supersample"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		DebounceMS:         1000,
		GeometryEpsilon:    1e-9,
		DragEpsilon:        0.001,
		AnchorZOffset:      0.002,
		MaxAnchors:         4,
		ListenAddr:         ":8420",
		LogLevel:           "info",
		PreviewSize:        1024,
		PreviewSupersample: 2,
	}
}

// Load reads a JSON config file on top of the defaults.
// Fields not set in the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GOWALL_* environment variables.
// Unparseable numbers are ignored.
func (c *Config) ApplyEnv() {
	c.DebounceMS = getEnvAsInt("GOWALL_DEBOUNCE_MS", c.DebounceMS)
	c.DragEpsilon = getEnvAsFloat("GOWALL_DRAG_EPSILON", c.DragEpsilon)
	c.AnchorZOffset = getEnvAsFloat("GOWALL_ANCHOR_Z_OFFSET", c.AnchorZOffset)
	c.StorePath = getEnv("GOWALL_STORE_PATH", c.StorePath)
	c.DBPath = getEnv("GOWALL_DB_PATH", c.DBPath)
	c.ListenAddr = getEnv("GOWALL_LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = getEnv("GOWALL_LOG_LEVEL", c.LogLevel)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DebounceMS int
	StorePath  string
	DBPath     string
	ListenAddr string
	LogLevel   string
}

// Resolve applies CLI flags. Flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.DebounceMS > 0 {
		c.DebounceMS = flags.DebounceMS
	}
	if flags.StorePath != "" {
		c.StorePath = flags.StorePath
	}
	if flags.DBPath != "" {
		c.DBPath = flags.DBPath
	}
	if flags.ListenAddr != "" {
		c.ListenAddr = flags.ListenAddr
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
}

// Validate reports the first setting the engine cannot run with
func (c Config) Validate() error {
	switch {
	case c.DebounceMS < 0:
		return fmt.Errorf("%w: debounce_ms must not be negative", ErrInvalid)
	case c.GeometryEpsilon <= 0:
		return fmt.Errorf("%w: geometry_epsilon must be positive", ErrInvalid)
	case c.DragEpsilon <= 0:
		return fmt.Errorf("%w: drag_epsilon must be positive", ErrInvalid)
	case c.MaxAnchors < 1 || c.MaxAnchors > 4:
		return fmt.Errorf("%w: max_anchors must be between 1 and 4", ErrInvalid)
	case c.PreviewSize <= 0 || c.PreviewSupersample <= 0:
		return fmt.Errorf("%w: preview size and supersample must be positive", ErrInvalid)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Debounce returns the debounce window as a duration
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// ParseLevel maps a log level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalid, name)
}

// NewLogger builds the text logger used by every command
func (c Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
