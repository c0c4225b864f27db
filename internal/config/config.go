// Package config resolves slipline settings from a YAML file and
// SLIPLINE_* environment variables.
//
// Resolution is layered: built-in defaults, then the config file, then
// the environment. Later layers win. A missing config file is not an
// error; a malformed or unknown key is.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	// IANA zone names resolve even on hosts without a tz database.
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Storage backend names accepted for the storage key.
const (
	StorageSQLite = "sqlite"
	StorageJSON   = "json"
)

// Defaults applied when neither the config file nor the environment
// provides a value.
const (
	DefaultStorage  = StorageSQLite
	DefaultListen   = "127.0.0.1:7437"
	DefaultLogLevel = "info"
)

// Config holds the resolved slipline settings.
type Config struct {
	// DataDir is where the chosen storage backend keeps its files.
	DataDir string `yaml:"data_dir"`

	// Storage selects the persistence backend: "sqlite" or "json".
	Storage string `yaml:"storage"`

	// Listen is the host:port the serve command binds to.
	Listen string `yaml:"listen"`

	// Timezone is an IANA zone name for display calculations.
	// Empty follows the device's local zone.
	Timezone string `yaml:"timezone"`

	// LogLevel sets the slog threshold: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Load resolves configuration in three layers: defaults, the YAML file
// at path (the default location when path is empty), then SLIPLINE_*
// environment overrides. The result is validated before return.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/slipline/config.yaml on Linux. Empty when no user
// config directory can be determined.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "slipline", "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/slipline, falling back to
// ~/.local/share/slipline.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "slipline")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "slipline"
	}
	return filepath.Join(home, ".local", "share", "slipline")
}

// Location resolves the configured display timezone. An empty timezone
// follows the device's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

func defaults() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Storage:  DefaultStorage,
		Listen:   DefaultListen,
		LogLevel: DefaultLogLevel,
	}
}

// loadFile merges the YAML file at path into c. Keys absent from the
// file keep their current values. Unknown keys are rejected so typos
// surface instead of silently falling back to defaults.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getenv("SLIPLINE_DATA_DIR", c.DataDir)
	c.Storage = getenv("SLIPLINE_STORAGE", c.Storage)
	c.Listen = getenv("SLIPLINE_LISTEN", c.Listen)
	c.Timezone = getenv("SLIPLINE_TZ", c.Timezone)
	c.LogLevel = getenv("SLIPLINE_LOG_LEVEL", c.LogLevel)
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageSQLite, StorageJSON:
	default:
		return fmt.Errorf("config: storage: unknown backend %q (want %q or %q)",
			c.Storage, StorageSQLite, StorageJSON)
	}

	if c.Listen == "" {
		return fmt.Errorf("config: listen: address must not be empty")
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config: timezone: %w", err)
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: log_level: unknown level %q", c.LogLevel)
	}

	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
