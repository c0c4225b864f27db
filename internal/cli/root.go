// Package cli implements the slipline command tree. Every command is a
// short-lived process: open the store, mutate or read, close, render.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/config"
	"github.com/slipline-dev/slipline/internal/logging"
)

// RootOptions holds global flags for all commands, plus the resolved
// configuration they produce.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DataDir    string
	Storage    string

	// Config is resolved in PersistentPreRunE: file and environment
	// first, then the flags above override.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the slipline CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slipline",
		Short: "slipline - personal habit-slip logger",
		Long: `Log slips of a habit you are cutting down, then see where you stand:
today's count against a daily limit, compliance streaks, and range
statistics with peak-hour and peak-weekday patterns.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.DataDir != "" {
				cfg.DataDir = opts.DataDir
			}
			if opts.Storage != "" {
				cfg.Storage = opts.Storage
			}
			if cfg.Storage != config.StorageSQLite && cfg.Storage != config.StorageJSON {
				return fmt.Errorf("invalid storage %q: must be %q or %q",
					cfg.Storage, config.StorageSQLite, config.StorageJSON)
			}
			opts.Config = cfg

			level := logging.ParseLevel(cfg.LogLevel)
			if opts.Verbose {
				level = slog.LevelDebug
			}
			logging.Init(false, level)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "storage backend: sqlite|json (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewUndoCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewTodayCommand(opts))
	cmd.AddCommand(NewStreakCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewLimitCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// Execute runs the root command with OS arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
