package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/render"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Range int
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for a trailing window of days",
		Long: `Show statistics for the last N days: totals and averages, best and
worst days, the per-day breakdown, and peak hour/weekday patterns once
enough data exists.

Example:
  slipline stats
  slipline stats --range 30`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Range, "range", 7, "window size in days (1-365)")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	if opts.Range < 1 || opts.Range > tracker.MaxRange {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("range must be between 1 and %d days", tracker.MaxRange))
	}

	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	data := app.Tracker.Stats(opts.Range)

	f := newFormatter(opts.RootOptions, cmd)
	f.VerboseLog("stats: %d slips in the last %d days", data.TotalSlips, opts.Range)
	if f.JSON() {
		return f.Success(data)
	}

	render.Stats(cmd.OutOrStdout(), data)
	return nil
}
