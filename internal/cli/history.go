package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/calendar"
	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/render"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Range int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List slips from the last N days",
		Long: `List individual slips from a trailing window of days, newest first.
The ids shown here feed 'slipline remove'.

Example:
  slipline history
  slipline history --range 30`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Range, "range", 7, "window size in days (1-365)")

	return cmd
}

// historyResult is the JSON payload for the history view.
type historyResult struct {
	Range int          `json:"range"`
	Slips []event.Slip `json:"slips"`
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Range < 1 || opts.Range > tracker.MaxRange {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("range must be between 1 and %d days", tracker.MaxRange))
	}

	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	now := time.Now().In(app.Location)
	inRange := make(map[string]bool, opts.Range)
	for _, key := range calendar.LastNDays(now, opts.Range) {
		inRange[key] = true
	}

	// Slips() is already newest-first and rebased into the display zone.
	filtered := []event.Slip{}
	for _, s := range app.Tracker.Slips() {
		if inRange[calendar.DateKey(s.At)] {
			filtered = append(filtered, s)
		}
	}

	f := newFormatter(opts.RootOptions, cmd)
	if f.JSON() {
		return f.Success(historyResult{Range: opts.Range, Slips: filtered})
	}

	render.History(cmd.OutOrStdout(), filtered, opts.Range)
	return nil
}
