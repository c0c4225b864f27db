package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/journal"
	"github.com/slipline-dev/slipline/internal/render"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	At string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a slip",
		Long: `Record one slip of the tracked habit.

Without flags the slip is stamped with the current time. --at backfills
an earlier moment; future timestamps are rejected.

Example:
  slipline log
  slipline log --at 2025-03-20T14:05:00Z`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "backfill timestamp (RFC 3339)")

	return cmd
}

// logResult is the JSON payload for a recorded slip.
type logResult struct {
	Slip  event.Slip          `json:"slip"`
	Today tracker.TodayStatus `json:"today"`
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	var slip event.Slip
	if opts.At != "" {
		at, parseErr := time.Parse(time.RFC3339, opts.At)
		if parseErr != nil {
			return WrapExitError(ExitCommandError, "invalid --at timestamp", parseErr)
		}
		slip, err = app.Journal.RecordAt(at)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot backfill slip", err)
		}
	} else {
		slip = app.Journal.Record()
	}

	today := app.Tracker.Today()

	// Close before rendering: a confirmed slip is a durable slip.
	if err := app.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to persist slip", err)
	}

	f := newFormatter(opts.RootOptions, cmd)
	local := slip.In(app.Location)
	if f.JSON() {
		return f.Success(logResult{Slip: local, Today: today})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Logged slip %s at %s.\n", local.ID, local.At.Format(render.TimeLayout))
	printTodayLine(w, today)
	fmt.Fprintf(w, "Undo with 'slipline undo' within %d minutes.\n", int(journal.UndoWindow.Minutes()))
	return nil
}

// printTodayLine prints the one-line day summary mutating commands end
// with.
func printTodayLine(w io.Writer, st tracker.TodayStatus) {
	if st.UnderLimit {
		fmt.Fprintf(w, "Today: %d of %d (%d remaining)\n", st.Count, st.Limit, st.Remaining)
	} else {
		fmt.Fprintf(w, "Today: %d of %d (over limit)\n", st.Count, st.Limit)
	}
}
