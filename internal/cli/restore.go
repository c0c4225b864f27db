package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/render"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <slip-id> <timestamp>",
		Short: "Re-add a previously removed slip",
		Long: `Re-add a slip that was removed by mistake, keeping its original id
and timestamp. 'slipline remove' prints the matching restore command.

The restored entry appends at the end of the collection, so history
order can differ from timestamp order; restored slips are tagged.

Example:
  slipline restore 0195f3f0-6d2e-7cc3-ae37-41f0a1c43bee 2025-03-20T14:05:00Z`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

// restoreResult is the JSON payload for a restored slip.
type restoreResult struct {
	Restored event.Slip          `json:"restored"`
	Today    tracker.TodayStatus `json:"today"`
}

func runRestore(opts *RootOptions, id, timestamp string, cmd *cobra.Command) error {
	at, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid timestamp", err)
	}

	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	slip, err := app.Journal.Restore(id, at)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot restore slip", err)
	}

	today := app.Tracker.Today()
	if err := app.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to persist restore", err)
	}

	f := newFormatter(opts, cmd)
	local := slip.In(app.Location)
	if f.JSON() {
		return f.Success(restoreResult{Restored: local, Today: today})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Restored slip %s at %s.\n", local.ID, local.At.Format(render.TimeLayout))
	printTodayLine(w, today)
	return nil
}
