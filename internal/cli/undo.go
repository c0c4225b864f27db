package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/journal"
	"github.com/slipline-dev/slipline/internal/render"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the most recently logged slip",
		Long: `Revert the most recently logged slip.

Only the latest slip can be reverted, and only within a few minutes of
logging it. Once the window passes, use 'slipline remove' with the slip
id instead.

Example:
  slipline undo`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo(rootOpts, cmd)
		},
	}

	return cmd
}

// undoResult is the JSON payload for a reverted slip.
type undoResult struct {
	Undone event.Slip          `json:"undone"`
	Today  tracker.TodayStatus `json:"today"`
}

func runUndo(opts *RootOptions, cmd *cobra.Command) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	f := newFormatter(opts, cmd)

	slip, ok := app.Journal.UndoLast()
	if !ok {
		// The journal does not say which: nothing was ever armed, the
		// window expired, or the armed slip was removed by id.
		msg := fmt.Sprintf("nothing to undo (the %d-minute window may have expired)",
			int(journal.UndoWindow.Minutes()))
		if err := f.Error(CodeNothingToUndo, msg, nil); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "nothing to undo")
	}

	today := app.Tracker.Today()
	if err := app.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to persist undo", err)
	}

	local := slip.In(app.Location)
	if f.JSON() {
		return f.Success(undoResult{Undone: local, Today: today})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Reverted slip %s (logged at %s).\n", local.ID, local.At.Format(render.TimeLayout))
	printTodayLine(w, today)
	return nil
}
