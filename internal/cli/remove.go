package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/render"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <slip-id>",
		Short: "Delete a slip by id",
		Long: `Delete a single slip by its id, regardless of age.

Slip ids come from 'slipline history'. The removal prints the exact
restore command in case it was a mistake.

Example:
  slipline remove 0195f3f0-6d2e-7cc3-ae37-41f0a1c43bee`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// removeResult is the JSON payload for a deleted slip.
type removeResult struct {
	Removed event.Slip          `json:"removed"`
	Today   tracker.TodayStatus `json:"today"`
}

func runRemove(opts *RootOptions, id string, cmd *cobra.Command) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	f := newFormatter(opts, cmd)

	slip, ok := app.Journal.Remove(id)
	if !ok {
		msg := fmt.Sprintf("no slip with id %q", id)
		if err := f.Error(CodeUnknownSlip, msg, nil); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "unknown slip id")
	}

	today := app.Tracker.Today()
	if err := app.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to persist removal", err)
	}

	local := slip.In(app.Location)
	if f.JSON() {
		return f.Success(removeResult{Removed: local, Today: today})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Removed slip %s from %s.\n", local.ID, local.At.Format(render.TimeLayout))
	fmt.Fprintf(w, "Restore: slipline restore %s %s\n", local.ID, local.At.Format(time.RFC3339))
	printTodayLine(w, today)
	return nil
}
