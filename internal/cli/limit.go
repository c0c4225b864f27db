package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/settings"
)

// NewLimitCommand creates the limit command.
func NewLimitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limit [n]",
		Short: "Show or set the daily limit",
		Long: `Show the daily slip limit, or set it to n (1-99).

The limit is an inclusive ceiling: a day with exactly n slips still
counts as compliant. Changing it reshapes streaks and stats
retroactively, since both derive from the stored events.

Example:
  slipline limit
  slipline limit 5`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLimit(rootOpts, args, cmd)
		},
	}

	return cmd
}

// limitResult is the JSON payload for the limit view.
type limitResult struct {
	Limit int `json:"limit"`
}

func runLimit(opts *RootOptions, args []string, cmd *cobra.Command) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	f := newFormatter(opts, cmd)
	w := cmd.OutOrStdout()

	if len(args) == 0 {
		n := app.Settings.Limit()
		if f.JSON() {
			return f.Success(limitResult{Limit: n})
		}
		fmt.Fprintf(w, "Daily limit: %d\n", n)
		return nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid limit", err)
	}
	if err := app.Settings.SetLimit(n); err != nil {
		if settings.IsLimitError(err) {
			return WrapExitError(ExitCommandError, "invalid limit", err)
		}
		return WrapExitError(ExitCommandError, "failed to save limit", err)
	}
	if err := app.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to save limit", err)
	}

	if f.JSON() {
		return f.Success(limitResult{Limit: n})
	}
	fmt.Fprintf(w, "Daily limit set to %d.\n", n)
	return nil
}
