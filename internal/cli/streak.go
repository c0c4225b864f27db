package cli

import (
	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/render"
)

// NewStreakCommand creates the streak command.
func NewStreakCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show current and best compliance streaks",
		Long: `Show consecutive days at or under the daily limit: the run ending
today and the best run on record. Days with no slips count as compliant.

Example:
  slipline streak`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreak(rootOpts, cmd)
		},
	}

	return cmd
}

func runStreak(opts *RootOptions, cmd *cobra.Command) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	info := app.Tracker.Streak()

	f := newFormatter(opts, cmd)
	if f.JSON() {
		return f.Success(info)
	}

	render.Streak(cmd.OutOrStdout(), info)
	return nil
}
