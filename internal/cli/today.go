package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/render"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// NewTodayCommand creates the today command.
func NewTodayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's count against the daily limit",
		Long: `Show how today is going: slips so far, the daily limit, and how many
are left before going over.

Example:
  slipline today
  slipline today --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToday(rootOpts, cmd)
		},
	}

	return cmd
}

// todayResult is the JSON payload for the today view.
type todayResult struct {
	tracker.TodayStatus
	LastSlipAt *time.Time `json:"last_slip_at,omitempty"`
}

func runToday(opts *RootOptions, cmd *cobra.Command) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	st := app.Tracker.Today()
	lastAt, hasLast := app.Journal.LastSlipAt()

	f := newFormatter(opts, cmd)
	if f.JSON() {
		result := todayResult{TodayStatus: st}
		if hasLast {
			local := lastAt.In(app.Location)
			result.LastSlipAt = &local
		}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	render.Today(w, st)
	if hasLast {
		render.LastSlip(w, lastAt.In(app.Location), time.Now().In(app.Location))
	}
	return nil
}
