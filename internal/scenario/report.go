package scenario

import (
	"fmt"
	"io"

	"github.com/slipline-dev/slipline/internal/render"
)

// Report writes the full text snapshot of one run: the scenario header
// followed by every view the CLI can show, in a fixed order. Golden
// files capture exactly this output.
func Report(w io.Writer, r *Result) {
	fmt.Fprintf(w, "=== Scenario: %s ===\n", r.Scenario.Name)
	fmt.Fprintln(w, r.Scenario.Description)
	fmt.Fprintln(w)

	render.Today(w, r.Today)
	if r.HasLastSlip {
		render.LastSlip(w, r.LastSlipAt, r.Now)
	}
	fmt.Fprintln(w)

	render.Streak(w, r.Streak)
	fmt.Fprintln(w)

	render.Stats(w, r.Stats)
	fmt.Fprintln(w)

	render.History(w, r.Slips, r.Scenario.rangeDays())
}
