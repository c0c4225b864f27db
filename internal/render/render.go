// Package render turns journal and tracker views into the text blocks
// the CLI prints and the scenario reports snapshot. JSON output never
// passes through here; the view structs marshal themselves.
package render

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/stats"
	"github.com/slipline-dev/slipline/internal/streak"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// TimeLayout is the minute-precision layout for timestamps shown to the
// user. Seconds and zone are noise at this granularity.
const TimeLayout = "2006-01-02 15:04"

// printer formats counts with English grouping, so a year of data reads
// "1,095 slips" rather than "1095 slips".
var printer = message.NewPrinter(language.English)

// Days formats a day count with its unit.
func Days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return printer.Sprintf("%d days", n)
}

// SlipCount formats a slip count with its unit.
func SlipCount(n int) string {
	if n == 1 {
		return "1 slip"
	}
	return printer.Sprintf("%d slips", n)
}

// Ago renders how long ago an instant was, at the coarsest unit that
// still says something: "just now" under a minute, then minutes, hours,
// and days.
func Ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// Today renders the current-day status block.
func Today(w io.Writer, st tracker.TodayStatus) {
	fmt.Fprintf(w, "=== Today: %s ===\n", st.Date)
	fmt.Fprintf(w, "  Count:     %d of %d\n", st.Count, st.Limit)
	if st.UnderLimit {
		fmt.Fprintln(w, "  Status:    under limit")
	} else {
		fmt.Fprintln(w, "  Status:    over limit")
	}
	fmt.Fprintf(w, "  Remaining: %d\n", st.Remaining)
}

// LastSlip renders the most-recent-slip line appended under the today
// block. The caller rebases at into the display timezone first.
func LastSlip(w io.Writer, at, now time.Time) {
	fmt.Fprintf(w, "  Last slip: %s (%s)\n", at.Format(TimeLayout), Ago(now.Sub(at)))
}

// Streak renders the streak block.
func Streak(w io.Writer, info streak.Info) {
	fmt.Fprintln(w, "=== Streak ===")
	fmt.Fprintf(w, "  Current: %s\n", Days(info.Current))
	fmt.Fprintf(w, "  Best:    %s\n", Days(info.Best))
}

// Stats renders the full statistics block: summary lines, the dense
// per-day breakdown, and the pattern section. Gated-out patterns get a
// single placeholder line rather than an empty section.
func Stats(w io.Writer, d stats.Data) {
	fmt.Fprintf(w, "=== Stats: last %s ===\n", Days(d.Range))
	if !d.HasAnyData {
		fmt.Fprintln(w, "  No slips recorded yet.")
		return
	}

	fmt.Fprintf(w, "  Total slips:      %s\n", printer.Sprintf("%d", d.TotalSlips))
	fmt.Fprintf(w, "  Average per day:  %.2f\n", d.AvgPerDay)
	fmt.Fprintf(w, "  Days under limit: %.1f%%\n", d.DaysUnderLimitPercent)
	if d.BestDay != nil {
		fmt.Fprintf(w, "  Best day:         %s (%s)\n", d.BestDay.Date, SlipCount(d.BestDay.Count))
	}
	if d.WorstDay != nil {
		fmt.Fprintf(w, "  Worst day:        %s (%s)\n", d.WorstDay.Date, SlipCount(d.WorstDay.Count))
	}

	if len(d.DailyCounts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Daily counts:")
		for _, dc := range d.DailyCounts {
			if dc.OverLimit {
				fmt.Fprintf(w, "    %s  %3d  over\n", dc.Date, dc.Count)
			} else {
				fmt.Fprintf(w, "    %s  %3d\n", dc.Date, dc.Count)
			}
		}
	}

	fmt.Fprintln(w)
	if d.PeakHour == nil && d.PeakWeekday == nil {
		fmt.Fprintln(w, "  Patterns: not enough data yet.")
		return
	}
	fmt.Fprintln(w, "  Patterns:")
	if d.PeakHour != nil {
		fmt.Fprintf(w, "    Peak hour:    %s (%s)\n", d.PeakHour.Label, SlipCount(d.PeakHour.Count))
	}
	if d.PeakWeekday != nil {
		fmt.Fprintf(w, "    Peak weekday: %s (%s)\n", d.PeakWeekday.Name, SlipCount(d.PeakWeekday.Count))
	}
}

// History renders the slip list for a trailing window, newest first.
// The caller filters to the window and sorts before calling; restored
// entries are tagged so out-of-order timestamps have an explanation.
func History(w io.Writer, slips []event.Slip, rangeDays int) {
	fmt.Fprintf(w, "=== History: last %s (%s) ===\n", Days(rangeDays), SlipCount(len(slips)))
	if len(slips) == 0 {
		fmt.Fprintln(w, "  (no slips in range)")
		return
	}
	for _, s := range slips {
		if s.Source == event.SourceRestore {
			fmt.Fprintf(w, "  %s  %s  (restored)\n", s.At.Format(TimeLayout), s.ID)
		} else {
			fmt.Fprintf(w, "  %s  %s\n", s.At.Format(TimeLayout), s.ID)
		}
	}
}
