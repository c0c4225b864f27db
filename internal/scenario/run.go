package scenario

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/slipline-dev/slipline/internal/calendar"
	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/journal"
	"github.com/slipline-dev/slipline/internal/settings"
	"github.com/slipline-dev/slipline/internal/stats"
	"github.com/slipline-dev/slipline/internal/storage"
	"github.com/slipline-dev/slipline/internal/streak"
	"github.com/slipline-dev/slipline/internal/testutil"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// Result carries every derived view after the history is applied, plus
// any expectation mismatches.
type Result struct {
	Scenario *Scenario

	// Now is the frozen instant rebased into the display zone.
	Now time.Time

	Today       tracker.TodayStatus
	Streak      streak.Info
	Stats       stats.Data
	Slips       []event.Slip // window-filtered, newest first, display zone
	LastSlipAt  time.Time
	HasLastSlip bool

	// Errors lists expect-block mismatches. Empty means pass.
	Errors []string
}

// Pass reports whether every asserted expectation held.
func (r *Result) Pass() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Run applies the scenario's history to a fresh in-memory journal under
// a frozen clock and derives every view.
//
// Slip ids are sequential ("slip-0001", ...) in event order, so reports
// and goldens are stable across runs. Each run is fully isolated.
func Run(s *Scenario) (*Result, error) {
	loc, err := s.location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	now := s.Now.In(loc)
	clock := testutil.NewClock(now)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Restores carry their id directly; only manual events draw from
	// the generator. One shared numbering keeps ids collision-free.
	ids := make([]string, len(s.Events))
	var manualIDs []string
	for i := range s.Events {
		ids[i] = fmt.Sprintf("slip-%04d", i+1)
		if event.Source(s.Events[i].Source) != event.SourceRestore {
			manualIDs = append(manualIDs, ids[i])
		}
	}

	st := storage.NewMemory()
	j := journal.New(st,
		journal.WithClock(clock),
		journal.WithIDGenerator(event.NewFixedGenerator(manualIDs...)),
		journal.WithLogger(quiet),
	)
	defer j.Close()

	se := settings.New(st, settings.WithLogger(quiet))
	if s.Limit != 0 {
		if err := se.SetLimit(s.Limit); err != nil {
			return nil, fmt.Errorf("limit: %w", err)
		}
	}

	tr := tracker.New(j, se,
		tracker.WithClock(clock),
		tracker.WithLocation(loc),
	)

	for i := range s.Events {
		ev := &s.Events[i]
		at, err := ev.resolve(now)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		if event.Source(ev.Source) == event.SourceRestore {
			_, err = j.Restore(ids[i], at)
		} else {
			_, err = j.RecordAt(at)
		}
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
	}

	result := &Result{
		Scenario: s,
		Now:      now,
		Today:    tr.Today(),
		Streak:   tr.Streak(),
		Stats:    tr.Stats(s.rangeDays()),
		Slips:    windowSlips(tr, now, s.rangeDays()),
	}
	if at, ok := j.LastSlipAt(); ok {
		result.LastSlipAt = at.In(loc)
		result.HasLastSlip = true
	}

	checkExpect(result)
	return result, nil
}

// windowSlips filters the full newest-first listing down to the
// trailing window, the same cut the history command shows.
func windowSlips(tr *tracker.Tracker, now time.Time, rangeDays int) []event.Slip {
	inRange := make(map[string]bool, rangeDays)
	for _, key := range calendar.LastNDays(now, rangeDays) {
		inRange[key] = true
	}

	filtered := []event.Slip{}
	for _, s := range tr.Slips() {
		if inRange[calendar.DateKey(s.At)] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func checkExpect(r *Result) {
	e := r.Scenario.Expect
	if e == nil {
		return
	}
	if e.CurrentStreak != nil && r.Streak.Current != *e.CurrentStreak {
		r.addError("current streak: want %d, got %d", *e.CurrentStreak, r.Streak.Current)
	}
	if e.BestStreak != nil && r.Streak.Best != *e.BestStreak {
		r.addError("best streak: want %d, got %d", *e.BestStreak, r.Streak.Best)
	}
	if e.TotalSlips != nil && r.Stats.TotalSlips != *e.TotalSlips {
		r.addError("total slips: want %d, got %d", *e.TotalSlips, r.Stats.TotalSlips)
	}
	if e.TodayCount != nil && r.Today.Count != *e.TodayCount {
		r.addError("today count: want %d, got %d", *e.TodayCount, r.Today.Count)
	}
}
