// Package streak derives consecutive-day compliance streaks from the
// slip collection and the daily limit.
//
// A day is compliant when its slip count is at or under the limit; the
// limit is an inclusive ceiling. Days with no slips at all are compliant
// by definition, which is what lets a streak span gaps in the data.
package streak

import (
	"time"

	"github.com/slipline-dev/slipline/internal/calendar"
	"github.com/slipline-dev/slipline/internal/event"
)

// MaxWalkDays bounds the backward walk for the current streak. Without
// it an empty collection would walk forever, since every day counts as
// compliant. The current streak therefore caps at 365.
const MaxWalkDays = 365

// Info holds the derived streaks, both non-negative.
type Info struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// Compute derives current and best streaks.
//
// Events are bucketed by their local date key, so callers wanting a
// specific timezone rebase timestamps before calling. now anchors
// "today" and supplies the location for the calendar walk. Pure:
// identical inputs give identical results.
func Compute(events []event.Slip, limit int, now time.Time) Info {
	counts := countByDay(events)

	current := currentStreak(counts, limit, now)
	best := bestStreak(counts, limit, now)
	if current > best {
		best = current
	}
	return Info{Current: current, Best: best}
}

// currentStreak walks backward from today one calendar day at a time
// until a day over the limit, or the safety bound, stops it.
func currentStreak(counts map[string]int, limit int, now time.Time) int {
	streak := 0
	for i := 0; i < MaxWalkDays; i++ {
		if counts[calendar.DaysAgo(now, i)] > limit {
			break
		}
		streak++
	}
	return streak
}

// bestStreak scans every calendar day from the earliest recorded date
// through today, tracking the longest compliant run.
//
// With no recorded dates there is no scan range; the caller's
// max-with-current then makes best equal the capped current streak.
func bestStreak(counts map[string]int, limit int, now time.Time) int {
	earliest, ok := earliestKey(counts)
	if !ok {
		return 0
	}

	day, err := calendar.ParseDateKey(earliest, now.Location())
	if err != nil {
		return 0
	}
	todayKey := calendar.Today(now)

	best, run := 0, 0
	for key := earliest; key <= todayKey; {
		if counts[key] > limit {
			run = 0
		} else {
			run++
			if run > best {
				best = run
			}
		}
		day = day.AddDate(0, 0, 1)
		key = calendar.DateKey(day)
	}
	return best
}

func countByDay(events []event.Slip) map[string]int {
	counts := make(map[string]int, len(events))
	for _, e := range events {
		counts[calendar.DateKey(e.At)]++
	}
	return counts
}

func earliestKey(counts map[string]int) (string, bool) {
	earliest, found := "", false
	for key := range counts {
		if !found || key < earliest {
			earliest, found = key, true
		}
	}
	return earliest, found
}
