package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slipline-dev/slipline/internal/event"
)

var now = time.Date(2025, 3, 20, 21, 0, 0, 0, time.UTC)

// slipsOn fabricates count slips on the day daysAgo days before now,
// spread across distinct hours so ids only need to be unique.
func slipsOn(daysAgo, count int) []event.Slip {
	day := time.Date(now.Year(), now.Month(), now.Day()-daysAgo, 8, 0, 0, 0, time.UTC)
	var out []event.Slip
	for i := 0; i < count; i++ {
		out = append(out, event.Slip{
			ID:     day.Add(time.Duration(i) * time.Minute).Format(time.RFC3339Nano),
			At:     day.Add(time.Duration(i) * time.Minute),
			Source: event.SourceManual,
		})
	}
	return out
}

func days(spec map[int]int) []event.Slip {
	var out []event.Slip
	for daysAgo, count := range spec {
		out = append(out, slipsOn(daysAgo, count)...)
	}
	return out
}

func TestCompute_AllDaysUnderLimit(t *testing.T) {
	// Counts oldest to newest: 2, 3, 1 with limit 3. All compliant.
	events := days(map[int]int{2: 2, 1: 3, 0: 1})

	info := Compute(events, 3, now)

	assert.Equal(t, MaxWalkDays, info.Current,
		"nothing breaks the walk, so it runs to the safety bound")
	assert.Equal(t, MaxWalkDays, info.Best)
}

func TestCompute_BreaksAtViolatingDay(t *testing.T) {
	// Counts oldest to newest: 2, 4, 1 with limit 3. Yesterday violates.
	events := days(map[int]int{2: 2, 1: 4, 0: 1})

	info := Compute(events, 3, now)

	assert.Equal(t, 1, info.Current, "the walk stops at yesterday's count of 4")
}

func TestCompute_LimitIsInclusiveCeiling(t *testing.T) {
	events := days(map[int]int{1: 3, 0: 3})

	info := Compute(events, 3, now)

	assert.GreaterOrEqual(t, info.Current, 2, "count == limit is compliant, not violating")
}

func TestCompute_TodayOverLimit(t *testing.T) {
	events := days(map[int]int{0: 4})

	info := Compute(events, 3, now)

	assert.Equal(t, 0, info.Current)
}

func TestCompute_NoEvents(t *testing.T) {
	info := Compute(nil, 3, now)

	assert.Equal(t, MaxWalkDays, info.Current)
	assert.Equal(t, info.Current, info.Best,
		"an empty history is fully compliant, capped at the bound")
}

func TestCompute_GapDaysExtendStreak(t *testing.T) {
	// Slips three days ago and today, nothing between; the empty days
	// count as compliant and the violation four days ago stops the walk.
	events := days(map[int]int{4: 5, 3: 1, 0: 1})

	info := Compute(events, 3, now)

	assert.Equal(t, 4, info.Current)
}

func TestCompute_BestTracksInteriorRun(t *testing.T) {
	// Ten days of history: a violation today and 6 days ago leaves an
	// interior run of 5 compliant days (5..1 days ago).
	events := days(map[int]int{9: 1, 6: 7, 3: 2, 0: 9})

	info := Compute(events, 3, now)

	assert.Equal(t, 0, info.Current, "today violates")
	assert.Equal(t, 5, info.Best, "best is the longest interior run")
}

func TestCompute_BestNeverBelowCurrent(t *testing.T) {
	// Clean three-day-old history: the scan covers only 3 days, but the
	// unbroken backward walk runs to the cap. Best floors at current.
	events := days(map[int]int{2: 1})

	info := Compute(events, 3, now)

	assert.Equal(t, MaxWalkDays, info.Current)
	assert.Equal(t, MaxWalkDays, info.Best, "best is floored at current")
}

func TestCompute_Idempotent(t *testing.T) {
	events := days(map[int]int{5: 2, 3: 4, 1: 1, 0: 2})

	first := Compute(events, 3, now)
	second := Compute(events, 3, now)

	assert.Equal(t, first, second)
}

func TestCompute_UsesEventLocation(t *testing.T) {
	// 2025-03-20 01:30 UTC logged, evaluated from a UTC-5 "now" at
	// 2025-03-19 20:30: the slip lands on the 19th in that zone.
	west := time.FixedZone("UTC-5", -5*60*60)
	at := time.Date(2025, 3, 20, 1, 30, 0, 0, time.UTC)
	events := []event.Slip{{ID: "x", At: at.In(west), Source: event.SourceManual}}

	info := Compute(events, 0, at.In(west))

	assert.Equal(t, 0, info.Current, "the slip counts against the local today")
}

func TestCompute_BestScanStopsAtToday(t *testing.T) {
	// A large violating day far in the past, then clean history. The
	// scan covers violation day .. today exactly once.
	events := days(map[int]int{30: 10, 15: 1})

	info := Compute(events, 3, now)

	assert.Equal(t, 30, info.Current, "walk stops at the violation 30 days ago")
	assert.Equal(t, 30, info.Best)
}
