package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/stats"
	"github.com/slipline-dev/slipline/internal/streak"
	"github.com/slipline-dev/slipline/internal/tracker"
)

func TestDays(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 days"},
		{1, "1 day"},
		{7, "7 days"},
		{1095, "1,095 days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Days(tt.n))
	}
}

func TestSlipCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 slips"},
		{1, "1 slip"},
		{13, "13 slips"},
		{2400, "2,400 slips"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SlipCount(tt.n))
	}
}

func TestAgo(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{20 * time.Second, "just now"},
		{3 * time.Minute, "3m ago"},
		{90 * time.Minute, "1h ago"},
		{26 * time.Hour, "1d ago"},
		{72 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ago(tt.d))
	}
}

func TestToday(t *testing.T) {
	var buf bytes.Buffer
	Today(&buf, tracker.TodayStatus{
		Date:       "2025-03-20",
		Count:      2,
		Limit:      3,
		UnderLimit: true,
		Remaining:  1,
	})

	want := "=== Today: 2025-03-20 ===\n" +
		"  Count:     2 of 3\n" +
		"  Status:    under limit\n" +
		"  Remaining: 1\n"
	require.Equal(t, want, buf.String())
}

func TestToday_OverLimit(t *testing.T) {
	var buf bytes.Buffer
	Today(&buf, tracker.TodayStatus{
		Date:  "2025-03-20",
		Count: 5,
		Limit: 3,
	})

	assert.Contains(t, buf.String(), "Status:    over limit")
	assert.Contains(t, buf.String(), "Remaining: 0")
}

func TestLastSlip(t *testing.T) {
	now := time.Date(2025, 3, 20, 14, 8, 0, 0, time.UTC)
	at := now.Add(-3 * time.Minute)

	var buf bytes.Buffer
	LastSlip(&buf, at, now)

	require.Equal(t, "  Last slip: 2025-03-20 14:05 (3m ago)\n", buf.String())
}

func TestStreak(t *testing.T) {
	var buf bytes.Buffer
	Streak(&buf, streak.Info{Current: 1, Best: 11})

	want := "=== Streak ===\n" +
		"  Current: 1 day\n" +
		"  Best:    11 days\n"
	require.Equal(t, want, buf.String())
}

func TestStats_FullBlock(t *testing.T) {
	var buf bytes.Buffer
	Stats(&buf, stats.Data{
		Range:                 3,
		TotalSlips:            6,
		AvgPerDay:             2,
		DaysUnderLimitPercent: 200.0 / 3.0,
		BestDay:               &stats.DayCount{Date: "2025-03-18", Count: 1},
		WorstDay:              &stats.DayCount{Date: "2025-03-19", Count: 3, OverLimit: true},
		DailyCounts: []stats.DayCount{
			{Date: "2025-03-20", Count: 2},
			{Date: "2025-03-19", Count: 3, OverLimit: true},
			{Date: "2025-03-18", Count: 1},
		},
		PeakHour:    &stats.HourPattern{Hour: 18, Label: "6-7 PM", Count: 4},
		PeakWeekday: &stats.WeekdayPattern{Weekday: time.Friday, Name: "Friday", Count: 6},
		HasAnyData:  true,
	})

	want := "=== Stats: last 3 days ===\n" +
		"  Total slips:      6\n" +
		"  Average per day:  2.00\n" +
		"  Days under limit: 66.7%\n" +
		"  Best day:         2025-03-18 (1 slip)\n" +
		"  Worst day:        2025-03-19 (3 slips)\n" +
		"\n" +
		"  Daily counts:\n" +
		"    2025-03-20    2\n" +
		"    2025-03-19    3  over\n" +
		"    2025-03-18    1\n" +
		"\n" +
		"  Patterns:\n" +
		"    Peak hour:    6-7 PM (4 slips)\n" +
		"    Peak weekday: Friday (6 slips)\n"
	require.Equal(t, want, buf.String())
}

func TestStats_EmptyState(t *testing.T) {
	var buf bytes.Buffer
	Stats(&buf, stats.Data{Range: 7})

	want := "=== Stats: last 7 days ===\n" +
		"  No slips recorded yet.\n"
	require.Equal(t, want, buf.String())
}

func TestStats_PatternsGatedOut(t *testing.T) {
	var buf bytes.Buffer
	Stats(&buf, stats.Data{
		Range:                 7,
		TotalSlips:            2,
		AvgPerDay:             2.0 / 7.0,
		DaysUnderLimitPercent: 100,
		BestDay:               &stats.DayCount{Date: "2025-03-14", Count: 0},
		WorstDay:              &stats.DayCount{Date: "2025-03-20", Count: 2},
		DailyCounts: []stats.DayCount{
			{Date: "2025-03-20", Count: 2},
		},
		HasAnyData: true,
	})

	assert.Contains(t, buf.String(), "  Patterns: not enough data yet.\n")
	assert.NotContains(t, buf.String(), "Peak hour")
}

func TestStats_GroupsLargeCounts(t *testing.T) {
	var buf bytes.Buffer
	Stats(&buf, stats.Data{
		Range:      365,
		TotalSlips: 1200,
		HasAnyData: true,
	})

	assert.Contains(t, buf.String(), "Total slips:      1,200\n")
}

func TestHistory(t *testing.T) {
	slips := []event.Slip{
		{ID: "slip-2", At: time.Date(2025, 3, 20, 14, 5, 0, 0, time.UTC), Source: event.SourceRestore},
		{ID: "slip-1", At: time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC), Source: event.SourceManual},
	}

	var buf bytes.Buffer
	History(&buf, slips, 7)

	want := "=== History: last 7 days (2 slips) ===\n" +
		"  2025-03-20 14:05  slip-2  (restored)\n" +
		"  2025-03-20 09:30  slip-1\n"
	require.Equal(t, want, buf.String())
}

func TestHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	History(&buf, nil, 7)

	want := "=== History: last 7 days (0 slips) ===\n" +
		"  (no slips in range)\n"
	require.Equal(t, want, buf.String())
}
