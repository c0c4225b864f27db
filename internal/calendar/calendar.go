// Package calendar provides the date arithmetic the aggregation engine is
// built on: conversions between instants and local calendar date keys,
// trailing-window day sequences, and hour/weekday bucketing.
//
// All functions are pure and interpret an instant in the location the
// time.Time value carries. Callers that need a specific timezone convert
// with In() before calling; nothing here caches "today", so behavior stays
// correct across midnight and DST rollovers between calls.
package calendar

import (
	"fmt"
	"time"
)

// dateKeyLayout is the canonical YYYY-MM-DD key format. Fixed-width
// zero-padded fields make lexicographic order equal chronological order.
const dateKeyLayout = "2006-01-02"

// DateKey formats an instant as its calendar date key (YYYY-MM-DD) in the
// instant's own location.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key back into an instant anchored at
// local noon in loc. Noon is used because it exists on every calendar day,
// including days shortened by a DST transition.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", key, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc), nil
}

// Today returns the date key of the given instant.
func Today(now time.Time) string {
	return DateKey(now)
}

// DaysAgo returns the date key n calendar days before now. The subtraction
// is calendar arithmetic on normalized date fields, not millisecond math,
// so it stays correct across DST transitions. Negative n walks forward.
func DaysAgo(now time.Time, n int) string {
	y, m, d := now.Date()
	return DateKey(time.Date(y, m, d-n, 12, 0, 0, 0, now.Location()))
}

// LastNDays returns the n date keys ending at Today(now), ascending.
// The last element always equals Today(now). Returns nil for n <= 0.
func LastNDays(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	days := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, DaysAgo(now, i))
	}
	return days
}

// HourOf returns the local hour bucket of an instant, 0-23.
func HourOf(t time.Time) int {
	return t.Hour()
}

// WeekdayOf returns the local weekday of an instant. time.Weekday already
// numbers Sunday as 0, matching the engine's weekday bucket keys.
func WeekdayOf(t time.Time) time.Weekday {
	return t.Weekday()
}

// WeekdayName returns the English display name for a weekday bucket.
func WeekdayName(w time.Weekday) string {
	return w.String()
}

// FormatHourRange renders the hour bucket [hour, hour+1) as a human
// 12-hour label. The AM/PM suffix is merged only when both endpoints share
// it: "9-10 AM", but "11 AM-12 PM". Hour 23 wraps to "11 PM-12 AM".
// Out-of-range input is normalized into 0-23 rather than rejected.
func FormatHourRange(hour int) string {
	hour = ((hour % 24) + 24) % 24
	next := (hour + 1) % 24

	startLabel, startSuffix := twelveHour(hour)
	endLabel, endSuffix := twelveHour(next)

	if startSuffix == endSuffix {
		return fmt.Sprintf("%d-%d %s", startLabel, endLabel, startSuffix)
	}
	return fmt.Sprintf("%d %s-%d %s", startLabel, startSuffix, endLabel, endSuffix)
}

// twelveHour converts a 24-hour value to its 12-hour clock label and suffix.
func twelveHour(h int) (int, string) {
	switch {
	case h == 0:
		return 12, "AM"
	case h < 12:
		return h, "AM"
	case h == 12:
		return 12, "PM"
	default:
		return h - 12, "PM"
	}
}
