// Package stats derives range-bounded summary metrics, per-day
// breakdowns, and behavioral pattern signals from the slip collection.
//
// Everything here is pure: identical inputs give identical outputs, and
// no input ever raises. Absent data comes back as zeros and nils, never
// as an error.
package stats

import (
	"time"

	"github.com/slipline-dev/slipline/internal/calendar"
	"github.com/slipline-dev/slipline/internal/event"
)

// Pattern gating thresholds. A pattern is a weak statistical claim, so
// it needs a minimum of data behind it: slips spanning at least
// MinDaysForPatterns distinct dates, at least MinEventsForPatterns slips
// in the window, and a winning bucket of at least MinBucketCount. Below
// any threshold the pattern is nil regardless of apparent signal.
const (
	MinDaysForPatterns   = 3
	MinEventsForPatterns = 3
	MinBucketCount       = 2
)

// DayCount is one day of the breakdown. OverLimit is strict: a day
// exactly at the limit is compliant.
type DayCount struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	OverLimit bool   `json:"over_limit"`
}

// HourPattern reports the peak hour-of-day bucket.
type HourPattern struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// WeekdayPattern reports the peak day-of-week bucket. Weekday follows
// time.Weekday numbering, Sunday = 0.
type WeekdayPattern struct {
	Weekday time.Weekday `json:"weekday"`
	Name    string       `json:"name"`
	Count   int          `json:"count"`
}

// Data is the full stats view for one trailing window.
type Data struct {
	Range                 int             `json:"range"`
	TotalSlips            int             `json:"total_slips"`
	AvgPerDay             float64         `json:"avg_per_day"`
	BestDay               *DayCount       `json:"best_day"`
	WorstDay              *DayCount       `json:"worst_day"`
	DaysUnderLimitPercent float64         `json:"days_under_limit_percent"`
	DailyCounts           []DayCount      `json:"daily_counts"`
	PeakHour              *HourPattern    `json:"peak_hour"`
	PeakWeekday           *WeekdayPattern `json:"peak_weekday"`
	HasAnyData            bool            `json:"has_any_data"`
}

// Compute derives the stats view for the trailing window of rng days
// ending today.
//
// Events are bucketed by their own local date, so callers rebase
// timestamps into the display timezone first. A rng of zero or less
// degrades to all-zero statistics with no per-day entries.
func Compute(events []event.Slip, limit, rng int, now time.Time) Data {
	data := Data{HasAnyData: len(events) > 0}
	if rng <= 0 {
		return data
	}
	data.Range = rng

	keys := calendar.LastNDays(now, rng)
	inRange := make(map[string]bool, len(keys))
	for _, k := range keys {
		inRange[k] = true
	}

	var filtered []event.Slip
	counts := make(map[string]int, rng)
	for _, e := range events {
		key := calendar.DateKey(e.At)
		if !inRange[key] {
			continue
		}
		filtered = append(filtered, e)
		counts[key]++
	}

	data.TotalSlips = len(filtered)
	data.AvgPerDay = float64(data.TotalSlips) / float64(rng)

	// Dense ascending breakdown: every day in the window gets an entry,
	// zero-count days included. Best and worst take the first day
	// encountered in ascending order on ties.
	daysUnder := 0
	ascending := make([]DayCount, 0, rng)
	var best, worst *DayCount
	for _, key := range keys {
		dc := DayCount{
			Date:      key,
			Count:     counts[key],
			OverLimit: counts[key] > limit,
		}
		ascending = append(ascending, dc)
		if !dc.OverLimit {
			daysUnder++
		}
		last := &ascending[len(ascending)-1]
		if best == nil || last.Count < best.Count {
			best = last
		}
		if worst == nil || last.Count > worst.Count {
			worst = last
		}
	}
	data.DaysUnderLimitPercent = 100 * float64(daysUnder) / float64(rng)
	if best != nil {
		b := *best
		data.BestDay = &b
	}
	if worst != nil {
		w := *worst
		data.WorstDay = &w
	}

	// Presented newest-first.
	data.DailyCounts = make([]DayCount, 0, len(ascending))
	for i := len(ascending) - 1; i >= 0; i-- {
		data.DailyCounts = append(data.DailyCounts, ascending[i])
	}

	data.PeakHour, data.PeakWeekday = patterns(filtered, len(counts))
	return data
}

// patterns computes the peak hour and weekday signals, or nils when the
// gating thresholds are not met.
func patterns(filtered []event.Slip, distinctDates int) (*HourPattern, *WeekdayPattern) {
	if distinctDates < MinDaysForPatterns || len(filtered) < MinEventsForPatterns {
		return nil, nil
	}

	var hours [24]int
	var weekdays [7]int
	for _, e := range filtered {
		hours[calendar.HourOf(e.At)]++
		weekdays[calendar.WeekdayOf(e.At)]++
	}

	var peakHour *HourPattern
	if hour, count := peakBucket(hours[:]); count >= MinBucketCount {
		peakHour = &HourPattern{
			Hour:  hour,
			Label: calendar.FormatHourRange(hour),
			Count: count,
		}
	}

	var peakWeekday *WeekdayPattern
	if day, count := peakBucket(weekdays[:]); count >= MinBucketCount {
		wd := time.Weekday(day)
		peakWeekday = &WeekdayPattern{
			Weekday: wd,
			Name:    calendar.WeekdayName(wd),
			Count:   count,
		}
	}
	return peakHour, peakWeekday
}

// peakBucket returns the index with the highest count. Scanning is in
// fixed ascending key order with a strict comparison, so exact ties
// resolve to the lowest key.
func peakBucket(buckets []int) (int, int) {
	peak, peakCount := 0, 0
	for i, count := range buckets {
		if count > peakCount {
			peak, peakCount = i, count
		}
	}
	return peak, peakCount
}
