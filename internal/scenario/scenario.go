// Package scenario runs YAML-described slip histories end to end:
// events feed a fresh journal under a frozen clock, the tracker derives
// its views, and the rendered report is compared against golden files.
//
// Scenarios pin the whole derivation pipeline at once. A unit test
// checks one calculator; a scenario checks that journal, settings,
// tracker, and rendering agree on a realistic history.
//
// # Fixture format
//
//	name: over_limit_day
//	description: "One bad day interrupts the streak"
//	now: 2025-03-20T21:00:00Z
//	limit: 2
//	events:
//	  - at: 2025-03-18T09:30:00Z
//	  - ago: 26h
//	  - at: 2025-03-19T11:05:00Z
//	    source: undo-restore
//	expect:
//	  current_streak: 2
//	  total_slips: 3
//
// Every event needs exactly one of at (absolute RFC 3339 instant) or
// ago (duration before now). Sources default to manual. The expect
// block is optional; set fields are checked after the run.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/settings"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// Scenario is one YAML fixture: a frozen instant, a slip history, and
// optional expectations over the derived views.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario pins down.
	Description string `yaml:"description"`

	// Now is the frozen clock instant every derivation runs against.
	Now time.Time `yaml:"now"`

	// Timezone is the IANA display zone. Empty means UTC; goldens must
	// not depend on the host zone.
	Timezone string `yaml:"timezone,omitempty"`

	// Limit overrides the daily limit. Zero keeps the stored default.
	Limit int `yaml:"limit,omitempty"`

	// Range is the stats window in days. Zero means 7.
	Range int `yaml:"range,omitempty"`

	// Events is the slip history, applied in order.
	Events []Event `yaml:"events"`

	// Expect holds optional assertions over the derived views.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Event is one slip in the history. Exactly one of At and Ago places it
// in time.
type Event struct {
	// At is the absolute instant.
	At time.Time `yaml:"at,omitempty"`

	// Ago is a duration before the scenario's now, e.g. "26h30m".
	Ago string `yaml:"ago,omitempty"`

	// Source tags the slip: "manual" (default) or "undo-restore".
	Source string `yaml:"source,omitempty"`
}

// Expect lists checked fields. Pointers distinguish "assert zero" from
// "not asserted".
type Expect struct {
	CurrentStreak *int `yaml:"current_streak,omitempty"`
	BestStreak    *int `yaml:"best_streak,omitempty"`
	TotalSlips    *int `yaml:"total_slips,omitempty"`
	TodayCount    *int `yaml:"today_count,omitempty"`
}

// Load reads and parses one scenario file. Unknown YAML keys, missing
// required fields, and unresolvable events are all load errors.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	// Strict decoding catches typos like "event:" for "events:".
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", filepath.Base(path), err)
	}
	return &s, nil
}

// LoadDir loads every *.yaml fixture in dir, sorted by file name so
// golden runs are ordered deterministically.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := Load(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// location resolves the display zone, defaulting to UTC.
func (s *Scenario) location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// rangeDays resolves the stats window, defaulting to a week.
func (s *Scenario) rangeDays() int {
	if s.Range == 0 {
		return 7
	}
	return s.Range
}

// resolve places the event on the timeline relative to now.
func (e *Event) resolve(now time.Time) (time.Time, error) {
	if !e.At.IsZero() {
		return e.At, nil
	}
	d, err := time.ParseDuration(e.Ago)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Now.IsZero() {
		return fmt.Errorf("now is required")
	}
	if s.Limit != 0 && (s.Limit < settings.MinLimit || s.Limit > settings.MaxLimit) {
		return fmt.Errorf("limit must be between %d and %d", settings.MinLimit, settings.MaxLimit)
	}
	if s.Range != 0 && (s.Range < 1 || s.Range > tracker.MaxRange) {
		return fmt.Errorf("range must be between 1 and %d", tracker.MaxRange)
	}
	if _, err := s.location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	for i := range s.Events {
		if err := validateEvent(i, &s.Events[i], s.Now); err != nil {
			return err
		}
	}

	if s.Expect != nil {
		if err := validateExpect(s.Expect); err != nil {
			return err
		}
	}
	return nil
}

func validateEvent(index int, e *Event, now time.Time) error {
	hasAt := !e.At.IsZero()
	hasAgo := e.Ago != ""
	if hasAt == hasAgo {
		return fmt.Errorf("events[%d]: exactly one of at and ago is required", index)
	}
	if hasAgo {
		d, err := time.ParseDuration(e.Ago)
		if err != nil {
			return fmt.Errorf("events[%d]: ago: %w", index, err)
		}
		if d <= 0 {
			return fmt.Errorf("events[%d]: ago must be a positive duration", index)
		}
	}

	at, err := e.resolve(now)
	if err != nil {
		return fmt.Errorf("events[%d]: %w", index, err)
	}
	if at.After(now) {
		return fmt.Errorf("events[%d]: instant is after now", index)
	}

	switch event.Source(e.Source) {
	case "", event.SourceManual, event.SourceRestore:
	default:
		return fmt.Errorf("events[%d]: unknown source %q", index, e.Source)
	}
	return nil
}

func validateExpect(e *Expect) error {
	check := func(name string, v *int) error {
		if v != nil && *v < 0 {
			return fmt.Errorf("expect: %s must be non-negative", name)
		}
		return nil
	}
	if err := check("current_streak", e.CurrentStreak); err != nil {
		return err
	}
	if err := check("best_streak", e.BestStreak); err != nil {
		return err
	}
	if err := check("total_slips", e.TotalSlips); err != nil {
		return err
	}
	return check("today_count", e.TodayCount)
}
