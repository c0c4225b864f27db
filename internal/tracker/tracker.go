// Package tracker ties the journal, settings, and the pure calculators
// into the read-side views the CLI and HTTP API present.
//
// Derived results are memoized behind an explicit key of (collection
// version, limit, today's date). Any mutation bumps the version, a limit
// change alters the key, and a midnight rollover changes the date, so a
// stale entry can never be served; there is no time-based expiry.
package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/slipline-dev/slipline/internal/calendar"
	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/journal"
	"github.com/slipline-dev/slipline/internal/settings"
	"github.com/slipline-dev/slipline/internal/stats"
	"github.com/slipline-dev/slipline/internal/streak"
)

// MaxRange bounds caller-chosen stats windows, mirroring the streak
// walk's safety bound. Surface layers validate against it.
const MaxRange = 365

// TodayStatus is the at-a-glance view for the current calendar day.
// UnderLimit treats the limit as an inclusive ceiling.
type TodayStatus struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Limit      int    `json:"limit"`
	UnderLimit bool   `json:"under_limit"`
	Remaining  int    `json:"remaining"`
}

// memoKey is the invalidation key for derived values.
type memoKey struct {
	version uint64
	limit   int
	today   string
}

// Tracker derives read-only views. All methods are safe for concurrent
// use; none of them mutate the journal or settings.
type Tracker struct {
	journal  *journal.Journal
	settings *settings.Settings
	clock    journal.Clock
	loc      *time.Location

	mu           sync.Mutex
	streakKey    memoKey
	streakVal    streak.Info
	streakOK     bool
	statsKey     memoKey
	statsByRange map[int]stats.Data
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock. Tests pass a frozen testutil.Clock.
func WithClock(c journal.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithLocation sets the timezone all calendar bucketing happens in.
// Defaults to the process-local zone.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New creates a Tracker over the given journal and settings.
func New(j *journal.Journal, s *settings.Settings, opts ...Option) *Tracker {
	t := &Tracker{
		journal:      j,
		settings:     s,
		clock:        systemClock{},
		loc:          time.Local,
		statsByRange: make(map[int]stats.Data),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Today reports the current day's count against the limit. Computed
// fresh on every call so it is correct immediately after midnight.
func (t *Tracker) Today() TodayStatus {
	now := t.now()
	todayKey := calendar.Today(now)
	limit := t.settings.Limit()

	count := 0
	for _, e := range t.journal.Events() {
		if calendar.DateKey(e.At.In(t.loc)) == todayKey {
			count++
		}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return TodayStatus{
		Date:       todayKey,
		Count:      count,
		Limit:      limit,
		UnderLimit: count <= limit,
		Remaining:  remaining,
	}
}

// Streak returns the memoized streak view.
func (t *Tracker) Streak() streak.Info {
	now := t.now()
	key := t.keyFor(now)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streakOK && t.streakKey == key {
		return t.streakVal
	}

	info := streak.Compute(t.eventsIn(), key.limit, now)
	t.streakKey, t.streakVal, t.streakOK = key, info, true
	return info
}

// Stats returns the memoized stats view for a trailing window of rng
// days. Windows of zero or less degrade inside the calculator and are
// not cached.
func (t *Tracker) Stats(rng int) stats.Data {
	now := t.now()
	key := t.keyFor(now)

	if rng <= 0 {
		return stats.Compute(t.eventsIn(), key.limit, rng, now)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.statsKey != key {
		t.statsKey = key
		t.statsByRange = make(map[int]stats.Data)
	}
	if data, ok := t.statsByRange[rng]; ok {
		return data
	}

	data := stats.Compute(t.eventsIn(), key.limit, rng, now)
	t.statsByRange[rng] = data
	return data
}

// Slips returns the collection in display order: newest first, with
// insertion order breaking timestamp ties. The journal's own order is
// insertion order, which restores can leave non-chronological.
func (t *Tracker) Slips() []event.Slip {
	events := t.eventsIn()
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})
	return events
}

// now is the current instant in the display timezone.
func (t *Tracker) now() time.Time {
	return t.clock.Now().In(t.loc)
}

func (t *Tracker) keyFor(now time.Time) memoKey {
	return memoKey{
		version: t.journal.Version(),
		limit:   t.settings.Limit(),
		today:   calendar.Today(now),
	}
}

// eventsIn returns the collection rebased into the display timezone.
func (t *Tracker) eventsIn() []event.Slip {
	events := t.journal.Events()
	for i := range events {
		events[i] = events[i].In(t.loc)
	}
	return events
}
