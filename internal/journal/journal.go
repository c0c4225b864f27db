// Package journal owns the canonical slip collection and the undo
// bookkeeping around it.
//
// The in-memory collection is authoritative: mutators update it first and
// hand a snapshot to a background writer, so a slow or failing storage
// backend never blocks or corrupts live state. Derived calculators
// (streak, stats) read the collection through Events and never mutate.
package journal

import (
	"log/slog"
	"sync"
	"time"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/storage"
)

// UndoWindow is how long after an add the slip may be reverted.
const UndoWindow = 5 * time.Minute

// Clock abstracts wall-clock access so tests can freeze time.
// Implemented by systemClock (production) and testutil.Clock (tests).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ChangeKind distinguishes mutation notifications.
type ChangeKind int

const (
	// ChangeRecord fires when a slip is added, live or backfilled.
	ChangeRecord ChangeKind = iota + 1
	// ChangeRemove fires when a slip is deleted by id.
	ChangeRemove
	// ChangeUndo fires when the armed slip is reverted.
	ChangeUndo
	// ChangeRestore fires when a removed slip is re-added.
	ChangeRestore
	// ChangeClear fires when the whole collection is wiped.
	ChangeClear
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeRecord:
		return "record"
	case ChangeRemove:
		return "remove"
	case ChangeUndo:
		return "undo"
	case ChangeRestore:
		return "restore"
	case ChangeClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Change describes one committed mutation. Slip is the affected event,
// zero-valued for ChangeClear. Version is the collection version after
// the mutation; it increments on every committed change, making it a
// cheap staleness check for memoized readers.
type Change struct {
	Kind    ChangeKind
	Slip    event.Slip
	Version uint64
}

// Journal is the event store.
//
// Thread-safety model:
//   - mutators (Record, RecordAt, Remove, Restore, UndoLast, ClearAll)
//     each run as one atomic critical section under the write lock
//   - readers take the read lock and may run concurrently
//   - subscriber callbacks run after the lock is released, so they may
//     call back into the journal freely
type Journal struct {
	mu     sync.RWMutex
	events []event.Slip

	// Last-slip display value. Persisted independently of the collection
	// and recomputed from remaining events when the newest is removed.
	lastSlipAt time.Time
	hasLast    bool

	// Undo reference: armed iff undoID is non-empty. Persisted alongside
	// the collection so the window survives a restart.
	undoID string
	undoAt time.Time

	version uint64

	clock  Clock
	idgen  event.IDGenerator
	logger *slog.Logger

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	store     storage.Store
	onSaveErr func(error)
	mailbox   flushMailbox
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	saveErrMu   sync.Mutex
	lastSaveErr error
}

type subscriber struct {
	id int
	fn func(Change)
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock replaces the wall clock. Tests pass a frozen testutil.Clock.
func WithClock(c Clock) Option {
	return func(j *Journal) { j.clock = c }
}

// WithIDGenerator replaces the slip id source. Tests pass a
// FixedGenerator for deterministic ids.
func WithIDGenerator(g event.IDGenerator) Option {
	return func(j *Journal) { j.idgen = g }
}

// WithLogger sets the logger for load and save fault reports.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// WithSaveErrorHandler installs a callback invoked from the background
// writer whenever a persistence write fails. The default logs a warning.
func WithSaveErrorHandler(fn func(error)) Option {
	return func(j *Journal) { j.onSaveErr = fn }
}

// New loads the persisted collection from st and starts the background
// writer.
//
// Load faults degrade: an unreadable or corrupt events record logs a
// warning and starts the journal empty rather than failing, so logging
// stays available when storage is not.
func New(st storage.Store, opts ...Option) *Journal {
	j := &Journal{
		clock:  systemClock{},
		idgen:  event.UUIDv7Generator{},
		logger: slog.Default(),
		store:  st,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	j.mailbox.signal = make(chan struct{}, 1)
	for _, opt := range opts {
		opt(j)
	}
	if j.onSaveErr == nil {
		j.onSaveErr = func(err error) {
			j.logger.Warn("persistence write failed", "error", err)
		}
	}

	j.load()
	go j.flushLoop()
	return j
}

// load pulls the persisted state into memory, degrading on faults.
func (j *Journal) load() {
	events, err := j.store.LoadEvents()
	if err != nil {
		j.logger.Warn("could not load slip collection, starting empty", "error", err)
		events = nil
	}
	j.events = events

	last, ok, err := j.store.LoadLastSlip()
	if err != nil {
		j.logger.Warn("could not load last-slip record", "error", err)
	} else if ok {
		j.lastSlipAt = last
		j.hasLast = true
	}

	// A collection without a last-slip record still has a well-defined
	// display value: the newest timestamp present.
	if !j.hasLast && len(j.events) > 0 {
		j.lastSlipAt, j.hasLast = newestTimestamp(j.events)
	}

	// The undo reference survives restarts so a short-lived CLI process
	// can undo a slip recorded by an earlier one. Expiry and dangling-id
	// checks happen at use time, not here.
	ref, ok, err := j.store.LoadUndo()
	if err != nil {
		j.logger.Warn("could not load undo record", "error", err)
	} else if ok {
		j.undoID = ref.ID
		j.undoAt = ref.At
	}
}

// Close drains any pending snapshot to storage and stops the background
// writer. It returns the most recent persistence failure, if any, so
// callers can warn before exit. The underlying store is not closed; its
// lifetime belongs to the caller.
func (j *Journal) Close() error {
	j.closeOnce.Do(func() {
		close(j.quit)
		<-j.done
		// Catch a snapshot offered between the writer's final drain and
		// the quit signal.
		j.drainPending()
	})
	j.saveErrMu.Lock()
	defer j.saveErrMu.Unlock()
	return j.lastSaveErr
}

// Events returns a copy of the collection in insertion order.
func (j *Journal) Events() []event.Slip {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]event.Slip, len(j.events))
	copy(out, j.events)
	return out
}

// Len reports the collection size.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.events)
}

// Version reports the collection version. It increments on every
// committed mutation and anchors memoized derived values.
func (j *Journal) Version() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.version
}

// LastSlipAt returns the last-slip display instant. ok is false when
// nothing has ever been logged (or everything was cleared).
func (j *Journal) LastSlipAt() (time.Time, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastSlipAt, j.hasLast
}

// UndoRemaining reports how much of the undo window is left. ok is false
// when nothing is armed, the window has expired, or the armed slip was
// removed by id (a dangling reference must not advertise an undo that
// would report false).
func (j *Journal) UndoRemaining() (time.Duration, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.undoID == "" || j.indexOf(j.undoID) < 0 {
		return 0, false
	}
	elapsed := j.clock.Now().Sub(j.undoAt)
	if elapsed > UndoWindow {
		return 0, false
	}
	return UndoWindow - elapsed, true
}

// Subscribe registers fn to run after every committed mutation. The
// returned function unregisters it. Callbacks run sequentially on the
// mutating goroutine, outside the journal lock.
func (j *Journal) Subscribe(fn func(Change)) (unsubscribe func()) {
	j.subMu.Lock()
	defer j.subMu.Unlock()

	id := j.nextSub
	j.nextSub++
	j.subs = append(j.subs, subscriber{id: id, fn: fn})

	return func() {
		j.subMu.Lock()
		defer j.subMu.Unlock()
		for i, s := range j.subs {
			if s.id == id {
				j.subs = append(j.subs[:i], j.subs[i+1:]...)
				return
			}
		}
	}
}

// notify runs all subscriber callbacks for a committed change.
// Must be called without holding j.mu.
func (j *Journal) notify(c Change) {
	j.subMu.Lock()
	fns := make([]func(Change), len(j.subs))
	for i, s := range j.subs {
		fns[i] = s.fn
	}
	j.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// newestTimestamp returns the maximum timestamp in events.
func newestTimestamp(events []event.Slip) (time.Time, bool) {
	if len(events) == 0 {
		return time.Time{}, false
	}
	newest := events[0].At
	for _, e := range events[1:] {
		if e.At.After(newest) {
			newest = e.At
		}
	}
	return newest, true
}
