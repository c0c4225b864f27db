// Package storage defines the persistence contract for slip journals and
// settings, plus an in-memory implementation for tests and ephemeral runs.
//
// Implementations persist four independent records: the event collection,
// the last-slip timestamp, the armed undo reference, and the daily limit.
// Callers must not assume atomicity across calls; each method stands
// alone. The journal treats memory as authoritative and uses storage as a
// write-behind snapshot, so a Save* failure never corrupts live state.
package storage

import (
	"time"

	"github.com/slipline-dev/slipline/internal/event"
)

// Key names one of the independently persisted records.
type Key string

const (
	KeyEvents   Key = "events"
	KeyLastSlip Key = "last_slip"
	KeyUndo     Key = "undo"
	KeyLimit    Key = "daily_limit"
)

// UndoRef is the persisted undo reference: the slip armed for undo and
// the instant its window opened. Persisting it lets a short-lived CLI
// process undo a slip recorded by an earlier one.
type UndoRef struct {
	ID string
	At time.Time
}

// Store is the persistence collaborator.
//
// Load methods distinguish "absent" from "failed": a record that was never
// written loads as the zero value with ok=false (or an empty slice) and a
// nil error. Errors are reserved for real faults such as unreadable or
// corrupt state.
type Store interface {
	// LoadEvents returns all persisted slips in their stored order.
	// A store with no events record returns an empty slice, not an error.
	LoadEvents() ([]event.Slip, error)

	// SaveEvents replaces the persisted collection with events.
	SaveEvents(events []event.Slip) error

	// LoadLastSlip returns the persisted last-slip instant.
	// ok is false when no last-slip record exists.
	LoadLastSlip() (at time.Time, ok bool, err error)

	// SaveLastSlip replaces the persisted last-slip instant.
	SaveLastSlip(at time.Time) error

	// LoadUndo returns the persisted undo reference.
	// ok is false when no undo record exists.
	LoadUndo() (ref UndoRef, ok bool, err error)

	// SaveUndo replaces the persisted undo reference.
	SaveUndo(ref UndoRef) error

	// LoadLimit returns the persisted daily limit.
	// ok is false when no limit record exists.
	LoadLimit() (limit int, ok bool, err error)

	// SaveLimit replaces the persisted daily limit.
	SaveLimit(limit int) error

	// Clear removes the named records. Clearing an absent record is a no-op.
	Clear(keys ...Key) error

	// Close releases any underlying resources.
	Close() error
}
