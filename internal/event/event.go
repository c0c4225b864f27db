// Package event defines the slip event record and ID generation.
//
// A slip is one user-logged instance of the tracked behavior. Events are
// immutable once created: the journal removes and re-adds whole records,
// it never edits them in place.
package event

import "time"

// Source tags how a slip entered the journal.
type Source string

const (
	// SourceManual marks a slip logged directly by the user.
	SourceManual Source = "manual"

	// SourceRestore marks a slip re-added after a deletion was reverted.
	// Restored slips append at the end of the collection, so insertion
	// order is not guaranteed to match timestamp order.
	SourceRestore Source = "undo-restore"
)

// Valid reports whether s is a known source tag.
func (s Source) Valid() bool {
	return s == SourceManual || s == SourceRestore
}

// Slip is a single timestamped slip event.
//
// ID is an opaque unique string assigned at creation. At carries
// millisecond precision; sub-millisecond components are dropped at the
// storage boundary, not here.
type Slip struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Source Source    `json:"source"`
}

// In returns a copy of the slip with its timestamp rebased into loc.
// The instant is unchanged; only the calendar projection moves.
func (s Slip) In(loc *time.Location) Slip {
	s.At = s.At.In(loc)
	return s
}
