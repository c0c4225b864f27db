package journal

import (
	"errors"
	"time"

	"github.com/slipline-dev/slipline/internal/event"
)

// Record logs a slip at the current instant and arms the undo window on
// it. A second Record while armed re-arms onto the new slip; undo
// opportunities never stack.
func (j *Journal) Record() event.Slip {
	now := j.clock.Now()

	j.mu.Lock()
	slip := event.Slip{ID: j.idgen.Generate(), At: now, Source: event.SourceManual}
	j.events = append(j.events, slip)
	j.lastSlipAt, j.hasLast = now, true
	j.undoID, j.undoAt = slip.ID, now
	j.version++
	c := Change{Kind: ChangeRecord, Slip: slip, Version: j.version}
	j.offerLocked()
	j.mu.Unlock()

	j.notify(c)
	return slip
}

// RecordAt backfills a slip at a past instant. The undo window arms on
// the new slip and counts from the call, not from the backfilled
// timestamp. Future instants are rejected with a FutureTimestampError.
func (j *Journal) RecordAt(at time.Time) (event.Slip, error) {
	now := j.clock.Now()
	if at.After(now) {
		return event.Slip{}, &FutureTimestampError{At: at, Now: now}
	}

	j.mu.Lock()
	slip := event.Slip{ID: j.idgen.Generate(), At: at, Source: event.SourceManual}
	j.events = append(j.events, slip)
	if !j.hasLast || at.After(j.lastSlipAt) {
		j.lastSlipAt, j.hasLast = at, true
	}
	j.undoID, j.undoAt = slip.ID, now
	j.version++
	c := Change{Kind: ChangeRecord, Slip: slip, Version: j.version}
	j.offerLocked()
	j.mu.Unlock()

	j.notify(c)
	return slip, nil
}

// Remove deletes the slip with the given id. A missing id is a no-op,
// not an error: ok is false and nothing changes, not even the undo
// reference. When the armed slip itself is removed, the dangling
// reference is discovered and discarded by the next UndoLast.
func (j *Journal) Remove(id string) (event.Slip, bool) {
	j.mu.Lock()
	i := j.indexOf(id)
	if i < 0 {
		j.mu.Unlock()
		return event.Slip{}, false
	}

	slip := j.events[i]
	j.events = append(j.events[:i], j.events[i+1:]...)
	j.lastSlipAt, j.hasLast = newestTimestamp(j.events)
	j.version++
	c := Change{Kind: ChangeRemove, Slip: slip, Version: j.version}
	j.offerLocked()
	j.mu.Unlock()

	j.notify(c)
	return slip, true
}

// UndoLast reverts the armed slip if the undo window is still open.
//
// ok is false when nothing is armed, the window has expired, or the
// armed slip was already removed by id. Expiry leaves the reference in
// place (later calls keep reporting false); a successful undo consumes
// it, so at most one undo succeeds per add.
func (j *Journal) UndoLast() (event.Slip, bool) {
	now := j.clock.Now()

	j.mu.Lock()
	if j.undoID == "" {
		j.mu.Unlock()
		return event.Slip{}, false
	}
	if now.Sub(j.undoAt) > UndoWindow {
		j.mu.Unlock()
		return event.Slip{}, false
	}
	i := j.indexOf(j.undoID)
	if i < 0 {
		// The armed slip was removed out from under us. Drop the stale
		// reference so UndoRemaining stops advertising a window.
		j.undoID, j.undoAt = "", time.Time{}
		j.mu.Unlock()
		return event.Slip{}, false
	}

	slip := j.events[i]
	j.events = append(j.events[:i], j.events[i+1:]...)
	j.undoID, j.undoAt = "", time.Time{}
	j.lastSlipAt, j.hasLast = newestTimestamp(j.events)
	j.version++
	c := Change{Kind: ChangeUndo, Slip: slip, Version: j.version}
	j.offerLocked()
	j.mu.Unlock()

	j.notify(c)
	return slip, true
}

// Restore re-adds a previously removed slip with its original id and
// timestamp, tagged SourceRestore. The slip appends at the end of the
// collection regardless of its timestamp, which is why consumers sort
// before assuming chronological order. Restoring arms the undo window
// like any other add.
func (j *Journal) Restore(id string, at time.Time) (event.Slip, error) {
	if id == "" {
		return event.Slip{}, errors.New("empty slip id")
	}
	now := j.clock.Now()
	if at.After(now) {
		return event.Slip{}, &FutureTimestampError{At: at, Now: now}
	}

	j.mu.Lock()
	if j.indexOf(id) >= 0 {
		j.mu.Unlock()
		return event.Slip{}, &DuplicateIDError{ID: id}
	}

	slip := event.Slip{ID: id, At: at, Source: event.SourceRestore}
	j.events = append(j.events, slip)
	if !j.hasLast || at.After(j.lastSlipAt) {
		j.lastSlipAt, j.hasLast = at, true
	}
	j.undoID, j.undoAt = slip.ID, now
	j.version++
	c := Change{Kind: ChangeRestore, Slip: slip, Version: j.version}
	j.offerLocked()
	j.mu.Unlock()

	j.notify(c)
	return slip, nil
}

// ClearAll wipes the collection, the last-slip record, and any armed
// undo, then writes the empty state through. Always a committed
// mutation, even on an already-empty journal.
func (j *Journal) ClearAll() {
	j.mu.Lock()
	j.events = nil
	j.undoID, j.undoAt = "", time.Time{}
	j.lastSlipAt, j.hasLast = time.Time{}, false
	j.version++
	c := Change{Kind: ChangeClear, Version: j.version}
	j.offerLocked()
	j.mu.Unlock()

	j.notify(c)
}

// indexOf returns the position of id in the collection, or -1.
// Caller must hold j.mu.
func (j *Journal) indexOf(id string) int {
	for i, e := range j.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}
