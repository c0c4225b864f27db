package journal

import (
	"sync"
	"time"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/storage"
)

// snapshot is one full copy of the persistable state, taken inside a
// mutator's critical section.
type snapshot struct {
	events   []event.Slip
	lastSlip time.Time
	hasLast  bool
	undoID   string
	undoAt   time.Time
}

// flushMailbox is a latest-wins handoff to the background writer.
//
// Mutators overwrite pending rather than queueing, so a burst of
// mutations coalesces into a single storage write of the newest state.
// The buffered size-1 signal channel coalesces wakeups the same way.
type flushMailbox struct {
	mu      sync.Mutex
	pending *snapshot
	signal  chan struct{}
}

// offerLocked snapshots the current state into the mailbox and wakes the
// writer. Caller must hold j.mu.
func (j *Journal) offerLocked() {
	events := make([]event.Slip, len(j.events))
	copy(events, j.events)
	snap := &snapshot{
		events:   events,
		lastSlip: j.lastSlipAt,
		hasLast:  j.hasLast,
		undoID:   j.undoID,
		undoAt:   j.undoAt,
	}

	j.mailbox.mu.Lock()
	j.mailbox.pending = snap
	j.mailbox.mu.Unlock()

	select {
	case j.mailbox.signal <- struct{}{}:
	default:
	}
}

// flushLoop is the single background writer. It drains the mailbox on
// every signal and once more on shutdown.
func (j *Journal) flushLoop() {
	defer close(j.done)
	for {
		select {
		case <-j.mailbox.signal:
			j.drainPending()
		case <-j.quit:
			j.drainPending()
			return
		}
	}
}

// drainPending takes the pending snapshot, if any, and writes it through
// to storage. Write failures are reported, never retried: the next
// mutation offers a fresh snapshot anyway.
func (j *Journal) drainPending() {
	j.mailbox.mu.Lock()
	snap := j.mailbox.pending
	j.mailbox.pending = nil
	j.mailbox.mu.Unlock()

	if snap == nil {
		return
	}
	if err := j.writeSnapshot(snap); err != nil {
		j.saveErrMu.Lock()
		j.lastSaveErr = err
		j.saveErrMu.Unlock()
		j.onSaveErr(err)
	} else {
		j.saveErrMu.Lock()
		j.lastSaveErr = nil
		j.saveErrMu.Unlock()
	}
}

// writeSnapshot persists one snapshot. An empty collection clears the
// events record instead of saving an empty list, and absent scalar
// records clear theirs, keeping storage distinguishable from "never
// written".
func (j *Journal) writeSnapshot(snap *snapshot) error {
	if len(snap.events) == 0 {
		if err := j.store.Clear(storage.KeyEvents); err != nil {
			return err
		}
	} else {
		if err := j.store.SaveEvents(snap.events); err != nil {
			return err
		}
	}

	if snap.hasLast {
		if err := j.store.SaveLastSlip(snap.lastSlip); err != nil {
			return err
		}
	} else {
		if err := j.store.Clear(storage.KeyLastSlip); err != nil {
			return err
		}
	}

	if snap.undoID == "" {
		return j.store.Clear(storage.KeyUndo)
	}
	return j.store.SaveUndo(storage.UndoRef{ID: snap.undoID, At: snap.undoAt})
}

// Flush synchronously drains any pending snapshot from the calling
// goroutine. Tests use it to observe storage without sleeping; the
// background writer finding an empty mailbox afterwards is harmless.
func (j *Journal) Flush() {
	j.drainPending()
}
