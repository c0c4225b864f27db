package storage

import (
	"sync"
	"time"

	"github.com/slipline-dev/slipline/internal/event"
)

// Memory is a map-backed Store.
//
// It backs tests and the server's --ephemeral mode. Fault injection is
// built in: set FailLoads or FailSaves and every subsequent load or save
// returns that error until the field is cleared again.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	events     []event.Slip
	lastSlip   time.Time
	hasLast    bool
	undo       UndoRef
	hasUndo    bool
	limit      int
	hasLimit   bool
	saveEvents int

	failLoads error
	failSaves error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// FailLoads makes every Load* call return err. Pass nil to heal.
func (m *Memory) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoads = err
}

// FailSaves makes every Save* and Clear call return err. Pass nil to heal.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = err
}

// SaveEventsCalls reports how many times SaveEvents ran, including failed
// attempts. Tests use it to observe write coalescing.
func (m *Memory) SaveEventsCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveEvents
}

func (m *Memory) LoadEvents() ([]event.Slip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failLoads != nil {
		return nil, m.failLoads
	}
	out := make([]event.Slip, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *Memory) SaveEvents(events []event.Slip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveEvents++
	if m.failSaves != nil {
		return m.failSaves
	}
	m.events = make([]event.Slip, len(events))
	copy(m.events, events)
	return nil
}

func (m *Memory) LoadLastSlip() (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failLoads != nil {
		return time.Time{}, false, m.failLoads
	}
	return m.lastSlip, m.hasLast, nil
}

func (m *Memory) SaveLastSlip(at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSaves != nil {
		return m.failSaves
	}
	m.lastSlip = at
	m.hasLast = true
	return nil
}

func (m *Memory) LoadUndo() (UndoRef, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failLoads != nil {
		return UndoRef{}, false, m.failLoads
	}
	return m.undo, m.hasUndo, nil
}

func (m *Memory) SaveUndo(ref UndoRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSaves != nil {
		return m.failSaves
	}
	m.undo = ref
	m.hasUndo = true
	return nil
}

func (m *Memory) LoadLimit() (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failLoads != nil {
		return 0, false, m.failLoads
	}
	return m.limit, m.hasLimit, nil
}

func (m *Memory) SaveLimit(limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSaves != nil {
		return m.failSaves
	}
	m.limit = limit
	m.hasLimit = true
	return nil
}

func (m *Memory) Clear(keys ...Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSaves != nil {
		return m.failSaves
	}
	for _, k := range keys {
		switch k {
		case KeyEvents:
			m.events = nil
		case KeyLastSlip:
			m.lastSlip = time.Time{}
			m.hasLast = false
		case KeyUndo:
			m.undo = UndoRef{}
			m.hasUndo = false
		case KeyLimit:
			m.limit = 0
			m.hasLimit = false
		}
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
