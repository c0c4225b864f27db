// Package jsonfile implements the storage contract on two JSON snapshot
// files, events.json and settings.json, inside a data directory.
//
// Every save rewrites the whole file through a temp-file-then-rename swap,
// so a crash mid-write leaves either the old snapshot or the new one,
// never a torn file.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/storage"
)

const (
	eventsFileName   = "events.json"
	settingsFileName = "settings.json"
)

// Store persists slips and settings as JSON files.
//
// Thread-safety: a single mutex serializes all file access. The two
// snapshot files are independent records; no atomicity holds across them.
type Store struct {
	dir string
	mu  sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// slipRecord is the wire form of one slip. Instants travel as epoch
// milliseconds.
type slipRecord struct {
	ID     string `json:"id"`
	AtMS   int64  `json:"at_ms"`
	Source string `json:"source"`
}

type eventsFile struct {
	Slips []slipRecord `json:"slips"`
}

// settingsFile also carries the undo bookkeeping; its two fields are
// present together or absent together.
type settingsFile struct {
	LastSlipAtMS *int64  `json:"last_slip_at_ms,omitempty"`
	UndoID       *string `json:"undo_id,omitempty"`
	UndoAtMS     *int64  `json:"undo_at_ms,omitempty"`
	DailyLimit   *int    `json:"daily_limit,omitempty"`
}

// Open prepares a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// LoadEvents reads events.json. A missing file is an empty collection.
func (s *Store) LoadEvents() ([]event.Slip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, eventsFileName)
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", eventsFileName, err)
	}

	var f eventsFile
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", eventsFileName, err)
	}

	events := make([]event.Slip, 0, len(f.Slips))
	for _, r := range f.Slips {
		events = append(events, event.Slip{
			ID:     r.ID,
			At:     time.UnixMilli(r.AtMS),
			Source: event.Source(r.Source),
		})
	}
	return events, nil
}

// SaveEvents rewrites events.json with the full collection.
func (s *Store) SaveEvents(events []event.Slip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := eventsFile{Slips: make([]slipRecord, 0, len(events))}
	for _, e := range events {
		f.Slips = append(f.Slips, slipRecord{
			ID:     e.ID,
			AtMS:   e.At.UnixMilli(),
			Source: string(e.Source),
		})
	}
	return s.writeJSON(eventsFileName, f)
}

// LoadLastSlip reads the last-slip instant from settings.json.
func (s *Store) LoadLastSlip() (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return time.Time{}, false, err
	}
	if settings.LastSlipAtMS == nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(*settings.LastSlipAtMS), true, nil
}

// SaveLastSlip updates the last-slip field of settings.json, preserving
// the stored limit.
func (s *Store) SaveLastSlip(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateSettings(func(settings *settingsFile) {
		ms := at.UnixMilli()
		settings.LastSlipAtMS = &ms
	})
}

// LoadUndo reads the undo reference from settings.json.
func (s *Store) LoadUndo() (storage.UndoRef, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return storage.UndoRef{}, false, err
	}
	if settings.UndoID == nil && settings.UndoAtMS == nil {
		return storage.UndoRef{}, false, nil
	}
	if settings.UndoID == nil || settings.UndoAtMS == nil {
		return storage.UndoRef{}, false, fmt.Errorf(
			"parse %s: half-written undo reference", settingsFileName)
	}
	return storage.UndoRef{
		ID: *settings.UndoID,
		At: time.UnixMilli(*settings.UndoAtMS),
	}, true, nil
}

// SaveUndo updates both undo fields of settings.json together.
func (s *Store) SaveUndo(ref storage.UndoRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateSettings(func(settings *settingsFile) {
		id := ref.ID
		ms := ref.At.UnixMilli()
		settings.UndoID = &id
		settings.UndoAtMS = &ms
	})
}

// LoadLimit reads the daily limit from settings.json.
func (s *Store) LoadLimit() (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return 0, false, err
	}
	if settings.DailyLimit == nil {
		return 0, false, nil
	}
	return *settings.DailyLimit, true, nil
}

// SaveLimit updates the limit field of settings.json, preserving the
// stored last-slip instant.
func (s *Store) SaveLimit(limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateSettings(func(settings *settingsFile) {
		settings.DailyLimit = &limit
	})
}

// Clear removes the named records. Events clear by deleting events.json;
// settings fields clear individually so the other one survives.
func (s *Store) Clear(keys ...storage.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clearLast, clearUndo, clearLimit bool
	for _, k := range keys {
		switch k {
		case storage.KeyEvents:
			path := filepath.Join(s.dir, eventsFileName)
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("clear events: %w", err)
			}
		case storage.KeyLastSlip:
			clearLast = true
		case storage.KeyUndo:
			clearUndo = true
		case storage.KeyLimit:
			clearLimit = true
		}
	}

	if !clearLast && !clearUndo && !clearLimit {
		return nil
	}
	return s.updateSettings(func(settings *settingsFile) {
		if clearLast {
			settings.LastSlipAtMS = nil
		}
		if clearUndo {
			settings.UndoID = nil
			settings.UndoAtMS = nil
		}
		if clearLimit {
			settings.DailyLimit = nil
		}
	})
}

func (s *Store) Close() error {
	return nil
}

// loadSettings reads settings.json; a missing file is an empty record.
func (s *Store) loadSettings() (settingsFile, error) {
	path := filepath.Join(s.dir, settingsFileName)
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settingsFile{}, nil
	}
	if err != nil {
		return settingsFile{}, fmt.Errorf("read %s: %w", settingsFileName, err)
	}

	var settings settingsFile
	if err := json.Unmarshal(content, &settings); err != nil {
		return settingsFile{}, fmt.Errorf("parse %s: %w", settingsFileName, err)
	}
	return settings, nil
}

// updateSettings read-modify-writes settings.json. A corrupt existing
// file is replaced rather than propagated: saves must stay available so
// the journal can re-establish a good snapshot.
func (s *Store) updateSettings(mutate func(*settingsFile)) error {
	settings, err := s.loadSettings()
	if err != nil {
		settings = settingsFile{}
	}
	mutate(&settings)
	return s.writeJSON(settingsFileName, settings)
}

// writeJSON writes v to name atomically via a temp file and rename.
func (s *Store) writeJSON(name string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("swap %s: %w", name, err)
	}
	return nil
}
