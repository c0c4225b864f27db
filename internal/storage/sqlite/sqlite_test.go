package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/storage"
	"github.com/slipline-dev/slipline/internal/storage/storagetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slipline.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return openTestStore(t)
	})
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slipline.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slipline.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"slips", "meta"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/slipline.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := openTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := openTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := openTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := openTestStore(t)
	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slipline.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Insertion order intentionally disagrees with timestamp order, the
	// way a restored slip lands at the end of the collection.
	in := []event.Slip{
		{ID: "b", At: time.UnixMilli(2000), Source: event.SourceManual},
		{ID: "a", At: time.UnixMilli(1000), Source: event.SourceRestore},
	}
	if err := s1.SaveEvents(in); err != nil {
		t.Fatalf("SaveEvents() failed: %v", err)
	}
	if err := s1.SaveLastSlip(time.UnixMilli(2000)); err != nil {
		t.Fatalf("SaveLastSlip() failed: %v", err)
	}
	if err := s1.SaveLimit(7); err != nil {
		t.Fatalf("SaveLimit() failed: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	events, err := s2.LoadEvents()
	if err != nil {
		t.Fatalf("LoadEvents() failed: %v", err)
	}
	if len(events) != 2 || events[0].ID != "b" || events[1].ID != "a" {
		t.Errorf("collection order not preserved across reopen: %+v", events)
	}
	if events[1].Source != event.SourceRestore {
		t.Errorf("source tag lost: %q", events[1].Source)
	}

	last, ok, err := s2.LoadLastSlip()
	if err != nil || !ok {
		t.Fatalf("LoadLastSlip() = %v, %v, %v", last, ok, err)
	}
	if last.UnixMilli() != 2000 {
		t.Errorf("last slip = %d ms, want 2000", last.UnixMilli())
	}

	limit, ok, err := s2.LoadLimit()
	if err != nil || !ok || limit != 7 {
		t.Errorf("LoadLimit() = %d, %v, %v, want 7, true, nil", limit, ok, err)
	}
}

func TestSaveEvents_TruncatesToMillis(t *testing.T) {
	s := openTestStore(t)

	at := time.UnixMilli(1742470200123).Add(456 * time.Microsecond)
	if err := s.SaveEvents([]event.Slip{{ID: "a", At: at, Source: event.SourceManual}}); err != nil {
		t.Fatalf("SaveEvents() failed: %v", err)
	}

	events, err := s.LoadEvents()
	if err != nil {
		t.Fatalf("LoadEvents() failed: %v", err)
	}
	if got := events[0].At.UnixMilli(); got != 1742470200123 {
		t.Errorf("at = %d ms, want 1742470200123", got)
	}
}

func TestLoadLimit_CorruptValue(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)`, metaLimit, "three",
	); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	_, _, err := s.LoadLimit()
	if err == nil {
		t.Error("expected error for corrupt limit value, got nil")
	}
}

func TestLoadUndo_HalfWrittenReference(t *testing.T) {
	s := openTestStore(t)

	// An id row without its instant row violates the both-or-neither
	// invariant and must surface as corruption, not as absent.
	if _, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)`, metaUndoID, "slip-1",
	); err != nil {
		t.Fatalf("seed undo id: %v", err)
	}

	_, _, err := s.LoadUndo()
	if err == nil {
		t.Error("expected error for half-written undo reference, got nil")
	}
}

func TestUndo_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slipline.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ref := storage.UndoRef{ID: "slip-1", At: time.UnixMilli(1742470200000)}
	if err := s.SaveUndo(ref); err != nil {
		t.Fatalf("SaveUndo() failed: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, ok, err := s2.LoadUndo()
	if err != nil {
		t.Fatalf("LoadUndo() failed: %v", err)
	}
	if !ok {
		t.Fatal("undo reference did not survive reopen")
	}
	if got.ID != "slip-1" || !got.At.Equal(ref.At) {
		t.Errorf("LoadUndo() = %+v, want %+v", got, ref)
	}
}

func TestMigration_FromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slipline.db")

	// Build a pre-migration database by hand: slips table without the
	// at_ms index, user_version left at 0.
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("raw open failed: %v", err)
	}
	_, err = raw.Exec(`
		CREATE TABLE slips (id TEXT PRIMARY KEY, at_ms INTEGER NOT NULL, source TEXT NOT NULL);
		CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		INSERT INTO slips (id, at_ms, source) VALUES ('old', 1000, 'manual');
	`)
	if err != nil {
		t.Fatalf("seed v0 schema: %v", err)
	}
	raw.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() on v0 database failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_slips_at'",
	).Scan(&name)
	if err != nil {
		t.Errorf("idx_slips_at not created by migration: %v", err)
	}

	events, err := s.LoadEvents()
	if err != nil {
		t.Fatalf("LoadEvents() after migration failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != "old" {
		t.Errorf("pre-migration data lost: %+v", events)
	}
}
