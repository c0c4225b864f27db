// Package sqlite implements the storage contract on a local SQLite file.
// This is the default backend for the CLI.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on slips.at_ms
const currentSchemaVersion = 1

// Meta table keys for the scalar records. The undo reference spans two
// rows that are always written and cleared together.
const (
	metaLastSlip = "last_slip_at_ms"
	metaUndoID   = "undo_id"
	metaUndoAt   = "undo_at_ms"
	metaLimit    = "daily_limit"
)

// Store persists slips and settings in a SQLite database.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadEvents returns all persisted slips in collection order.
func (s *Store) LoadEvents() ([]event.Slip, error) {
	rows, err := s.db.Query(`SELECT id, at_ms, source FROM slips ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []event.Slip
	for rows.Next() {
		var (
			id     string
			atMS   int64
			source string
		)
		if err := rows.Scan(&id, &atMS, &source); err != nil {
			return nil, fmt.Errorf("load events: scan: %w", err)
		}
		events = append(events, event.Slip{
			ID:     id,
			At:     time.UnixMilli(atMS),
			Source: event.Source(source),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return events, nil
}

// SaveEvents replaces the stored collection in a single transaction, so a
// reader never observes a half-written collection.
func (s *Store) SaveEvents(events []event.Slip) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save events: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM slips`); err != nil {
		return fmt.Errorf("save events: clear: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO slips (id, at_ms, source) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(e.ID, e.At.UnixMilli(), string(e.Source)); err != nil {
			return fmt.Errorf("save events: insert %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save events: commit: %w", err)
	}
	return nil
}

// LoadLastSlip returns the stored last-slip instant, if any.
func (s *Store) LoadLastSlip() (time.Time, bool, error) {
	ms, ok, err := s.loadMetaInt(metaLastSlip)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}

// SaveLastSlip upserts the last-slip instant as epoch milliseconds.
func (s *Store) SaveLastSlip(at time.Time) error {
	return s.saveMeta(metaLastSlip, strconv.FormatInt(at.UnixMilli(), 10))
}

// LoadUndo returns the stored undo reference, if any. An id row without
// a matching instant row is corrupt and surfaces as an error.
func (s *Store) LoadUndo() (storage.UndoRef, bool, error) {
	id, ok, err := s.loadMetaString(metaUndoID)
	if err != nil || !ok {
		return storage.UndoRef{}, false, err
	}
	ms, ok, err := s.loadMetaInt(metaUndoAt)
	if err != nil {
		return storage.UndoRef{}, false, err
	}
	if !ok {
		return storage.UndoRef{}, false, fmt.Errorf("load undo: %s present without %s", metaUndoID, metaUndoAt)
	}
	return storage.UndoRef{ID: id, At: time.UnixMilli(ms)}, true, nil
}

// SaveUndo upserts both undo rows in one transaction.
func (s *Store) SaveUndo(ref storage.UndoRef) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save undo: begin: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := tx.Exec(upsert, metaUndoID, ref.ID); err != nil {
		return fmt.Errorf("save undo: %w", err)
	}
	if _, err := tx.Exec(upsert, metaUndoAt, strconv.FormatInt(ref.At.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("save undo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save undo: commit: %w", err)
	}
	return nil
}

// LoadLimit returns the stored daily limit, if any.
func (s *Store) LoadLimit() (int, bool, error) {
	n, ok, err := s.loadMetaInt(metaLimit)
	return int(n), ok, err
}

// SaveLimit upserts the daily limit.
func (s *Store) SaveLimit(limit int) error {
	return s.saveMeta(metaLimit, strconv.Itoa(limit))
}

// Clear removes the named records. Unknown keys are ignored.
func (s *Store) Clear(keys ...storage.Key) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("clear: begin: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		switch k {
		case storage.KeyEvents:
			if _, err := tx.Exec(`DELETE FROM slips`); err != nil {
				return fmt.Errorf("clear events: %w", err)
			}
		case storage.KeyLastSlip:
			if _, err := tx.Exec(`DELETE FROM meta WHERE key = ?`, metaLastSlip); err != nil {
				return fmt.Errorf("clear last slip: %w", err)
			}
		case storage.KeyUndo:
			if _, err := tx.Exec(`DELETE FROM meta WHERE key IN (?, ?)`, metaUndoID, metaUndoAt); err != nil {
				return fmt.Errorf("clear undo: %w", err)
			}
		case storage.KeyLimit:
			if _, err := tx.Exec(`DELETE FROM meta WHERE key = ?`, metaLimit); err != nil {
				return fmt.Errorf("clear limit: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear: commit: %w", err)
	}
	return nil
}

func (s *Store) loadMetaString(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) loadMetaInt(key string) (int64, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load %s: %w", key, err)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("load %s: corrupt value %q: %w", key, value, err)
	}
	return n, true, nil
}

func (s *Store) saveMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the at_ms index for databases created before it was in
// schema.sql. CREATE INDEX IF NOT EXISTS makes this a no-op on new files.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_slips_at ON slips(at_ms)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
