package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slipline-dev/slipline/internal/config"
	"github.com/slipline-dev/slipline/internal/journal"
	"github.com/slipline-dev/slipline/internal/settings"
	"github.com/slipline-dev/slipline/internal/storage"
	"github.com/slipline-dev/slipline/internal/storage/jsonfile"
	"github.com/slipline-dev/slipline/internal/storage/sqlite"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// sqliteFileName is the database file inside the data directory.
const sqliteFileName = "slipline.db"

// App bundles the open collaborators one command invocation works with.
type App struct {
	Config   config.Config
	Store    storage.Store
	Journal  *journal.Journal
	Settings *settings.Settings
	Tracker  *tracker.Tracker
	Location *time.Location

	closed bool
}

// openApp opens the configured storage backend and builds the journal,
// settings, and tracker over it. Callers must Close.
func openApp(opts *RootOptions) (*App, error) {
	st, err := openStore(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	return newApp(opts.Config, st)
}

// newApp builds the collaborator stack over an already-open store.
// serve --ephemeral passes an in-memory store here.
func newApp(cfg config.Config, st storage.Store) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to resolve timezone", err)
	}

	j := journal.New(st)
	s := settings.New(st)
	t := tracker.New(j, s, tracker.WithLocation(loc))

	return &App{
		Config:   cfg,
		Store:    st,
		Journal:  j,
		Settings: s,
		Tracker:  t,
		Location: loc,
	}, nil
}

// openStore opens the backend named by the config, creating the data
// directory if needed.
func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case config.StorageJSON:
		return jsonfile.Open(cfg.DataDir)
	case config.StorageSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return sqlite.Open(filepath.Join(cfg.DataDir, sqliteFileName))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// Close flushes the journal and closes the store. Mutating commands
// call it before rendering so a confirmed slip is a durable slip; the
// second call from their defer is a no-op.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	flushErr := a.Journal.Close()
	closeErr := a.Store.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
