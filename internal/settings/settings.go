// Package settings owns the daily limit: the inclusive ceiling on
// acceptable slips per calendar day.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slipline-dev/slipline/internal/storage"
)

// Limit bounds. The default applies until the user picks a value, and
// whenever the persisted value is unreadable.
const (
	MinLimit     = 1
	MaxLimit     = 99
	DefaultLimit = 3
)

// LimitError is returned when a requested limit falls outside 1-99.
type LimitError struct {
	Value int
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("daily limit %d out of range %d-%d", e.Value, MinLimit, MaxLimit)
}

// IsLimitError returns true if the error is a LimitError.
// Uses errors.As to handle wrapped errors.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}

// Settings holds the live limit value backed by the storage collaborator.
//
// Thread-safety: Limit and SetLimit are safe for concurrent use.
type Settings struct {
	mu     sync.RWMutex
	limit  int
	store  storage.Store
	logger *slog.Logger
}

// Option configures Settings.
type Option func(*Settings)

// WithLogger sets the logger for load fault reports.
func WithLogger(l *slog.Logger) Option {
	return func(s *Settings) { s.logger = l }
}

// New loads the persisted limit from st. A missing record, a load
// fault, or a stored value outside 1-99 all degrade to the default with
// a warning; limits stay usable even when storage is not.
func New(st storage.Store, opts ...Option) *Settings {
	s := &Settings{
		limit:  DefaultLimit,
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	limit, ok, err := st.LoadLimit()
	switch {
	case err != nil:
		s.logger.Warn("could not load daily limit, using default",
			"default", DefaultLimit, "error", err)
	case ok && (limit < MinLimit || limit > MaxLimit):
		s.logger.Warn("stored daily limit out of range, using default",
			"stored", limit, "default", DefaultLimit)
	case ok:
		s.limit = limit
	}
	return s
}

// Limit returns the current daily limit, always within 1-99.
func (s *Settings) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit
}

// SetLimit validates and applies a new limit, then writes it through.
//
// A value outside 1-99 returns a LimitError and changes nothing. A
// persistence failure is returned after the in-memory value has already
// been applied; the new limit governs this process either way.
func (s *Settings) SetLimit(limit int) error {
	if limit < MinLimit || limit > MaxLimit {
		return &LimitError{Value: limit}
	}

	s.mu.Lock()
	s.limit = limit
	s.mu.Unlock()

	if err := s.store.SaveLimit(limit); err != nil {
		return fmt.Errorf("persist daily limit: %w", err)
	}
	return nil
}
