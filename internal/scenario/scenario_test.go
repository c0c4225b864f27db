package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidScenario(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "full.yaml", `
name: full
description: Exercises every fixture field.
now: 2025-03-20T21:00:00Z
timezone: America/New_York
limit: 2
range: 14
events:
  - at: 2025-03-18T09:30:00Z
  - ago: 26h
    source: manual
  - at: 2025-03-19T11:05:00Z
    source: undo-restore
expect:
  current_streak: 1
  total_slips: 3
`)

	s, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, "full", s.Name)
	assert.Equal(t, "Exercises every fixture field.", s.Description)
	assert.Equal(t, time.Date(2025, 3, 20, 21, 0, 0, 0, time.UTC), s.Now.UTC())
	assert.Equal(t, "America/New_York", s.Timezone)
	assert.Equal(t, 2, s.Limit)
	assert.Equal(t, 14, s.Range)

	require.Len(t, s.Events, 3)
	assert.Equal(t, "26h", s.Events[1].Ago)
	assert.Equal(t, "undo-restore", s.Events[2].Source)

	require.NotNil(t, s.Expect)
	require.NotNil(t, s.Expect.CurrentStreak)
	assert.Equal(t, 1, *s.Expect.CurrentStreak)
	require.NotNil(t, s.Expect.TotalSlips)
	assert.Equal(t, 3, *s.Expect.TotalSlips)
	assert.Nil(t, s.Expect.BestStreak)
	assert.Nil(t, s.Expect.TodayCount)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "minimal.yaml", `
name: minimal
description: Only the required fields.
now: 2025-03-20T12:00:00Z
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, s.Events)
	assert.Nil(t, s.Expect)

	loc, err := s.location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
	assert.Equal(t, 7, s.rangeDays())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "broken.yaml", "name: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse broken.yaml")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	// "event:" instead of "events:" must fail loudly, not silently
	// load an empty history.
	path := writeFixture(t, t.TempDir(), "typo.yaml", `
name: typo
description: Misspelled events key.
now: 2025-03-20T12:00:00Z
event:
  - at: 2025-03-19T09:00:00Z
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field event not found")
}

func TestLoad_ValidationErrors(t *testing.T) {
	now := "2025-03-20T12:00:00Z"

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing_name",
			yaml:    "description: d\nnow: " + now + "\n",
			wantErr: "name is required",
		},
		{
			name:    "missing_description",
			yaml:    "name: n\nnow: " + now + "\n",
			wantErr: "description is required",
		},
		{
			name:    "missing_now",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "now is required",
		},
		{
			name:    "limit_too_high",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nlimit: 100\n",
			wantErr: "limit must be between 1 and 99",
		},
		{
			name:    "range_too_high",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nrange: 366\n",
			wantErr: "range must be between 1 and 365",
		},
		{
			name:    "unknown_timezone",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\ntimezone: Mars/Olympus\n",
			wantErr: "timezone",
		},
		{
			name:    "event_without_instant",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nevents:\n  - source: manual\n",
			wantErr: "events[0]: exactly one of at and ago is required",
		},
		{
			name:    "event_with_both_instants",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nevents:\n  - at: 2025-03-19T09:00:00Z\n    ago: 2h\n",
			wantErr: "events[0]: exactly one of at and ago is required",
		},
		{
			name:    "bad_ago_duration",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nevents:\n  - at: 2025-03-19T09:00:00Z\n  - ago: yesterday\n",
			wantErr: "events[1]: ago",
		},
		{
			name:    "negative_ago",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nevents:\n  - ago: -2h\n",
			wantErr: "events[0]: ago must be a positive duration",
		},
		{
			name:    "event_after_now",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nevents:\n  - at: 2025-03-21T09:00:00Z\n",
			wantErr: "events[0]: instant is after now",
		},
		{
			name:    "unknown_source",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nevents:\n  - at: 2025-03-19T09:00:00Z\n    source: robot\n",
			wantErr: `events[0]: unknown source "robot"`,
		},
		{
			name:    "negative_expect",
			yaml:    "name: n\ndescription: d\nnow: " + now + "\nexpect:\n  total_slips: -1\n",
			wantErr: "expect: total_slips must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, t.TempDir(), tt.name+".yaml", tt.yaml)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "invalid scenario "+tt.name+".yaml")
		})
	}
}

func TestEvent_Resolve(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

	abs := Event{At: time.Date(2025, 3, 19, 9, 30, 0, 0, time.UTC)}
	at, err := abs.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, abs.At, at)

	rel := Event{Ago: "2h30m"}
	at, err = rel.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC), at)

	bad := Event{Ago: "soon"}
	_, err = bad.resolve(now)
	require.Error(t, err)
}

func TestLoadDir_SortedByFileName(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "b_second.yaml", `
name: second
description: Loaded after the first.
now: 2025-03-20T12:00:00Z
`)
	writeFixture(t, dir, "a_first.yaml", `
name: first
description: Loaded before the second.
now: 2025-03-20T12:00:00Z
`)
	writeFixture(t, dir, "notes.txt", "not a fixture")

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadDir_EmptyDir(t *testing.T) {
	scenarios, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}

func TestLoadDir_PropagatesLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "bad.yaml", "name: only-a-name\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
