// Package storagetest runs a conformance suite against storage.Store
// implementations. Each backend's own tests call Run with a factory.
package storagetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipline-dev/slipline/internal/event"
	"github.com/slipline-dev/slipline/internal/storage"
)

// Run exercises the storage.Store contract against stores produced by
// open. open is called once per subtest and may use t for cleanup.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("EmptyLoads", func(t *testing.T) {
		s := open(t)

		events, err := s.LoadEvents()
		require.NoError(t, err)
		assert.Empty(t, events)

		_, ok, err := s.LoadLastSlip()
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.LoadUndo()
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.LoadLimit()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("EventsRoundTrip", func(t *testing.T) {
		s := open(t)

		in := []event.Slip{
			{ID: "a", At: time.UnixMilli(1742470200000), Source: event.SourceManual},
			{ID: "b", At: time.UnixMilli(1742470260500), Source: event.SourceManual},
			{ID: "c", At: time.UnixMilli(1742383800000), Source: event.SourceRestore},
		}
		require.NoError(t, s.SaveEvents(in))

		out, err := s.LoadEvents()
		require.NoError(t, err)
		require.Len(t, out, 3)
		for i := range in {
			assert.Equal(t, in[i].ID, out[i].ID, "stored order must survive")
			assert.Equal(t, in[i].Source, out[i].Source)
			assert.True(t, in[i].At.Equal(out[i].At),
				"instant %d: want %v, got %v", i, in[i].At, out[i].At)
		}
	})

	t.Run("SaveEventsReplaces", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.SaveEvents([]event.Slip{
			{ID: "a", At: time.UnixMilli(1000), Source: event.SourceManual},
			{ID: "b", At: time.UnixMilli(2000), Source: event.SourceManual},
		}))
		require.NoError(t, s.SaveEvents([]event.Slip{
			{ID: "c", At: time.UnixMilli(3000), Source: event.SourceManual},
		}))

		out, err := s.LoadEvents()
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "c", out[0].ID)
	})

	t.Run("SaveEmptyEvents", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.SaveEvents([]event.Slip{
			{ID: "a", At: time.UnixMilli(1000), Source: event.SourceManual},
		}))
		require.NoError(t, s.SaveEvents(nil))

		out, err := s.LoadEvents()
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("LastSlipRoundTrip", func(t *testing.T) {
		s := open(t)

		at := time.UnixMilli(1742470200000)
		require.NoError(t, s.SaveLastSlip(at))

		got, ok, err := s.LoadLastSlip()
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, at.Equal(got))

		// Overwrite wins.
		later := at.Add(90 * time.Second)
		require.NoError(t, s.SaveLastSlip(later))
		got, ok, err = s.LoadLastSlip()
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, later.Equal(got))
	})

	t.Run("UndoRoundTrip", func(t *testing.T) {
		s := open(t)

		ref := storage.UndoRef{ID: "slip-1", At: time.UnixMilli(1742470200000)}
		require.NoError(t, s.SaveUndo(ref))

		got, ok, err := s.LoadUndo()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ref.ID, got.ID)
		assert.True(t, ref.At.Equal(got.At))

		// Overwrite wins.
		next := storage.UndoRef{ID: "slip-2", At: ref.At.Add(time.Minute)}
		require.NoError(t, s.SaveUndo(next))
		got, ok, err = s.LoadUndo()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "slip-2", got.ID)
		assert.True(t, next.At.Equal(got.At))
	})

	t.Run("LimitRoundTrip", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.SaveLimit(5))
		limit, ok, err := s.LoadLimit()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 5, limit)

		require.NoError(t, s.SaveLimit(1))
		limit, ok, err = s.LoadLimit()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, limit)
	})

	t.Run("ClearSelective", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.SaveEvents([]event.Slip{
			{ID: "a", At: time.UnixMilli(1000), Source: event.SourceManual},
		}))
		require.NoError(t, s.SaveLastSlip(time.UnixMilli(1000)))
		require.NoError(t, s.SaveUndo(storage.UndoRef{ID: "a", At: time.UnixMilli(1000)}))
		require.NoError(t, s.SaveLimit(4))

		require.NoError(t, s.Clear(storage.KeyEvents, storage.KeyLastSlip, storage.KeyUndo))

		events, err := s.LoadEvents()
		require.NoError(t, err)
		assert.Empty(t, events)

		_, ok, err := s.LoadLastSlip()
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.LoadUndo()
		require.NoError(t, err)
		assert.False(t, ok)

		limit, ok, err := s.LoadLimit()
		require.NoError(t, err)
		require.True(t, ok, "limit must survive a clear that does not name it")
		assert.Equal(t, 4, limit)
	})

	t.Run("ClearAbsentIsNoop", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.Clear(storage.KeyEvents, storage.KeyLastSlip,
			storage.KeyUndo, storage.KeyLimit))
	})
}
