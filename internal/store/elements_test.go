package store

import (
	"testing"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTable(id string, x, y float64) *models.Element {
	return &models.Element{ID: id, X: x, Y: y, Shape: &models.RoundTable{Radius: 50, Seats: 8}}
}

func TestElementStore_Add(t *testing.T) {
	t.Run("applies defaults without touching the input", func(t *testing.T) {
		s := NewElementStore()
		in := roundTable("t1", 0, 0)

		stored, err := s.Add(in)
		require.NoError(t, err)

		rt := stored.Shape.(*models.RoundTable)
		require.NotNil(t, rt.ShowLabel)
		assert.True(t, *rt.ShowLabel)
		assert.Nil(t, in.Shape.(*models.RoundTable).ShowLabel, "caller's object untouched")
		assert.NotSame(t, in, stored)
	})

	t.Run("assigns an id when empty", func(t *testing.T) {
		s := NewElementStore()
		stored, err := s.Add(&models.Element{Shape: &models.Line{}})
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
		assert.Equal(t, models.DefaultLineThickness, stored.Shape.(*models.Line).Thickness)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		s := NewElementStore()
		_, err := s.Add(roundTable("t1", 0, 0))
		require.NoError(t, err)
		_, err = s.Add(roundTable("t1", 5, 5))
		assert.ErrorIs(t, err, ErrDuplicateID)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("rejects shapeless elements", func(t *testing.T) {
		_, err := NewElementStore().Add(&models.Element{ID: "x"})
		assert.Error(t, err)
	})
}

func TestElementStore_UpdateProducesNewIdentity(t *testing.T) {
	s := NewElementStore()
	first, _ := s.Add(roundTable("t1", 0, 0))

	same, ok := s.Update("t1", nil)
	require.True(t, ok)
	assert.NotSame(t, first, same, "new reference even when unchanged")
	assert.Equal(t, first, same)

	moved, ok := s.Update("t1", func(e *models.Element) {
		e.X = 42
		e.ID = "renamed"
	})
	require.True(t, ok)
	assert.Equal(t, 42.0, moved.X)
	assert.Equal(t, "t1", moved.ID, "id is not mutable")
	assert.Equal(t, 0.0, first.X, "previous value untouched")

	_, ok = s.Update("missing", func(e *models.Element) { e.X = 1 })
	assert.False(t, ok)
}

func TestElementStore_DeleteAndSwap(t *testing.T) {
	s := NewElementStore()
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Add(roundTable(id, 0, 0))
		require.NoError(t, err)
	}

	assert.True(t, s.Swap(0, 2))
	assert.Equal(t, []string{"c", "b", "a"}, ids(s.All()))
	assert.False(t, s.Swap(0, 3))

	assert.True(t, s.Delete("b"))
	assert.False(t, s.Delete("b"))
	assert.Equal(t, []string{"c", "a"}, ids(s.All()))

	_, err := s.Insert(1, roundTable("b", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(s.All()))
	assert.Equal(t, 1, s.IndexOf("b"))
	assert.Equal(t, -1, s.IndexOf("zzz"))
}

func TestElementStore_Queries(t *testing.T) {
	s := NewElementStore()
	_, _ = s.Add(roundTable("t1", 10, 10))
	_, _ = s.Add(roundTable("t2", 500, 500))
	_, _ = s.Add(&models.Element{ID: "l1", Shape: &models.Line{StartX: -100, StartY: -100, EndX: 20, EndY: 20}})
	_, _ = s.Add(&models.Element{ID: "p1", Shape: &models.Polygon{Points: []geometry.Point{{X: 300, Y: 300}, {X: 50, Y: 50}}}})
	_, _ = s.Add(&models.Element{ID: "p2", X: 10, Y: 10, Shape: &models.Polygon{}})

	got := s.InRect(geometry.Rect{X: 0, Y: 0, Width: 60, Height: 60})
	assert.Equal(t, []string{"t1", "l1", "p1"}, ids(got), "empty polygon never matches")

	assert.Equal(t, []string{"t1", "t2"}, ids(s.ByType(models.TypeRoundTable)))

	e, ok := s.Get("l1")
	require.True(t, ok)
	assert.Equal(t, models.TypeLine, e.Type())
	_, ok = s.Get("nope")
	assert.False(t, ok)
}

func TestElementStore_Subscribe(t *testing.T) {
	s := NewElementStore()
	var kinds []ChangeKind
	unsubscribe := s.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	_, _ = s.Add(roundTable("a", 0, 0))
	_, _ = s.Add(roundTable("b", 0, 0))
	s.Update("a", nil)
	s.Swap(0, 1)
	s.Delete("a")
	s.Delete("missing")
	unsubscribe()
	s.Clear()

	assert.Equal(t, []ChangeKind{ChangeAdded, ChangeAdded, ChangeUpdated, ChangeReordered, ChangeDeleted}, kinds)
}

func ids(els []*models.Element) []string {
	out := make([]string, len(els))
	for i, e := range els {
		out[i] = e.ID
	}
	return out
}
