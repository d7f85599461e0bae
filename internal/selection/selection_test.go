package selection

import (
	"testing"

	"github.com/seat-planner/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectElementClearsChair(t *testing.T) {
	s := New()
	s.SelectChair("t1-chair-0")
	require.True(t, s.IsSelected("t1-chair-0"))

	s.SelectElement("t1", models.TypeRoundTable)
	assert.True(t, s.IsSelected("t1"))
	assert.False(t, s.IsSelected("t1-chair-0"))

	el, ok := s.Element()
	require.True(t, ok)
	assert.Equal(t, models.SelectableElement, el.Kind)
	assert.Equal(t, "roundTable", el.Type)
}

func TestSelectChairKeepsElement(t *testing.T) {
	s := New()
	s.SelectElement("t1", models.TypeRoundTable)
	s.SelectChair("t1-chair-2")

	assert.True(t, s.IsSelected("t1"))
	c, ok := s.Chair()
	require.True(t, ok)
	assert.Equal(t, "t1-chair-2", c.ID)
}

func TestRequestDelete(t *testing.T) {
	s := New()
	var got []string
	s.OnDelete(func(item models.Selectable) { got = append(got, "a:"+item.ID) })
	remove := s.OnDelete(func(item models.Selectable) { got = append(got, "b:"+item.ID) })

	assert.False(t, s.RequestDelete(), "nothing selected")
	assert.Empty(t, got)

	s.SelectElement("t1", models.TypeRoundTable)
	assert.True(t, s.RequestDelete())
	assert.Equal(t, []string{"a:t1", "b:t1"}, got, "each handler once, in order")
	_, ok := s.Element()
	assert.False(t, ok, "selection cleared after delete")

	remove()
	s.SelectChair("c1")
	s.RequestDelete()
	assert.Equal(t, []string{"a:t1", "b:t1", "a:c1"}, got)
}

func TestOnChange(t *testing.T) {
	s := New()
	calls := 0
	s.OnChange(func() { calls++ })

	s.SelectElement("a", models.TypeLine)
	s.ClearChair() // no chair, no notification
	s.Clear()
	s.Clear()
	assert.Equal(t, 2, calls)
}
