package chairs

import (
	"testing"

	"github.com/seat-planner/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noticeLog struct{ notices []models.Notice }

func (n *noticeLog) Notify(notice models.Notice) { n.notices = append(n.notices, notice) }

func newDesk(t *testing.T, limit int) (*Desk, *noticeLog) {
	t.Helper()
	r := NewRegistry(0, nil)
	r.GenerateForTable("t1", 4, 50)
	log := &noticeLog{}
	return NewDesk(r, limit, log, nil), log
}

func TestDesk_StatusPriority(t *testing.T) {
	d, _ := newDesk(t, 0)
	reserved := models.StatusReserved
	selected := models.StatusSelected
	d.registry.Update("t1-chair-0", models.ChairPatch{ReservationStatus: &reserved})
	d.registry.Update("t1-chair-1", models.ChairPatch{ReservationStatus: &selected})
	d.SetPreReserved([]string{"t1-chair-0", "t1-chair-1"})

	s, _ := d.Status("t1-chair-0")
	assert.Equal(t, models.StatusPreReserved, s, "pre-reserved beats reserved")
	s, _ = d.Status("t1-chair-1")
	assert.Equal(t, models.StatusPreReserved, s, "pre-reserved beats selected")

	d.SetPreReserved(nil)
	s, _ = d.Status("t1-chair-0")
	assert.Equal(t, models.StatusReserved, s)
	s, _ = d.Status("t1-chair-1")
	assert.Equal(t, models.StatusSelected, s)
	s, _ = d.Status("t1-chair-2")
	assert.Equal(t, models.StatusFree, s)

	_, ok := d.Status("missing")
	assert.False(t, ok)

	stored, _ := d.registry.Get("t1-chair-0")
	assert.Equal(t, models.StatusReserved, stored.ReservationStatus, "derived status never stored")
}

func TestDesk_Toggle(t *testing.T) {
	d, log := newDesk(t, 2)
	d.SetPreReserved([]string{"t1-chair-3"})

	s, ok := d.Toggle("t1-chair-0")
	assert.True(t, ok)
	assert.Equal(t, models.StatusSelected, s)

	s, ok = d.Toggle("t1-chair-0")
	assert.True(t, ok)
	assert.Equal(t, models.StatusFree, s)

	_, ok = d.Toggle("t1-chair-3")
	assert.False(t, ok)
	require.Len(t, log.notices, 1)
	assert.Equal(t, "t1-chair-3", log.notices[0].ChairID)

	d.Toggle("t1-chair-0")
	d.Toggle("t1-chair-1")
	s, ok = d.Toggle("t1-chair-2")
	assert.False(t, ok, "limit reached")
	assert.Equal(t, models.StatusFree, s)
	assert.Len(t, log.notices, 2)
	assert.Len(t, d.Selected(), 2)

	_, ok = d.Toggle("missing")
	assert.False(t, ok)
}

func TestDesk_ReserveSelected(t *testing.T) {
	d, log := newDesk(t, 0)
	d.Toggle("t1-chair-1")
	d.Toggle("t1-chair-2")

	reserved := d.ReserveSelected("alice")
	require.Len(t, reserved, 2)
	for _, c := range reserved {
		assert.Equal(t, models.StatusReserved, c.ReservationStatus)
		assert.Equal(t, "alice", c.ReservedBy)
	}
	assert.Empty(t, d.Selected())

	_, ok := d.Toggle("t1-chair-1")
	assert.False(t, ok, "reserved seats cannot be toggled")
	assert.Len(t, log.notices, 1)
}
