package editor

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/parser"
	"github.com/seat-planner/backend/internal/segment"
	"github.com/seat-planner/backend/internal/store"
	"github.com/seat-planner/backend/internal/testutil"
	"github.com/seat-planner/backend/internal/tools"
	"github.com/seat-planner/backend/internal/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEditor(t *testing.T) (*Editor, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return New(DefaultSettings(), WithClock(clock)), clock
}

func roundTable(id string, x, y float64, seats int) *models.Element {
	return &models.Element{ID: id, X: x, Y: y, Shape: &models.RoundTable{Radius: 50, Seats: seats}}
}

func TestAddElement_GeneratesChairsAndUndoes(t *testing.T) {
	e, _ := newTestEditor(t)

	el, err := e.AddElement(roundTable("t1", 100, 100, 6))
	require.NoError(t, err)
	assert.Equal(t, "t1", el.ID)
	assert.Len(t, e.Chairs().ForTable("t1"), 6)

	_, err = e.AddElement(roundTable("t1", 0, 0, 2))
	assert.ErrorIs(t, err, store.ErrDuplicateID)

	require.True(t, e.Undo())
	assert.Equal(t, 0, e.Elements().Len())
	assert.Equal(t, 0, e.Chairs().Len())

	require.True(t, e.Redo())
	assert.Equal(t, 1, e.Elements().Len())
	assert.Len(t, e.Chairs().ForTable("t1"), 6)
}

func TestUpdateElement_RegeneratesChairs(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)

	updated, err := e.UpdateElement("t1", map[string]json.RawMessage{"seats": json.RawMessage(`10`)})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Shape.(*models.RoundTable).Seats)
	assert.Len(t, e.Chairs().ForTable("t1"), 10)

	require.True(t, e.Undo())
	assert.Len(t, e.Chairs().ForTable("t1"), 4)

	_, err = e.UpdateElement("missing", nil)
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func twoSegmentRow(t *testing.T, e *Editor) {
	t.Helper()
	seg0 := segment.CreateSegment("r1", 0, 0, 0, 70, 0, 35)
	start := segment.NextSegmentStart(seg0)
	seg1 := segment.CreateSegment("r1", 1, start.X, start.Y, start.X+70, 0, 35)
	_, err := e.AddElement(&models.Element{ID: "r1", Shape: &models.SeatingRow{
		SeatSpacing: 35,
		Segments:    []models.Segment{seg0, seg1},
	}})
	require.NoError(t, err)
}

func TestUpdateElement_RechainsSegmentedRow(t *testing.T) {
	e, _ := newTestEditor(t)
	twoSegmentRow(t, e)
	assert.Len(t, e.Chairs().ForTable("r1"), 5)

	el, _ := e.Elements().Get("r1")
	segs := append([]models.Segment(nil), el.Shape.(*models.SeatingRow).Segments...)
	segs[0].SeatCount = 5
	raw, err := json.Marshal(segs)
	require.NoError(t, err)

	updated, err := e.UpdateElement("r1", map[string]json.RawMessage{"segments": raw})
	require.NoError(t, err)
	row := updated.Shape.(*models.SeatingRow)
	require.Len(t, row.Segments, 2)
	end := segment.EndPosition(row.Segments[0])
	assert.InDelta(t, 140.0, end.X, 1e-9)
	assert.InDelta(t, end.X, row.Segments[1].StartX, 1e-9)
	assert.InDelta(t, end.Y, row.Segments[1].StartY, 1e-9)
	assert.Equal(t, 8, row.TotalSeats)
	assert.Equal(t, 2, row.TotalSegments)
	assert.Len(t, e.Chairs().ForTable("r1"), 7)

	require.True(t, e.Undo())
	el, _ = e.Elements().Get("r1")
	assert.Equal(t, 6, el.Shape.(*models.SeatingRow).TotalSeats)
	assert.Len(t, e.Chairs().ForTable("r1"), 5)
}

func TestAddElement_NormalizesSegmentedRow(t *testing.T) {
	e, _ := newTestEditor(t)
	seg0 := segment.CreateSegment("draft", 0, 0, 0, 70, 0, 35)
	seg1 := segment.CreateSegment("draft", 5, 10, 10, 80, 10, 35)

	el, err := e.AddElement(&models.Element{ID: "r2", Shape: &models.SeatingRow{
		SeatSpacing: 35,
		Segments:    []models.Segment{seg0, seg1},
	}})
	require.NoError(t, err)
	row := el.Shape.(*models.SeatingRow)
	assert.Equal(t, "r2-seg-0", row.Segments[0].ID)
	assert.Equal(t, 1, row.Segments[1].SegmentIndex)
	assert.Equal(t, "r2-seg-1", row.Segments[1].ID)
	assert.InDelta(t, 70.0, row.Segments[1].StartX, 1e-9)
	assert.InDelta(t, 0.0, row.Segments[1].StartY, 1e-9)
	assert.Equal(t, 6, row.TotalSeats)
}

func TestUpdateElement_ClearsSelectedChairThatDisappears(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)
	require.True(t, e.SelectChair("t1-chair-3", nil))
	require.True(t, e.Selection().IsSelected("t1-chair-3"))

	_, err = e.UpdateElement("t1", map[string]json.RawMessage{"seats": json.RawMessage(`2`)})
	require.NoError(t, err)
	assert.False(t, e.Selection().IsSelected("t1-chair-3"))
	assert.Nil(t, e.CurrentSelection().Chair)
}

func TestPointerDrag(t *testing.T) {
	e, clock := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 100, 100, 4))
	require.NoError(t, err)
	before := e.History().Snapshot()

	assert.True(t, e.HandlePointer(PointerEvent{Kind: PointerDown, X: 100, Y: 100, TargetID: "t1"}))
	sel, ok := e.Selection().Element()
	require.True(t, ok)
	assert.Equal(t, "t1", sel.ID)
	assert.Equal(t, []string{"t1"}, e.Overlay().IDs())

	// Below the threshold nothing moves.
	assert.False(t, e.HandlePointer(PointerEvent{Kind: PointerMove, X: 102, Y: 101}))
	el, _ := e.Elements().Get("t1")
	assert.Equal(t, 100.0, el.X)

	assert.True(t, e.HandlePointer(PointerEvent{Kind: PointerMove, X: 150, Y: 130}))
	assert.True(t, e.HandlePointer(PointerEvent{Kind: PointerUp, X: 150, Y: 130}))
	el, _ = e.Elements().Get("t1")
	assert.Equal(t, 150.0, el.X)
	assert.Equal(t, 130.0, el.Y)
	assert.Len(t, e.History().Snapshot().Undo, len(before.Undo)+1)

	// The click that follows a drop keeps the selection.
	e.HandlePointer(PointerEvent{Kind: PointerDown, X: 400, Y: 400})
	_, ok = e.Selection().Element()
	assert.True(t, ok)

	clock.Advance(time.Second)
	e.HandlePointer(PointerEvent{Kind: PointerDown, X: 400, Y: 400})
	_, ok = e.Selection().Element()
	assert.False(t, ok)
	assert.Empty(t, e.Overlay().IDs())

	require.True(t, e.Undo())
	el, _ = e.Elements().Get("t1")
	assert.Equal(t, 100.0, el.X)
	assert.Equal(t, 100.0, el.Y)
}

func TestPointerDrag_ScalesByZoom(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)
	e.Viewport().SetZoom(200)

	e.HandlePointer(PointerEvent{Kind: PointerDown, X: 0, Y: 0, TargetID: "t1"})
	e.HandlePointer(PointerEvent{Kind: PointerMove, X: 100, Y: 0})
	e.HandlePointer(PointerEvent{Kind: PointerUp, X: 100, Y: 0})

	el, _ := e.Elements().Get("t1")
	assert.Equal(t, 50.0, el.X)
}

func TestEscapeCancelsDrag(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)

	e.HandlePointer(PointerEvent{Kind: PointerDown, X: 0, Y: 0, TargetID: "t1"})
	e.HandlePointer(PointerEvent{Kind: PointerMove, X: 40, Y: 0})
	assert.True(t, e.HandleKey(KeyEvent{Key: "Escape"}))

	el, _ := e.Elements().Get("t1")
	assert.Equal(t, 0.0, el.X)
	assert.False(t, e.HandlePointer(PointerEvent{Kind: PointerUp, X: 40, Y: 0}))
}

func TestDeleteKey(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)
	require.True(t, e.SelectElement("t1"))

	assert.True(t, e.HandleKey(KeyEvent{Key: "Delete"}))
	assert.Equal(t, 0, e.Elements().Len())
	assert.Equal(t, 0, e.Chairs().Len())
	_, ok := e.Selection().Element()
	assert.False(t, ok)

	assert.True(t, e.HandleKey(KeyEvent{Key: "Z", Ctrl: true}))
	assert.Equal(t, 1, e.Elements().Len())
	assert.Len(t, e.Chairs().ForTable("t1"), 4)

	assert.True(t, e.HandleKey(KeyEvent{Key: "z", Ctrl: true, Shift: true}))
	assert.Equal(t, 0, e.Elements().Len())
}

func TestArrowKeysNudge(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)

	assert.False(t, e.HandleKey(KeyEvent{Key: "ArrowRight"}))
	require.True(t, e.SelectElement("t1"))
	assert.True(t, e.HandleKey(KeyEvent{Key: "ArrowRight"}))
	assert.True(t, e.HandleKey(KeyEvent{Key: "ArrowUp", Shift: true}))

	el, _ := e.Elements().Get("t1")
	grid := e.Viewport().State().GridSize
	assert.Equal(t, grid, el.X)
	assert.Equal(t, -5*grid, el.Y)
}

func TestChairSelectionIsExclusive(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)
	require.True(t, e.SelectElement("t1"))

	assert.True(t, e.HandlePointer(PointerEvent{Kind: PointerDown, X: 70, Y: 0, ChairID: "t1-chair-0"}))
	snap := e.CurrentSelection()
	assert.Nil(t, snap.Element)
	require.NotNil(t, snap.Chair)
	assert.Equal(t, "t1-chair-0", snap.Chair.ID)
	require.NotNil(t, snap.Panel)
	assert.Equal(t, 70.0, snap.Panel.X)

	require.True(t, e.SelectElement("t1"))
	_, ok := e.Chairs().Selected()
	assert.False(t, ok)
}

func TestCreationToolCommitsAndSelects(t *testing.T) {
	e, _ := newTestEditor(t)
	e.SetTool(tools.RoundTable)

	var changes []Change
	unsubscribe := e.Subscribe(func(c Change) { changes = append(changes, c) })
	defer unsubscribe()

	assert.True(t, e.HandlePointer(PointerEvent{Kind: PointerDown, X: 200, Y: 120}))
	all := e.Elements().All()
	require.Len(t, all, 1)
	assert.Equal(t, 200.0, all[0].X)
	assert.Equal(t, 120.0, all[0].Y)
	assert.True(t, e.Selection().IsSelected(all[0].ID))
	assert.NotEmpty(t, e.Chairs().ForTable(all[0].ID))

	var sawCreated bool
	for _, c := range changes {
		if c.Kind == ChangeTool && c.Action == "created" {
			sawCreated = true
		}
	}
	assert.True(t, sawCreated)
}

func TestReservationLimitPublishesNotice(t *testing.T) {
	clock := clockwork.NewFakeClock()
	settings := DefaultSettings()
	settings.MaxSelectableSeats = 1
	e := New(settings, WithClock(clock))
	_, err := e.AddElement(roundTable("t1", 0, 0, 4))
	require.NoError(t, err)

	var notices []models.Notice
	e.Subscribe(func(c Change) {
		if c.Kind == ChangeNotice {
			notices = append(notices, *c.Notice)
		}
	})

	status, ok := e.ToggleReservation("t1-chair-0")
	assert.True(t, ok)
	assert.Equal(t, models.StatusSelected, status)

	_, ok = e.ToggleReservation("t1-chair-1")
	assert.False(t, ok)
	require.Len(t, notices, 1)
	assert.Equal(t, models.NoticeWarning, notices[0].Level)
	assert.Len(t, e.Notices(), 1)

	e.SetPreReserved([]string{"t1-chair-2"})
	_, ok = e.ToggleReservation("t1-chair-2")
	assert.False(t, ok)
}

func TestReorderSelected(t *testing.T) {
	e, _ := newTestEditor(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := e.AddElement(roundTable(id, 0, 0, 2))
		require.NoError(t, err)
	}
	require.True(t, e.SelectElement("a"))
	assert.True(t, e.BringForward())
	assert.Equal(t, 1, e.Elements().IndexOf("a"))
	assert.True(t, e.SendBackward())
	assert.Equal(t, 0, e.Elements().IndexOf("a"))
	assert.False(t, e.SendBackward())
}

func TestExportImportRoundTrip(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 10, 20, 3))
	require.NoError(t, err)
	_, err = e.AddElement(&models.Element{ID: "l1", X: 0, Y: 0,
		Shape: &models.Line{StartX: 0, StartY: 0, EndX: 100, EndY: 0}})
	require.NoError(t, err)
	price := 80.0
	_, ok := e.UpdateChair("t1-chair-1", models.ChairPatch{Price: &price})
	require.True(t, ok)

	for _, format := range []parser.Format{parser.FormatJSON, parser.FormatMsgpack} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, e.Export(&buf, "gala", format))

			other, _ := newTestEditor(t)
			doc, err := other.Import(&buf, "")
			require.NoError(t, err)
			assert.Equal(t, "gala", doc.Meta.Name)
			assert.Equal(t, 2, other.Elements().Len())
			assert.Len(t, other.Chairs().ForTable("t1"), 3)
			c, ok := other.Chairs().Get("t1-chair-1")
			require.True(t, ok)
			assert.Equal(t, 80.0, c.Price)
			assert.False(t, other.History().CanUndo())
		})
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 2))
	require.NoError(t, err)

	err = e.Load(&models.LayoutDocument{Elements: []models.ElementRecord{{ID: "x", Type: "sofa"}}})
	assert.ErrorIs(t, err, models.ErrUnknownElementType)
	assert.Equal(t, 1, e.Elements().Len())
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 2))
	require.NoError(t, err)

	dup := roundTable("a", 0, 0, 3).Record()
	err = e.Load(&models.LayoutDocument{Elements: []models.ElementRecord{dup, roundTable("b", 200, 0, 2).Record(), dup}})
	assert.ErrorIs(t, err, store.ErrDuplicateID)
	assert.Equal(t, 1, e.Elements().Len())
	_, ok := e.Elements().Get("t1")
	assert.True(t, ok)
	assert.Len(t, e.Chairs().ForTable("t1"), 2)
}

func TestLoadRejectsUnknownChairs(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddElement(roundTable("t1", 0, 0, 2))
	require.NoError(t, err)
	records := []models.ElementRecord{roundTable("a", 0, 0, 3).Record()}

	stale := models.Chair{ID: "a-chair-7", TableID: "a", Label: "8"}
	err = e.Load(&models.LayoutDocument{Elements: records, Chairs: []models.Chair{stale}})
	assert.ErrorIs(t, err, ErrUnknownChair)

	orphan := models.Chair{ID: "a-chair-0", TableID: "ghost", Label: "1"}
	err = e.Load(&models.LayoutDocument{Elements: records, Chairs: []models.Chair{orphan}})
	assert.ErrorIs(t, err, ErrUnknownChair)

	assert.Equal(t, 1, e.Elements().Len())
	assert.Len(t, e.Chairs().ForTable("t1"), 2)

	priced := models.Chair{ID: "a-chair-1", TableID: "a", Label: "2", Price: 40}
	require.NoError(t, e.Load(&models.LayoutDocument{Elements: records, Chairs: []models.Chair{priced}}))
	assert.Equal(t, 3, e.Chairs().Len())
	c, ok := e.Chairs().Get("a-chair-1")
	require.True(t, ok)
	assert.Equal(t, 40.0, c.Price)
}

func TestFitAll(t *testing.T) {
	e, _ := newTestEditor(t)
	_, ok := e.FitAll(viewport.Size{Width: 800, Height: 600})
	assert.False(t, ok)

	_, err := e.AddElement(roundTable("t1", 0, 0, 2))
	require.NoError(t, err)
	state, ok := e.FitAll(viewport.Size{Width: 800, Height: 600})
	assert.True(t, ok)
	assert.GreaterOrEqual(t, state.Zoom, e.Settings().MinZoom)
	assert.LessOrEqual(t, state.Zoom, e.Settings().MaxZoom)
}

func TestNoticesReachExternalNotifier(t *testing.T) {
	notifier := &testutil.RecordingNotifier{}
	settings := DefaultSettings()
	settings.MaxSelectableSeats = 1
	e := New(settings, WithClock(clockwork.NewFakeClock()), WithNotifier(notifier))
	_, err := e.AddElement(roundTable("t1", 0, 0, 2))
	require.NoError(t, err)

	_, ok := e.ToggleReservation("t1-chair-0")
	require.True(t, ok)
	_, ok = e.ToggleReservation("t1-chair-1")
	require.False(t, ok)
	require.Len(t, notifier.Notices(), 1)
	assert.Equal(t, "t1-chair-1", notifier.Notices()[0].ChairID)
}
