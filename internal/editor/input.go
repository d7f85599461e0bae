package editor

import (
	"github.com/seat-planner/backend/internal/geometry"
	"go.uber.org/zap"
)

// HandlePointer routes a pointer event. Creation tools take precedence over
// selection and dragging. It reports whether the event changed anything.
func (e *Editor) HandlePointer(ev PointerEvent) bool {
	switch ev.Kind {
	case PointerDown:
		return e.pointerDown(ev)
	case PointerMove:
		if e.tools.InProgress() {
			w := e.worldPoint(ev.X, ev.Y)
			e.tools.PointerMove(w.X, w.Y)
			return true
		}
		return e.drag.Move(ev.X, ev.Y)
	case PointerUp:
		return e.drag.End()
	case PointerDoubleClick:
		return e.tools.DoubleClick()
	default:
		e.logger.Debug("ignoring pointer event", zap.String("kind", string(ev.Kind)))
		return false
	}
}

func (e *Editor) pointerDown(ev PointerEvent) bool {
	w := e.worldPoint(ev.X, ev.Y)
	if e.tools.PointerDown(w.X, w.Y) {
		return true
	}
	switch {
	case ev.ChairID != "":
		screen := geometry.Pt(ev.X, ev.Y)
		return e.SelectChair(ev.ChairID, &screen)
	case ev.TargetID != "":
		if !e.SelectElement(ev.TargetID) {
			return false
		}
		e.drag.Prepare(ev.TargetID, ev.X, ev.Y)
		return true
	default:
		// A click right after a drop belongs to the drag.
		if e.drag.JustEnded() {
			return false
		}
		e.ClearSelection()
		return true
	}
}

func (e *Editor) worldPoint(sx, sy float64) geometry.Point {
	w := e.viewport.ScreenToWorld(sx, sy)
	return e.viewport.SnapToGrid(w.X, w.Y)
}

// HandleKey applies a keyboard shortcut and reports whether it was handled.
func (e *Editor) HandleKey(ev KeyEvent) bool {
	key := normalizeKey(ev.Key)
	if ev.command() {
		switch {
		case key == "z" && ev.Shift, key == "y":
			return e.Redo()
		case key == "z":
			return e.Undo()
		}
		return false
	}

	switch key {
	case "Escape":
		if e.tools.Escape() {
			return true
		}
		if e.drag.Cancel() {
			return true
		}
		e.ClearSelection()
		return true
	case "Delete", "Backspace":
		return e.selection.RequestDelete()
	case "ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight":
		return e.nudge(key, ev.Shift)
	}
	return false
}

func (e *Editor) nudge(key string, coarse bool) bool {
	sel, ok := e.selection.Element()
	if !ok {
		return false
	}
	step := e.viewport.State().GridSize
	if step <= 0 {
		step = 1
	}
	if coarse {
		step *= 5
	}
	var dx, dy float64
	switch key {
	case "ArrowUp":
		dy = -step
	case "ArrowDown":
		dy = step
	case "ArrowLeft":
		dx = -step
	case "ArrowRight":
		dx = step
	}
	return e.MoveElement(sel.ID, dx, dy)
}

// Dispatch handles a batch of input events in order and returns how many
// changed state.
func (e *Editor) Dispatch(events []InputEvent) int {
	n := 0
	for _, ev := range events {
		switch {
		case ev.Pointer != nil:
			if e.HandlePointer(*ev.Pointer) {
				n++
			}
		case ev.Key != nil:
			if e.HandleKey(*ev.Key) {
				n++
			}
		}
	}
	return n
}
