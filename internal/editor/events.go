package editor

import (
	"strings"

	"github.com/seat-planner/backend/internal/models"
)

// PointerKind distinguishes pointer events.
type PointerKind string

const (
	PointerDown        PointerKind = "down"
	PointerMove        PointerKind = "move"
	PointerUp          PointerKind = "up"
	PointerDoubleClick PointerKind = "dblclick"
)

// PointerEvent is a pointer event in screen coordinates. TargetID names the
// element under the pointer and ChairID the chair, if any.
type PointerEvent struct {
	Kind     PointerKind `json:"kind"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	TargetID string      `json:"targetId,omitempty"`
	ChairID  string      `json:"chairId,omitempty"`
}

// KeyEvent is a key press with modifier state. Key uses DOM key names.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
}

func (k KeyEvent) command() bool { return k.Ctrl || k.Meta }

// InputEvent carries exactly one of Pointer or Key.
type InputEvent struct {
	Pointer *PointerEvent `json:"pointer,omitempty"`
	Key     *KeyEvent     `json:"key,omitempty"`
}

// ChangeKind names what an editor Change is about.
type ChangeKind string

const (
	ChangeElements  ChangeKind = "elements"
	ChangeChairs    ChangeKind = "chairs"
	ChangeHistory   ChangeKind = "history"
	ChangeViewport  ChangeKind = "viewport"
	ChangeSelection ChangeKind = "selection"
	ChangeTool      ChangeKind = "tool"
	ChangeNotice    ChangeKind = "notice"
	ChangeLayout    ChangeKind = "layout"
)

// Change is published to subscribers after every state change.
type Change struct {
	Kind      ChangeKind     `json:"kind"`
	Action    string         `json:"action,omitempty"`
	ElementID string         `json:"elementId,omitempty"`
	Notice    *models.Notice `json:"notice,omitempty"`
}

func normalizeKey(k string) string {
	if len(k) == 1 {
		return strings.ToLower(k)
	}
	return k
}
