// Package history implements linear undo/redo over reversible commands.
package history

import (
	"slices"
	"sync"
)

// Command is a reversible state change. Undo must restore exactly the state
// seen before Execute.
type Command interface {
	Execute()
	Undo()
}

// Redoer is implemented by commands whose redo differs from Execute.
type Redoer interface {
	Redo()
}

// Describer is implemented by commands with a human-readable label.
type Describer interface {
	Description() string
}

// Describe returns c's description, or "" if it has none.
func Describe(c Command) string {
	if d, ok := c.(Describer); ok {
		return d.Description()
	}
	return ""
}

// Entry is a read-only view of one history stack slot.
type Entry struct {
	Description string `json:"description"`
}

// Snapshot summarizes both stacks, oldest first.
type Snapshot struct {
	Undo    []Entry `json:"undo"`
	Redo    []Entry `json:"redo"`
	CanUndo bool    `json:"canUndo"`
	CanRedo bool    `json:"canRedo"`
}

// Manager owns the undo and redo stacks. Both are unbounded.
//
// Execute, Undo, Redo and Clear are serialized: a command runs and its stack
// move is recorded before the next operation starts.
type Manager struct {
	op        sync.Mutex
	mu        sync.Mutex
	undo      []Command
	redo      []Command
	observers []func()
}

// NewManager creates an empty history.
func NewManager() *Manager {
	return &Manager{}
}

// OnChange registers fn to run after every stack change.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

func (m *Manager) changed() {
	m.mu.Lock()
	obs := slices.Clone(m.observers)
	m.mu.Unlock()
	for _, fn := range obs {
		fn()
	}
}

// Execute runs c, pushes it onto the undo stack and discards the redo stack.
// A nil command is a programming error.
func (m *Manager) Execute(c Command) {
	if c == nil {
		panic("history: nil command")
	}
	m.op.Lock()
	defer m.op.Unlock()
	c.Execute()
	m.mu.Lock()
	m.undo = append(m.undo, c)
	m.redo = nil
	m.mu.Unlock()
	m.changed()
}

// Undo reverts the most recent command. It returns false when there is
// nothing to undo.
func (m *Manager) Undo() bool {
	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	if len(m.undo) == 0 {
		m.mu.Unlock()
		return false
	}
	c := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.mu.Unlock()

	c.Undo()

	m.mu.Lock()
	m.redo = append(m.redo, c)
	m.mu.Unlock()
	m.changed()
	return true
}

// Redo re-applies the most recently undone command, through Redo when the
// command implements Redoer and Execute otherwise.
func (m *Manager) Redo() bool {
	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	if len(m.redo) == 0 {
		m.mu.Unlock()
		return false
	}
	c := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.mu.Unlock()

	if r, ok := c.(Redoer); ok {
		r.Redo()
	} else {
		c.Execute()
	}

	m.mu.Lock()
	m.undo = append(m.undo, c)
	m.mu.Unlock()
	m.changed()
	return true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	m.undo, m.redo = nil, nil
	m.mu.Unlock()
	m.changed()
}

// Snapshot returns the descriptions on both stacks.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := func(cs []Command) []Entry {
		out := make([]Entry, len(cs))
		for i, c := range cs {
			out[i] = Entry{Description: Describe(c)}
		}
		return out
	}
	return Snapshot{
		Undo:    entries(m.undo),
		Redo:    entries(m.redo),
		CanUndo: len(m.undo) > 0,
		CanRedo: len(m.redo) > 0,
	}
}
