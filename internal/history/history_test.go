package history

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setCmd sets *target to value and restores the previous value on undo.
type setCmd struct {
	target      *int
	value, prev int
	label       string
}

func (c *setCmd) Execute() {
	c.prev = *c.target
	*c.target = c.value
}

func (c *setCmd) Undo()               { *c.target = c.prev }
func (c *setCmd) Description() string { return c.label }

type redoCmd struct {
	log []string
}

func (c *redoCmd) Execute() { c.log = append(c.log, "execute") }
func (c *redoCmd) Undo()    { c.log = append(c.log, "undo") }
func (c *redoCmd) Redo()    { c.log = append(c.log, "redo") }

func TestManager_InverseLaw(t *testing.T) {
	state := 1
	m := NewManager()
	c := &setCmd{target: &state, value: 7}

	m.Execute(c)
	assert.Equal(t, 7, state)
	require.True(t, m.Undo())
	assert.Equal(t, 1, state)
	require.True(t, m.Redo())
	assert.Equal(t, 7, state)
}

func TestManager_Linearity(t *testing.T) {
	state := 0
	m := NewManager()
	m.Execute(&setCmd{target: &state, value: 1})
	m.Undo()
	assert.True(t, m.CanRedo())

	m.Execute(&setCmd{target: &state, value: 2})
	assert.False(t, m.CanRedo(), "new work invalidates the redo stack")
	assert.True(t, m.CanUndo())
}

func TestManager_EmptyStacksAreNoOps(t *testing.T) {
	m := NewManager()
	assert.False(t, m.Undo())
	assert.False(t, m.Redo())
	assert.False(t, m.CanUndo())
}

func TestManager_PrefersRedo(t *testing.T) {
	m := NewManager()
	c := &redoCmd{}
	m.Execute(c)
	m.Undo()
	m.Redo()
	assert.Equal(t, []string{"execute", "undo", "redo"}, c.log)
}

func TestManager_NilCommandPanics(t *testing.T) {
	assert.Panics(t, func() { NewManager().Execute(nil) })
}

func TestManager_SnapshotAndObservers(t *testing.T) {
	state := 0
	m := NewManager()
	calls := 0
	m.OnChange(func() { calls++ })

	m.Execute(&setCmd{target: &state, value: 1, label: "first"})
	m.Execute(&setCmd{target: &state, value: 2, label: "second"})
	m.Undo()

	snap := m.Snapshot()
	assert.Equal(t, []Entry{{Description: "first"}}, snap.Undo)
	assert.Equal(t, []Entry{{Description: "second"}}, snap.Redo)
	assert.True(t, snap.CanUndo)
	assert.True(t, snap.CanRedo)
	assert.Equal(t, 3, calls)

	m.Clear()
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

// gatedCmd blocks in Undo until gate is closed.
type gatedCmd struct {
	entered chan struct{}
	gate    chan struct{}
}

func (c *gatedCmd) Execute() {}
func (c *gatedCmd) Undo() {
	close(c.entered)
	<-c.gate
}

type nopCmd struct{}

func (nopCmd) Execute() {}
func (nopCmd) Undo()    {}

func TestManager_ExecuteWaitsForRunningUndo(t *testing.T) {
	m := NewManager()
	c1 := &gatedCmd{entered: make(chan struct{}), gate: make(chan struct{})}
	m.Execute(c1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Undo()
	}()
	<-c1.entered

	executed := make(chan struct{})
	go func() {
		m.Execute(nopCmd{})
		close(executed)
	}()

	select {
	case <-executed:
		t.Fatal("Execute completed while Undo was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(c1.gate)
	wg.Wait()
	<-executed

	assert.False(t, m.CanRedo(), "execute after undo must clear the redo stack")
	assert.Len(t, m.Snapshot().Undo, 1)
}

func TestManager_ConcurrentOperationsStayConsistent(t *testing.T) {
	state := 0
	m := NewManager()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Execute(&setCmd{target: &state, value: i + 1})
			m.Undo()
			m.Redo()
		}()
	}
	wg.Wait()

	for m.Undo() {
	}
	assert.Equal(t, 0, state, "undoing everything restores the initial state")
}
