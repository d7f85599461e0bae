// Package commands holds the reversible layout edits executed through the
// history manager. Every command captures its before and after state when it
// is constructed.
package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/seat-planner/backend/internal/chairs"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/segment"
	"github.com/seat-planner/backend/internal/selection"
	"github.com/seat-planner/backend/internal/store"
)

// Stores groups the state commands operate on. Selection may be nil.
type Stores struct {
	Elements  *store.ElementStore
	Chairs    *chairs.Registry
	Selection *selection.State
}

// dropSelection clears any selection pointing at id or one of its chairs.
func (s Stores) dropSelection(id string) {
	if s.Selection != nil {
		if el, ok := s.Selection.Element(); ok && el.ID == id {
			s.Selection.ClearElement()
		}
		if c, ok := s.Selection.Chair(); ok {
			if chair, found := s.Chairs.Get(c.ID); !found || chair.TableID == id {
				s.Selection.ClearChair()
			}
		}
	}
	if c, ok := s.Chairs.Selected(); ok && c.TableID == id {
		s.Chairs.Deselect()
	}
}

// dropStaleChair clears the selected chair slot when its chair no longer
// exists after chairs were regenerated.
func (s Stores) dropStaleChair() {
	if s.Selection == nil {
		return
	}
	if c, ok := s.Selection.Chair(); ok {
		if _, found := s.Chairs.Get(c.ID); !found {
			s.Selection.ClearChair()
		}
	}
}

// restore puts el back at index together with its chairs.
func (s Stores) restore(index int, el *models.Element, cs []models.Chair) {
	if _, err := s.Elements.Insert(index, el); err != nil {
		s.Elements.Replace(el)
	}
	s.Chairs.ReplaceForTable(el.ID, cs)
	s.dropStaleChair()
}

func (s Stores) remove(id string) {
	s.dropSelection(id)
	s.Chairs.RemoveForTable(id)
	s.Elements.Delete(id)
}

// Add places a new element and its chairs.
type Add struct {
	stores  Stores
	element *models.Element
	chairs  []models.Chair
	index   int
}

// NewAdd prepares the insertion of el. An empty id gets a fresh uuid and
// type defaults are applied. When seats is nil chairs are generated from
// the element's geometry at the registry's default price.
func NewAdd(s Stores, el *models.Element, seats []models.Chair) *Add {
	el = el.Clone()
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	models.ApplyDefaults(el)
	segment.Normalize(el)
	if seats == nil {
		seats = chairs.ChairsFor(el, s.Chairs.DefaultPrice())
	}
	return &Add{stores: s, element: el, chairs: seats, index: -1}
}

// ID returns the id of the element being added.
func (c *Add) ID() string { return c.element.ID }

func (c *Add) Execute() { c.stores.restore(c.index, c.element, c.chairs) }

func (c *Add) Undo() { c.stores.remove(c.element.ID) }

func (c *Add) Description() string { return fmt.Sprintf("Add %s", c.element.Type()) }

// Delete removes an element and its chairs, remembering its z-order slot.
type Delete struct {
	stores  Stores
	element *models.Element
	chairs  []models.Chair
	index   int
}

// NewDelete captures the element with id. ok is false when id is unknown.
func NewDelete(s Stores, id string) (*Delete, bool) {
	el, ok := s.Elements.Get(id)
	if !ok {
		return nil, false
	}
	return &Delete{
		stores:  s,
		element: el.Clone(),
		chairs:  s.Chairs.ForTable(id),
		index:   s.Elements.IndexOf(id),
	}, true
}

func (c *Delete) Execute() { c.stores.remove(c.element.ID) }

func (c *Delete) Undo() { c.stores.restore(c.index, c.element, c.chairs) }

func (c *Delete) Description() string { return fmt.Sprintf("Delete %s", c.element.Type()) }

// Move translates an element. It stores both end states so executing it
// after a live drag already moved the element is harmless.
type Move struct {
	stores        Stores
	before, after *models.Element
}

// NewMove translates the element with id by dx, dy.
func NewMove(s Stores, id string, dx, dy float64) (*Move, bool) {
	el, ok := s.Elements.Get(id)
	if !ok {
		return nil, false
	}
	return &Move{stores: s, before: el.Clone(), after: el.Translated(dx, dy)}, true
}

// NewMoveBetween records a move from before to after, as at the end of a drag.
func NewMoveBetween(s Stores, before, after *models.Element) *Move {
	return &Move{stores: s, before: before.Clone(), after: after.Clone()}
}

// Delta returns the anchor displacement of the move.
func (c *Move) Delta() (dx, dy float64) {
	a, _ := c.before.Position()
	b, _ := c.after.Position()
	return b.X - a.X, b.Y - a.Y
}

func (c *Move) Execute() { c.stores.Elements.Replace(c.after) }

func (c *Move) Undo() { c.stores.Elements.Replace(c.before) }

func (c *Move) Description() string { return fmt.Sprintf("Move %s", c.before.Type()) }

// Rotate sets an element's rotation in degrees.
type Rotate struct {
	stores   Stores
	id       string
	from, to float64
}

// NewRotate captures the current rotation of id.
func NewRotate(s Stores, id string, rotation float64) (*Rotate, bool) {
	el, ok := s.Elements.Get(id)
	if !ok {
		return nil, false
	}
	return &Rotate{stores: s, id: id, from: el.Rotation, to: rotation}, true
}

func (c *Rotate) set(r float64) {
	c.stores.Elements.Update(c.id, func(e *models.Element) { e.Rotation = r })
}

func (c *Rotate) Execute() { c.set(c.to) }

func (c *Rotate) Undo() { c.set(c.from) }

func (c *Rotate) Description() string { return fmt.Sprintf("Rotate to %g°", c.to) }

// Update replaces an element with an edited copy. Chairs are regenerated
// when the edit changes seat geometry and restored exactly on undo.
type Update struct {
	stores        Stores
	before, after *models.Element
	chairs        []models.Chair
}

// NewUpdate applies mutate to a copy of the element with id.
func NewUpdate(s Stores, id string, mutate func(*models.Element)) (*Update, bool) {
	el, ok := s.Elements.Get(id)
	if !ok {
		return nil, false
	}
	after := el.Clone()
	mutate(after)
	after.ID = id
	return NewUpdateTo(s, el, after), true
}

// NewUpdateTo records a change from before to after.
func NewUpdateTo(s Stores, before, after *models.Element) *Update {
	after = after.Clone()
	models.ApplyDefaults(after)
	segment.Normalize(after)
	return &Update{
		stores: s,
		before: before.Clone(),
		after:  after,
		chairs: s.Chairs.ForTable(before.ID),
	}
}

func (c *Update) Execute() {
	c.stores.Elements.Replace(c.after)
	force := c.before.SeatSignature() != c.after.SeatSignature()
	c.stores.Chairs.Sync(c.after, force)
	c.stores.dropStaleChair()
}

func (c *Update) Undo() {
	c.stores.Elements.Replace(c.before)
	c.stores.Chairs.ReplaceForTable(c.before.ID, c.chairs)
	c.stores.dropStaleChair()
}

func (c *Update) Description() string { return fmt.Sprintf("Update %s", c.before.Type()) }

// Reorder swaps an element with its neighbour in z-order.
type Reorder struct {
	stores   Stores
	id       string
	from, to int
}

// NewReorder moves id one step towards the front (step > 0) or back
// (step < 0). ok is false when the element is unknown or already at the end.
func NewReorder(s Stores, id string, step int) (*Reorder, bool) {
	from := s.Elements.IndexOf(id)
	if from < 0 || step == 0 {
		return nil, false
	}
	to := from + 1
	if step < 0 {
		to = from - 1
	}
	if to < 0 || to >= s.Elements.Len() {
		return nil, false
	}
	return &Reorder{stores: s, id: id, from: from, to: to}, true
}

func (c *Reorder) Execute() { c.stores.Elements.Swap(c.from, c.to) }

func (c *Reorder) Undo() { c.stores.Elements.Swap(c.to, c.from) }

func (c *Reorder) Description() string {
	if c.to > c.from {
		return "Bring forward"
	}
	return "Send backward"
}
