// Package store owns the ordered collection of placed elements.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
)

// ErrDuplicateID is returned when adding an element whose id is already stored.
var ErrDuplicateID = errors.New("duplicate element id")

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeUpdated   ChangeKind = "updated"
	ChangeDeleted   ChangeKind = "deleted"
	ChangeReordered ChangeKind = "reordered"
	ChangeCleared   ChangeKind = "cleared"
)

// Change describes one store mutation. Element is the new value for added and
// updated changes and the removed value for deletions.
type Change struct {
	Kind    ChangeKind
	ID      string
	Element *models.Element
	Index   int
}

// ElementStore holds elements in z-order. Stored elements are never mutated
// in place; every update swaps in a new *models.Element.
type ElementStore struct {
	mu          sync.RWMutex
	elements    []*models.Element
	subscribers map[int]func(Change)
	nextSub     int
}

// NewElementStore creates an empty store.
func NewElementStore() *ElementStore {
	return &ElementStore{subscribers: make(map[int]func(Change))}
}

// Subscribe registers fn to be called synchronously after every mutation.
// The returned func removes the subscription.
func (s *ElementStore) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *ElementStore) notify(c Change) {
	s.mu.RLock()
	subs := make([]func(Change), 0, len(s.subscribers))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}

// Add stores a copy of el with type defaults applied and appends it. An empty
// id is replaced by a fresh uuid. The caller's element is never modified.
func (s *ElementStore) Add(el *models.Element) (*models.Element, error) {
	return s.Insert(-1, el)
}

// Insert stores a copy of el at index; a negative or out-of-range index appends.
func (s *ElementStore) Insert(index int, el *models.Element) (*models.Element, error) {
	if el == nil || el.Shape == nil {
		return nil, fmt.Errorf("element has no shape")
	}
	stored := el.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	models.ApplyDefaults(stored)

	s.mu.Lock()
	if s.indexOf(stored.ID) >= 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, stored.ID)
	}
	if index < 0 || index > len(s.elements) {
		index = len(s.elements)
	}
	s.elements = slices.Insert(s.elements, index, stored)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeAdded, ID: stored.ID, Element: stored, Index: index})
	return stored, nil
}

// Update replaces the element with a modified copy. mutate receives a deep
// copy and may change anything but the id. The result is always a new
// pointer, even when mutate changed nothing. ok is false if id is unknown.
func (s *ElementStore) Update(id string, mutate func(*models.Element)) (*models.Element, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, false
	}
	next := s.elements[i].Clone()
	if mutate != nil {
		mutate(next)
	}
	next.ID = id
	s.elements[i] = next
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeUpdated, ID: id, Element: next, Index: i})
	return next, true
}

// Replace swaps the stored element with a copy of el, matched by el.ID.
func (s *ElementStore) Replace(el *models.Element) (*models.Element, bool) {
	if el == nil {
		return nil, false
	}
	return s.Update(el.ID, func(e *models.Element) { *e = *el.Clone() })
}

// Delete removes the element with id and reports whether it existed.
func (s *ElementStore) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.elements[i]
	s.elements = slices.Delete(s.elements, i, i+1)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeDeleted, ID: id, Element: removed, Index: i})
	return true
}

// Swap exchanges the elements at positions a and b.
func (s *ElementStore) Swap(a, b int) bool {
	s.mu.Lock()
	n := len(s.elements)
	if a < 0 || b < 0 || a >= n || b >= n {
		s.mu.Unlock()
		return false
	}
	if a == b {
		s.mu.Unlock()
		return true
	}
	s.elements[a], s.elements[b] = s.elements[b], s.elements[a]
	id := s.elements[b].ID
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeReordered, ID: id, Index: b})
	return true
}

// Clear removes every element.
func (s *ElementStore) Clear() {
	s.mu.Lock()
	s.elements = nil
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeCleared})
}

// Get returns the element with id.
func (s *ElementStore) Get(id string) (*models.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.elements[i], true
}

// IndexOf returns the z-order position of id, or -1.
func (s *ElementStore) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

func (s *ElementStore) indexOf(id string) int {
	return slices.IndexFunc(s.elements, func(e *models.Element) bool { return e.ID == id })
}

// All returns a snapshot of the elements in z-order.
func (s *ElementStore) All() []*models.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.elements)
}

// Len returns the number of stored elements.
func (s *ElementStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// ByType returns the elements of type t in z-order.
func (s *ElementStore) ByType(t models.ElementType) []*models.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Element
	for _, e := range s.elements {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// InRect returns the elements intersecting r. Elements with vertex geometry
// match when any vertex lies inside r; the rest match on their anchor.
func (s *ElementStore) InRect(r geometry.Rect) []*models.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Element
	for _, e := range s.elements {
		if intersects(e, r) {
			out = append(out, e)
		}
	}
	return out
}

func intersects(e *models.Element, r geometry.Rect) bool {
	if verts := e.Vertices(); len(verts) > 0 {
		return slices.ContainsFunc(verts, r.Contains)
	}
	if e.HasPointArray() {
		return false
	}
	return r.Contains(geometry.Pt(e.X, e.Y))
}
