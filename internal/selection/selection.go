// Package selection tracks the single selected element and the single
// selected chair.
package selection

import (
	"slices"
	"sync"

	"github.com/seat-planner/backend/internal/models"
)

// DeleteHandler is invoked with the selected item when deletion is requested.
type DeleteHandler func(models.Selectable)

// State holds two independent single slots, one for elements and one for
// chairs. Selecting an element clears the chair slot.
type State struct {
	mu        sync.RWMutex
	element   *models.Selectable
	chair     *models.Selectable
	handlers  map[int]DeleteHandler
	nextID    int
	observers []func()
}

// New creates an empty selection.
func New() *State {
	return &State{handlers: make(map[int]DeleteHandler)}
}

// OnChange registers fn to be called after every selection change.
func (s *State) OnChange(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *State) changed() {
	s.mu.RLock()
	obs := slices.Clone(s.observers)
	s.mu.RUnlock()
	for _, fn := range obs {
		fn()
	}
}

// SelectElement selects the element with id and type t, clearing any chair.
func (s *State) SelectElement(id string, t models.ElementType) {
	s.mu.Lock()
	s.element = &models.Selectable{ID: id, Kind: models.SelectableElement, Type: string(t)}
	s.chair = nil
	s.mu.Unlock()
	s.changed()
}

// SelectChair selects the chair with id. The element slot is left alone;
// callers that want a chair-only selection call ClearElement first.
func (s *State) SelectChair(id string) {
	s.mu.Lock()
	s.chair = &models.Selectable{ID: id, Kind: models.SelectableChair, Type: "chair"}
	s.mu.Unlock()
	s.changed()
}

// ClearElement empties the element slot.
func (s *State) ClearElement() {
	s.mu.Lock()
	had := s.element != nil
	s.element = nil
	s.mu.Unlock()
	if had {
		s.changed()
	}
}

// ClearChair empties the chair slot.
func (s *State) ClearChair() {
	s.mu.Lock()
	had := s.chair != nil
	s.chair = nil
	s.mu.Unlock()
	if had {
		s.changed()
	}
}

// Clear empties both slots.
func (s *State) Clear() {
	s.mu.Lock()
	had := s.element != nil || s.chair != nil
	s.element, s.chair = nil, nil
	s.mu.Unlock()
	if had {
		s.changed()
	}
}

// Element returns the selected element.
func (s *State) Element() (models.Selectable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.element == nil {
		return models.Selectable{}, false
	}
	return *s.element, true
}

// Chair returns the selected chair.
func (s *State) Chair() (models.Selectable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.chair == nil {
		return models.Selectable{}, false
	}
	return *s.chair, true
}

// IsSelected reports whether id occupies either slot.
func (s *State) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (s.element != nil && s.element.ID == id) || (s.chair != nil && s.chair.ID == id)
}

// OnDelete registers a delete handler and returns a func that removes it.
func (s *State) OnDelete(h DeleteHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// RequestDelete hands the selected element, or the selected chair when no
// element is selected, to every delete handler once and then clears the
// selection. It reports whether anything was selected.
func (s *State) RequestDelete() bool {
	s.mu.RLock()
	var target *models.Selectable
	switch {
	case s.element != nil:
		target = s.element
	case s.chair != nil:
		target = s.chair
	}
	handlers := make([]DeleteHandler, 0, len(s.handlers))
	for i := 0; i < s.nextID; i++ {
		if h, ok := s.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	s.mu.RUnlock()

	if target == nil {
		return false
	}
	item := *target
	for _, h := range handlers {
		h(item)
	}
	s.Clear()
	return true
}
