// Package chairs owns the seat records attached to layout elements.
package chairs

import (
	"slices"
	"sync"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"go.uber.org/zap"
)

// Registry maps chair ids to chairs. At most one chair is selected at a time.
type Registry struct {
	mu           sync.RWMutex
	chairs       map[string]models.Chair
	order        []string
	selectedID   string
	panel        *geometry.Point
	defaultPrice float64
	subscribers  []func()
	logger       *zap.Logger
}

// NewRegistry creates an empty registry. A non-positive defaultPrice falls
// back to models.DefaultChairPrice.
func NewRegistry(defaultPrice float64, logger *zap.Logger) *Registry {
	if defaultPrice <= 0 {
		defaultPrice = models.DefaultChairPrice
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		chairs:       make(map[string]models.Chair),
		defaultPrice: defaultPrice,
		logger:       logger,
	}
}

// DefaultPrice returns the price given to generated chairs.
func (r *Registry) DefaultPrice() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultPrice
}

// SetDefaultPrice changes the price used for chairs generated from now on.
func (r *Registry) SetDefaultPrice(p float64) {
	if p <= 0 {
		return
	}
	r.mu.Lock()
	r.defaultPrice = p
	r.mu.Unlock()
}

// OnChange registers fn to run after every registry mutation.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	r.mu.Unlock()
}

func (r *Registry) changed() {
	r.mu.RLock()
	subs := slices.Clone(r.subscribers)
	r.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// Add stores c, replacing any chair with the same id.
func (r *Registry) Add(c models.Chair) {
	r.mu.Lock()
	r.put(c)
	r.mu.Unlock()
	r.changed()
}

func (r *Registry) put(c models.Chair) {
	if c.ReservationStatus == "" {
		c.ReservationStatus = models.StatusFree
	}
	if _, exists := r.chairs[c.ID]; !exists {
		r.order = append(r.order, c.ID)
	}
	c.IsSelected = c.ID == r.selectedID
	r.chairs[c.ID] = c
}

// Remove deletes the chair with id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	ok := r.remove(id)
	r.mu.Unlock()
	if ok {
		r.changed()
	}
	return ok
}

func (r *Registry) remove(id string) bool {
	if _, ok := r.chairs[id]; !ok {
		return false
	}
	delete(r.chairs, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	if r.selectedID == id {
		r.selectedID = ""
		r.panel = nil
	}
	return true
}

// Update applies patch to the chair with id.
func (r *Registry) Update(id string, patch models.ChairPatch) (models.Chair, bool) {
	r.mu.Lock()
	c, ok := r.chairs[id]
	if !ok {
		r.mu.Unlock()
		return models.Chair{}, false
	}
	c = patch.Apply(c)
	r.chairs[id] = c
	r.mu.Unlock()
	r.changed()
	return c, true
}

// Get returns the chair with id.
func (r *Registry) Get(id string) (models.Chair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chairs[id]
	return c, ok
}

// All returns every chair in insertion order.
func (r *Registry) All() []models.Chair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Chair, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.chairs[id])
	}
	return out
}

// Len returns the number of chairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chairs)
}

// ForTable returns the chairs owned by tableID in insertion order.
func (r *Registry) ForTable(tableID string) []models.Chair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forTable(tableID)
}

func (r *Registry) forTable(tableID string) []models.Chair {
	var out []models.Chair
	for _, id := range r.order {
		if c := r.chairs[id]; c.TableID == tableID {
			out = append(out, c)
		}
	}
	return out
}

// Select makes id the only selected chair. panel is where the property panel
// for the chair is shown and may be nil.
func (r *Registry) Select(id string, panel *geometry.Point) bool {
	r.mu.Lock()
	c, ok := r.chairs[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.clearSelection()
	c.IsSelected = true
	r.chairs[id] = c
	r.selectedID = id
	if panel != nil {
		p := *panel
		r.panel = &p
	}
	r.mu.Unlock()
	r.changed()
	return true
}

// Deselect clears the chair selection and the panel position.
func (r *Registry) Deselect() {
	r.mu.Lock()
	had := r.selectedID != "" || r.panel != nil
	r.clearSelection()
	r.mu.Unlock()
	if had {
		r.changed()
	}
}

func (r *Registry) clearSelection() {
	if prev, ok := r.chairs[r.selectedID]; ok {
		prev.IsSelected = false
		r.chairs[r.selectedID] = prev
	}
	r.selectedID = ""
	r.panel = nil
}

// Selected returns the selected chair.
func (r *Registry) Selected() (models.Chair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chairs[r.selectedID]
	return c, ok
}

// PanelPosition returns where the selected chair's panel is anchored.
func (r *Registry) PanelPosition() (geometry.Point, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.panel == nil {
		return geometry.Point{}, false
	}
	return *r.panel, true
}

// GenerateForTable replaces the chairs of a round table with seatCount fresh
// chairs at the default price.
func (r *Registry) GenerateForTable(tableID string, seatCount int, radius float64) []models.Chair {
	chairs := RoundTableChairs(tableID, seatCount, radius, r.DefaultPrice())
	r.ReplaceForTable(tableID, chairs)
	return chairs
}

// RemoveForTable deletes every chair owned by tableID and returns them.
func (r *Registry) RemoveForTable(tableID string) []models.Chair {
	r.mu.Lock()
	removed := r.forTable(tableID)
	for _, c := range removed {
		r.remove(c.ID)
	}
	r.mu.Unlock()
	if len(removed) > 0 {
		r.changed()
	}
	return removed
}

// ReplaceForTable swaps the chair set of tableID for chairs in one step.
func (r *Registry) ReplaceForTable(tableID string, chairs []models.Chair) {
	r.mu.Lock()
	for _, c := range r.forTable(tableID) {
		r.remove(c.ID)
	}
	for _, c := range chairs {
		c.TableID = tableID
		r.put(c)
	}
	r.mu.Unlock()
	r.changed()
}

// Sync regenerates the chairs of el when its chair count no longer matches,
// or unconditionally when force is set. Regeneration drops every existing
// chair of the element; ids are deterministic so they repeat. It reports
// whether chairs were regenerated.
func (r *Registry) Sync(el *models.Element, force bool) bool {
	if el == nil {
		return false
	}
	if !el.HasSeats() {
		return len(r.RemoveForTable(el.ID)) > 0
	}
	existing := r.ForTable(el.ID)
	if !force && len(existing) == el.SeatCapacity() {
		return false
	}
	chairs := ChairsFor(el, r.DefaultPrice())
	r.ReplaceForTable(el.ID, chairs)
	r.logger.Debug("regenerated chairs",
		zap.String("element_id", el.ID),
		zap.Int("previous", len(existing)),
		zap.Int("count", len(chairs)),
		zap.Bool("forced", force))
	return true
}

// Clear removes every chair.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.chairs = make(map[string]models.Chair)
	r.order = nil
	r.selectedID = ""
	r.panel = nil
	r.mu.Unlock()
	r.changed()
}
