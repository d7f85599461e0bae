package chairs

import (
	"fmt"
	"sync"
	"time"

	"github.com/seat-planner/backend/internal/models"
	"go.uber.org/zap"
)

// Notifier receives user-facing notices for rejected reservation actions.
type Notifier interface {
	Notify(n models.Notice)
}

// Desk is the viewer-mode reservation layer over a Registry. Pre-reserved
// ids come from an external system and are never written into the registry.
type Desk struct {
	registry *Registry
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.RWMutex
	preReserved map[string]struct{}
	limit       int
}

// NewDesk creates a desk over registry. limit caps how many seats may be
// selected for reservation at once; 0 means unlimited.
func NewDesk(registry *Registry, limit int, notifier Notifier, logger *zap.Logger) *Desk {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desk{
		registry:    registry,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
		preReserved: make(map[string]struct{}),
		limit:       max(limit, 0),
	}
}

// SetLimit changes the selection limit; 0 means unlimited.
func (d *Desk) SetLimit(n int) {
	d.mu.Lock()
	d.limit = max(n, 0)
	d.mu.Unlock()
}

// Limit returns the selection limit.
func (d *Desk) Limit() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.limit
}

// SetPreReserved replaces the externally reserved id set.
func (d *Desk) SetPreReserved(ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	d.mu.Lock()
	d.preReserved = set
	d.mu.Unlock()
}

// PreReserved returns the externally reserved ids.
func (d *Desk) PreReserved() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.preReserved))
	for id := range d.preReserved {
		out = append(out, id)
	}
	return out
}

func (d *Desk) isPreReserved(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.preReserved[id]
	return ok
}

// StatusOf derives the effective status of c: pre-reserved, then reserved,
// then selected-for-reservation, then free.
func (d *Desk) StatusOf(c models.Chair) models.ReservationStatus {
	switch {
	case d.isPreReserved(c.ID):
		return models.StatusPreReserved
	case c.ReservationStatus == models.StatusReserved:
		return models.StatusReserved
	case c.ReservationStatus == models.StatusSelected:
		return models.StatusSelected
	default:
		return models.StatusFree
	}
}

// Status derives the effective status of the chair with id.
func (d *Desk) Status(id string) (models.ReservationStatus, bool) {
	c, ok := d.registry.Get(id)
	if !ok {
		return "", false
	}
	return d.StatusOf(c), true
}

// Chairs returns every chair with its derived status filled in.
func (d *Desk) Chairs() []models.Chair {
	all := d.registry.All()
	for i := range all {
		all[i].ReservationStatus = d.StatusOf(all[i])
	}
	return all
}

// Selected returns the chairs currently selected for reservation.
func (d *Desk) Selected() []models.Chair {
	var out []models.Chair
	for _, c := range d.registry.All() {
		if d.StatusOf(c) == models.StatusSelected {
			out = append(out, c)
		}
	}
	return out
}

// Toggle selects a free chair for reservation or releases a selected one.
// Pre-reserved and reserved chairs, and selections beyond the limit, are
// rejected with a notice; the returned status is the chair's status after
// the call and ok is false when nothing changed.
func (d *Desk) Toggle(id string) (models.ReservationStatus, bool) {
	c, found := d.registry.Get(id)
	if !found {
		return "", false
	}
	status := d.StatusOf(c)
	switch status {
	case models.StatusPreReserved, models.StatusReserved:
		d.reject(id, fmt.Sprintf("Seat %s is already reserved", c.Label))
		return status, false
	case models.StatusSelected:
		d.setStatus(id, models.StatusFree)
		return models.StatusFree, true
	}

	if limit := d.Limit(); limit > 0 && len(d.Selected()) >= limit {
		d.reject(id, fmt.Sprintf("You can select at most %d seats", limit))
		return status, false
	}
	d.setStatus(id, models.StatusSelected)
	return models.StatusSelected, true
}

// ReserveSelected marks every selected chair as reserved by by and returns them.
func (d *Desk) ReserveSelected(by string) []models.Chair {
	var out []models.Chair
	reserved := models.StatusReserved
	for _, c := range d.Selected() {
		updated, ok := d.registry.Update(c.ID, models.ChairPatch{ReservationStatus: &reserved, ReservedBy: &by})
		if ok {
			out = append(out, updated)
		}
	}
	if len(out) > 0 {
		d.logger.Info("seats reserved", zap.String("reserved_by", by), zap.Int("count", len(out)))
	}
	return out
}

func (d *Desk) setStatus(id string, s models.ReservationStatus) {
	d.registry.Update(id, models.ChairPatch{ReservationStatus: &s})
}

func (d *Desk) reject(id, msg string) {
	d.logger.Info("reservation rejected", zap.String("chair_id", id), zap.String("reason", msg))
	if d.notifier != nil {
		d.notifier.Notify(models.Notice{Level: models.NoticeWarning, Message: msg, ChairID: id, Time: d.now()})
	}
}
