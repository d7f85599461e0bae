package testutil

import (
	"sync"

	"github.com/seat-planner/backend/internal/models"
)

// RecordingNotifier collects notices.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []models.Notice
}

func (r *RecordingNotifier) Notify(n models.Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of the collected notices.
func (r *RecordingNotifier) Notices() []models.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notice(nil), r.notices...)
}
