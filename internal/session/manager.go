// Package session keeps the live editor sessions of the HTTP service.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/seat-planner/backend/internal/editor"
	"github.com/seat-planner/backend/internal/models"
	"go.uber.org/zap"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion
const DefaultMaxSessions = 10

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many open sessions")
)

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Options configures a Manager.
type Options struct {
	MaxSessions int
	Settings    editor.Settings
	Rules       *models.VenueRules
	Clock       clockwork.Clock
	Logger      *zap.Logger
}

// Session is one open layout with its editor engine. The editor is
// single-threaded: callers hold Lock for the whole of every editor call
// sequence that must not interleave with another request.
type Session struct {
	ID        string
	Name      string
	LayoutID  string
	CreatedAt time.Time
	Editor    *editor.Editor

	edit         sync.Mutex
	lastAccessed time.Time
	stop         context.CancelFunc
	done         chan struct{}
}

// Lock acquires exclusive use of the session's editor.
func (s *Session) Lock() { s.edit.Lock() }

// Unlock releases the editor taken by Lock.
func (s *Session) Unlock() { s.edit.Unlock() }

// Manager handles active editor sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewManager creates a new session manager.
func NewManager(opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// Create opens a session. When doc is non-nil it is loaded into the editor;
// layoutID records where it came from. Idle sessions are evicted when the
// limit is reached; ErrTooManySessions is returned when none can be.
func (m *Manager) Create(name string, doc *models.LayoutDocument, layoutID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.opts.MaxSessions && !m.evictIdleLocked() {
		return nil, ErrTooManySessions
	}

	id := uuid.New().String()
	log := m.logger.With(zap.String("session_id", shortID(id)))
	opts := []editor.Option{editor.WithLogger(log), editor.WithClock(m.clock)}
	if m.opts.Rules != nil {
		rules := *m.opts.Rules
		opts = append(opts, editor.WithRules(&rules))
	}
	ed := editor.New(m.opts.Settings, opts...)

	if doc != nil {
		if err := ed.Load(doc); err != nil {
			return nil, fmt.Errorf("loading layout: %w", err)
		}
		if name == "" {
			name = doc.Meta.Name
		}
	}
	if name == "" {
		name = "Untitled layout"
	}

	now := m.clock.Now()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:           id,
		Name:         name,
		LayoutID:     layoutID,
		CreatedAt:    now,
		Editor:       ed,
		lastAccessed: now,
		stop:         cancel,
		done:         make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := ed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("overlay loop stopped", zap.Error(err))
		}
	}()

	m.sessions[id] = s
	log.Info("session opened", zap.String("name", name), zap.String("layout_id", layoutID))
	return s, nil
}

// evictIdleLocked closes the least recently used session outside the
// keep-alive window. It reports whether one was evicted.
func (m *Manager) evictIdleLocked() bool {
	keepAliveCutoff := m.clock.Now().Add(-SessionKeepAliveWindow)
	var oldest *Session
	for _, s := range m.sessions {
		if s.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if oldest == nil || s.lastAccessed.Before(oldest.lastAccessed) {
			oldest = s
		}
	}
	if oldest == nil {
		return false
	}
	m.closeLocked(oldest)
	m.logger.Info("evicted idle session to free memory", zap.String("session_id", shortID(oldest.ID)))
	return true
}

func (m *Manager) closeLocked(s *Session) {
	s.stop()
	<-s.done
	delete(m.sessions, s.ID)
}

// Get returns a session by ID and marks it as accessed.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.lastAccessed = m.clock.Now()
	return s, nil
}

// TouchSession updates the LastAccessed timestamp for a session.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.lastAccessed = m.clock.Now()
	return true
}

// SetLayoutID records the stored layout a session was last saved to.
func (m *Manager) SetLayoutID(id, layoutID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.LayoutID = layoutID
	return true
}

// Info describes a session.
func (m *Manager) Info(id string) (models.SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return models.SessionInfo{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return info(s), nil
}

func info(s *Session) models.SessionInfo {
	h := s.Editor.History()
	return models.SessionInfo{
		ID:           s.ID,
		Name:         s.Name,
		LayoutID:     s.LayoutID,
		ElementCount: s.Editor.Elements().Len(),
		ChairCount:   s.Editor.Chairs().Len(),
		CanUndo:      h.CanUndo(),
		CanRedo:      h.CanRedo(),
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.lastAccessed,
	}
}

// List returns every session, oldest first.
func (m *Manager) List() []models.SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]models.SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, info(s))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete closes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.closeLocked(s)
	m.logger.Info("session closed", zap.String("session_id", shortID(id)))
	return nil
}

// CleanupOldSessions closes sessions not accessed within maxAge, but keeps
// sessions accessed within SessionKeepAliveWindow. It returns how many were
// closed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	closed := 0
	for id, s := range m.sessions {
		if s.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if s.lastAccessed.Before(cutoff) {
			m.closeLocked(s)
			closed++
			m.logger.Info("cleaned up aged session",
				zap.String("session_id", shortID(id)),
				zap.Duration("idle", now.Sub(s.lastAccessed).Round(time.Second)))
		}
	}
	return closed
}

// RunCleanup sweeps idle sessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.CleanupOldSessions(maxAge)
		}
	}
}

// SetRules applies venue rules to every open session and to sessions
// created from now on.
func (m *Manager) SetRules(r *models.VenueRules) {
	if r == nil {
		return
	}
	m.mu.Lock()
	m.opts.Rules = r
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	// Session locks are taken without m.mu held; handlers call back into
	// the manager while holding their session.
	for _, s := range open {
		rules := *r
		s.Lock()
		s.Editor.SetRules(&rules)
		s.Unlock()
	}
}

// Rules returns the venue rules given to new sessions.
func (m *Manager) Rules() *models.VenueRules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.opts.Rules == nil {
		return models.DefaultVenueRules()
	}
	r := *m.opts.Rules
	return &r
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		m.closeLocked(s)
	}
}
