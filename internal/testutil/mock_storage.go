// mock_storage.go - Mock layout storage implementation for testing
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/storage"
)

// MockLayoutStore implements storage.LayoutStore in memory.
type MockLayoutStore struct {
	mu      sync.RWMutex
	docs    map[string]*models.LayoutDocument
	infos   map[string]*models.LayoutInfo
	nextID  int
	failErr error
	closed  bool
}

// NewMockLayoutStore creates an empty mock store.
func NewMockLayoutStore() *MockLayoutStore {
	return &MockLayoutStore{
		docs:  make(map[string]*models.LayoutDocument),
		infos: make(map[string]*models.LayoutInfo),
	}
}

// FailWith makes every following call return err until it is called with nil.
func (m *MockLayoutStore) FailWith(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

func (m *MockLayoutStore) Save(_ context.Context, id string, doc *models.LayoutDocument) (*models.LayoutInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}

	if id == "" {
		m.nextID++
		id = fmt.Sprintf("layout-%d", m.nextID)
	}
	savedAt := doc.Meta.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	copied := *doc
	m.docs[id] = &copied
	info := &models.LayoutInfo{
		ID:           id,
		Name:         doc.Meta.Name,
		Version:      doc.Meta.Version,
		ElementCount: len(doc.Elements),
		ChairCount:   len(doc.Chairs),
		SavedAt:      savedAt,
	}
	m.infos[id] = info
	out := *info
	return &out, nil
}

func (m *MockLayoutStore) Load(_ context.Context, id string) (*models.LayoutDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrLayoutNotFound, id)
	}
	copied := *doc
	return &copied, nil
}

func (m *MockLayoutStore) Get(_ context.Context, id string) (*models.LayoutInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	info, ok := m.infos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrLayoutNotFound, id)
	}
	out := *info
	return &out, nil
}

func (m *MockLayoutStore) List(_ context.Context, limit int) ([]*models.LayoutInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	list := make([]*models.LayoutInfo, 0, len(m.infos))
	for _, info := range m.infos {
		out := *info
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SavedAt.After(list[j].SavedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockLayoutStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrLayoutNotFound, id)
	}
	delete(m.docs, id)
	delete(m.infos, id)
	return nil
}

func (m *MockLayoutStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Count returns the number of stored layouts.
func (m *MockLayoutStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Closed reports whether Close was called.
func (m *MockLayoutStore) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

var _ storage.LayoutStore = (*MockLayoutStore)(nil)
