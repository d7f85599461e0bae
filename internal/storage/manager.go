// Package storage persists layout documents.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/parser"
	"go.uber.org/zap"
)

// ErrLayoutNotFound is returned for unknown layout ids.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutStore defines the interface for layout persistence.
type LayoutStore interface {
	// Save stores doc under id, or under a fresh id when id is empty.
	Save(ctx context.Context, id string, doc *models.LayoutDocument) (*models.LayoutInfo, error)
	Load(ctx context.Context, id string) (*models.LayoutDocument, error)
	Get(ctx context.Context, id string) (*models.LayoutInfo, error)
	// List returns the most recently saved layouts first.
	List(ctx context.Context, limit int) ([]*models.LayoutInfo, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

const layoutExt = ".layout"

// encodePayload serializes doc in the binary layout format.
func encodePayload(doc *models.LayoutDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := parser.EncodeLayout(&buf, doc, parser.FormatMsgpack); err != nil {
		return nil, fmt.Errorf("encoding layout: %w", err)
	}
	return buf.Bytes(), nil
}

func decodePayload(data []byte) (*models.LayoutDocument, error) {
	doc, err := parser.DecodeLayout(bytes.NewReader(data), parser.FormatMsgpack)
	if err != nil {
		return nil, fmt.Errorf("decoding layout: %w", err)
	}
	return doc, nil
}

func infoFor(id string, doc *models.LayoutDocument, size int, savedAt time.Time) *models.LayoutInfo {
	return &models.LayoutInfo{
		ID:           id,
		Name:         doc.Meta.Name,
		Version:      doc.Meta.Version,
		ElementCount: len(doc.Elements),
		ChairCount:   len(doc.Chairs),
		Size:         int64(size),
		SavedAt:      savedAt,
	}
}

func sortRecent(list []*models.LayoutInfo, limit int) []*models.LayoutInfo {
	sort.Slice(list, func(i, j int) bool {
		return list[i].SavedAt.After(list[j].SavedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// LocalStore implements LayoutStore with one file per layout on the local
// filesystem. It is used when no database file is configured.
type LocalStore struct {
	mu      sync.RWMutex
	dir     string
	layouts map[string]*models.LayoutInfo
	now     func() time.Time
	logger  *zap.Logger
}

// NewLocalStore creates a LocalStore in dir and indexes the layouts already
// there. Unreadable files are skipped.
func NewLocalStore(dir string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating layout directory: %w", err)
	}

	s := &LocalStore{
		dir:     dir,
		layouts: make(map[string]*models.LayoutInfo),
		now:     time.Now,
		logger:  logger,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading layout directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), layoutExt) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), layoutExt)
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Warn("skipping unreadable layout", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		doc, err := decodePayload(data)
		if err != nil {
			logger.Warn("skipping corrupt layout", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		s.layouts[id] = infoFor(id, doc, len(data), doc.Meta.SavedAt)
	}
	logger.Info("layout directory indexed", zap.String("dir", dir), zap.Int("layouts", len(s.layouts)))
	return s, nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id+layoutExt)
}

// Save writes doc to disk, replacing any previous layout with the same id.
func (s *LocalStore) Save(_ context.Context, id string, doc *models.LayoutDocument) (*models.LayoutInfo, error) {
	if id == "" {
		id = uuid.New().String()
	} else if filepath.Base(id) != id {
		return nil, fmt.Errorf("invalid layout id %q", id)
	}
	savedAt := doc.Meta.SavedAt
	if savedAt.IsZero() {
		savedAt = s.now().UTC()
	}

	data, err := encodePayload(doc)
	if err != nil {
		return nil, err
	}

	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, fmt.Errorf("writing layout: %w", err)
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("writing layout: %w", err)
	}

	info := infoFor(id, doc, len(data), savedAt)
	s.mu.Lock()
	s.layouts[id] = info
	s.mu.Unlock()

	copied := *info
	return &copied, nil
}

// Load reads the layout with id.
func (s *LocalStore) Load(_ context.Context, id string) (*models.LayoutDocument, error) {
	s.mu.RLock()
	_, ok := s.layouts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	return decodePayload(data)
}

// Get retrieves layout metadata by ID.
func (s *LocalStore) Get(_ context.Context, id string) (*models.LayoutInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.layouts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}
	copied := *info
	return &copied, nil
}

// List returns the most recent layouts.
func (s *LocalStore) List(_ context.Context, limit int) ([]*models.LayoutInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.LayoutInfo, 0, len(s.layouts))
	for _, info := range s.layouts {
		copied := *info
		list = append(list, &copied)
	}
	return sortRecent(list, limit), nil
}

// Delete removes a layout from storage.
func (s *LocalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layouts[id]; !ok {
		return fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting layout: %w", err)
	}
	delete(s.layouts, id)
	return nil
}

// Close is a no-op; files are written synchronously.
func (s *LocalStore) Close() error { return nil }
