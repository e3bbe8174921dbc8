package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Ensure MockCatalogStore implements CatalogStore
var _ driven.CatalogStore = (*MockCatalogStore)(nil)

// MockCatalogStore is an in-memory CatalogStore for testing.
// It enforces the one-entry-per-job discipline the same way the
// Postgres implementation does.
type MockCatalogStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.CatalogEntry
	byJobID map[int64]*domain.CatalogEntry

	// Custom behavior hooks (optional)
	InsertFn  func(entry *domain.CatalogEntry) error
	PingErr   error
	InsertErr error
}

// NewMockCatalogStore creates a new MockCatalogStore.
func NewMockCatalogStore() *MockCatalogStore {
	return &MockCatalogStore{
		entries: make(map[string]*domain.CatalogEntry),
		byJobID: make(map[int64]*domain.CatalogEntry),
	}
}

func (m *MockCatalogStore) Insert(ctx context.Context, entry *domain.CatalogEntry) error {
	if m.InsertFn != nil {
		return m.InsertFn(entry)
	}
	if m.InsertErr != nil {
		return m.InsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byJobID[entry.JobID]; exists {
		return domain.ErrAlreadyExists
	}
	m.entries[entry.ID] = entry
	m.byJobID[entry.JobID] = entry
	return nil
}

func (m *MockCatalogStore) InsertBatch(ctx context.Context, entries []*domain.CatalogEntry) (int, error) {
	if m.InsertErr != nil {
		return 0, m.InsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, entry := range entries {
		if _, exists := m.byJobID[entry.JobID]; exists {
			continue
		}
		m.entries[entry.ID] = entry
		m.byJobID[entry.JobID] = entry
		inserted++
	}
	return inserted, nil
}

func (m *MockCatalogStore) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.entries[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

func (m *MockCatalogStore) GetByJobID(ctx context.Context, jobID int64) (*domain.CatalogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.byJobID[jobID]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

func (m *MockCatalogStore) ListJobIDs(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.byJobID))
	for id := range m.byJobID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockCatalogStore) List(ctx context.Context, limit, offset int) ([]*domain.CatalogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*domain.CatalogEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		all = append(all, entry)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].JobID < all[j].JobID })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockCatalogStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MockCatalogStore) Ping(ctx context.Context) error {
	return m.PingErr
}
