package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// CatalogService is the read/write face of the catalog. Writes go through
// the append-only discipline: an entry per job, first write wins.
type CatalogService struct {
	store driven.CatalogStore
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store driven.CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// Add inserts one entry. Returns domain.ErrAlreadyExists when the job is
// already cataloged; the existing entry is never modified.
func (s *CatalogService) Add(ctx context.Context, entry *domain.CatalogEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: nil entry", domain.ErrInvalidInput)
	}
	if entry.Doc == nil {
		return fmt.Errorf("%w: entry has no document", domain.ErrInvalidInput)
	}
	return s.store.Insert(ctx, entry)
}

// AddBatch inserts multiple entries, skipping jobs already cataloged.
// Returns the number actually inserted.
func (s *CatalogService) AddBatch(ctx context.Context, entries []*domain.CatalogEntry) (int, error) {
	for _, entry := range entries {
		if entry == nil || entry.Doc == nil {
			return 0, fmt.Errorf("%w: entry has no document", domain.ErrInvalidInput)
		}
	}
	return s.store.InsertBatch(ctx, entries)
}

// Get retrieves an entry by its catalog ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// GetByJobID retrieves the entry produced by a relaxation job.
func (s *CatalogService) GetByJobID(ctx context.Context, jobID int64) (*domain.CatalogEntry, error) {
	return s.store.GetByJobID(ctx, jobID)
}

// Has reports whether a job is already cataloged.
func (s *CatalogService) Has(ctx context.Context, jobID int64) (bool, error) {
	_, err := s.store.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List retrieves entries ordered by creation time, newest first.
// Limit is clamped to [1, 500]; zero means the default page size.
func (s *CatalogService) List(ctx context.Context, limit, offset int) ([]*domain.CatalogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// Count returns the total number of cataloged entries.
func (s *CatalogService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Health checks catalog store connectivity.
func (s *CatalogService) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}
