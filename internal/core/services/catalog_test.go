package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven/mocks"
)

func newTestEntry(jobID int64) *domain.CatalogEntry {
	return &domain.CatalogEntry{
		ID:    domain.GenerateID(),
		JobID: jobID,
		Doc:   &domain.Document{User: "catalog-bot"},
	}
}

func TestCatalogService_Add(t *testing.T) {
	store := mocks.NewMockCatalogStore()
	svc := NewCatalogService(store)
	ctx := context.Background()

	entry := newTestEntry(1)
	require.NoError(t, svc.Add(ctx, entry))

	retrieved, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), retrieved.JobID)
}

func TestCatalogService_Add_DuplicateJob(t *testing.T) {
	svc := NewCatalogService(mocks.NewMockCatalogStore())
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, newTestEntry(1)))

	err := svc.Add(ctx, newTestEntry(1))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCatalogService_Add_Invalid(t *testing.T) {
	svc := NewCatalogService(mocks.NewMockCatalogStore())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, nil), domain.ErrInvalidInput)

	noDoc := &domain.CatalogEntry{ID: "e1", JobID: 1}
	assert.ErrorIs(t, svc.Add(ctx, noDoc), domain.ErrInvalidInput)
}

func TestCatalogService_AddBatch_SkipsExisting(t *testing.T) {
	svc := NewCatalogService(mocks.NewMockCatalogStore())
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, newTestEntry(2)))

	inserted, err := svc.AddBatch(ctx, []*domain.CatalogEntry{
		newTestEntry(1),
		newTestEntry(2), // already cataloged
		newTestEntry(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCatalogService_GetByJobID(t *testing.T) {
	svc := NewCatalogService(mocks.NewMockCatalogStore())
	ctx := context.Background()

	entry := newTestEntry(99)
	require.NoError(t, svc.Add(ctx, entry))

	retrieved, err := svc.GetByJobID(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, retrieved.ID)

	_, err = svc.GetByJobID(ctx, 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogService_Has(t *testing.T) {
	svc := NewCatalogService(mocks.NewMockCatalogStore())
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, newTestEntry(5)))

	has, err := svc.Has(ctx, 5)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.Has(ctx, 6)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCatalogService_List_ClampsLimit(t *testing.T) {
	store := mocks.NewMockCatalogStore()
	svc := NewCatalogService(store)
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		require.NoError(t, svc.Add(ctx, newTestEntry(int64(i))))
	}

	// Zero limit means the default page size
	entries, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 50)

	// Negative offset is treated as zero
	entries, err = svc.List(ctx, 10, -5)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	// Oversized limit is clamped, not an error
	_, err = svc.List(ctx, 10000, 0)
	assert.NoError(t, err)
}

func TestCatalogService_Health(t *testing.T) {
	store := mocks.NewMockCatalogStore()
	svc := NewCatalogService(store)

	assert.NoError(t, svc.Health(context.Background()))

	store.PingErr = fmt.Errorf("connection lost")
	assert.Error(t, svc.Health(context.Background()))
}
