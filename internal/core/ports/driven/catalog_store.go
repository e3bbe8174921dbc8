package driven

import (
	"context"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

// CatalogStore handles persistence of encoded calculation documents
// (PostgreSQL). The catalog is append-only per job: inserting an entry for
// a job that already has one is a no-op, never an overwrite.
type CatalogStore interface {
	// Insert adds one catalog entry. Returns domain.ErrAlreadyExists when
	// an entry for the same job is already cataloged.
	Insert(ctx context.Context, entry *domain.CatalogEntry) error

	// InsertBatch adds multiple entries in one transaction, skipping jobs
	// already cataloged. Returns the number actually inserted.
	InsertBatch(ctx context.Context, entries []*domain.CatalogEntry) (int, error)

	// Get retrieves an entry by its catalog ID
	Get(ctx context.Context, id string) (*domain.CatalogEntry, error)

	// GetByJobID retrieves the entry produced by a relaxation job
	GetByJobID(ctx context.Context, jobID int64) (*domain.CatalogEntry, error)

	// ListJobIDs returns the job IDs of every cataloged entry (for diffing
	// against the tracker's completed set)
	ListJobIDs(ctx context.Context) ([]int64, error)

	// List retrieves entries ordered by creation time with pagination
	List(ctx context.Context, limit, offset int) ([]*domain.CatalogEntry, error)

	// Count returns total entry count
	Count(ctx context.Context) (int, error)

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error
}

// JobTracker is the read-only face of the external launch system that runs
// relaxations on the cluster. The catalog updater diffs its completed set
// against the store and pulls full job records for the missing ones.
type JobTracker interface {
	// CompletedJobIDs returns the IDs of all jobs the tracker reports as
	// successfully completed.
	CompletedJobIDs(ctx context.Context) ([]int64, error)

	// Job retrieves one job with its initial and final structures.
	// Returns domain.ErrNotFound for unknown IDs.
	Job(ctx context.Context, id int64) (*domain.RelaxationJob, error)

	// Ping checks if the tracker backend is reachable.
	Ping(ctx context.Context) error
}
