package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Ensure MockJobTracker implements JobTracker
var _ driven.JobTracker = (*MockJobTracker)(nil)

// MockJobTracker is an in-memory JobTracker for testing.
// Only jobs in the completed state are reported by CompletedJobIDs,
// matching the real tracker's filtering.
type MockJobTracker struct {
	mu   sync.RWMutex
	jobs map[int64]*domain.RelaxationJob

	// Custom behavior hooks (optional)
	CompletedJobIDsFn  func(ctx context.Context) ([]int64, error)
	CompletedJobIDsErr error
	JobErr             error
	PingErr            error
}

// NewMockJobTracker creates a new MockJobTracker.
func NewMockJobTracker() *MockJobTracker {
	return &MockJobTracker{
		jobs: make(map[int64]*domain.RelaxationJob),
	}
}

// AddJob registers a job for the tracker to report (for test setup).
func (m *MockJobTracker) AddJob(job *domain.RelaxationJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
}

func (m *MockJobTracker) CompletedJobIDs(ctx context.Context) ([]int64, error) {
	if m.CompletedJobIDsFn != nil {
		return m.CompletedJobIDsFn(ctx)
	}
	if m.CompletedJobIDsErr != nil {
		return nil, m.CompletedJobIDsErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []int64
	for id, job := range m.jobs {
		if job.State == domain.JobStateCompleted {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockJobTracker) Job(ctx context.Context, id int64) (*domain.RelaxationJob, error) {
	if m.JobErr != nil {
		return nil, m.JobErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (m *MockJobTracker) Ping(ctx context.Context) error {
	return m.PingErr
}
