package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Ensure MockSchedulerStore implements SchedulerStore
var _ driven.SchedulerStore = (*MockSchedulerStore)(nil)

// MockSchedulerStore is an in-memory SchedulerStore for testing.
type MockSchedulerStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.ScheduledTask

	// Custom behavior hooks (optional)
	GetDueErr error
	SaveErr   error
}

// NewMockSchedulerStore creates a new MockSchedulerStore.
func NewMockSchedulerStore() *MockSchedulerStore {
	return &MockSchedulerStore{
		tasks: make(map[string]*domain.ScheduledTask),
	}
}

func (m *MockSchedulerStore) GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, exists := m.tasks[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (m *MockSchedulerStore) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]*domain.ScheduledTask, 0, len(m.tasks))
	for _, task := range m.tasks {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (m *MockSchedulerStore) SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *MockSchedulerStore) DeleteScheduledTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[id]; !exists {
		return domain.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MockSchedulerStore) GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	if m.GetDueErr != nil {
		return nil, m.GetDueErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []*domain.ScheduledTask
	for _, task := range m.tasks {
		if task.IsDue() {
			due = append(due, task)
		}
	}
	return due, nil
}

func (m *MockSchedulerStore) UpdateLastRun(ctx context.Context, id string, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, exists := m.tasks[id]
	if !exists {
		return domain.ErrNotFound
	}

	now := time.Now()
	task.LastRun = &now
	task.NextRun = now.Add(task.Interval)
	task.LastError = lastError
	return nil
}
