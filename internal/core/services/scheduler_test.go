package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven/mocks"
)

func TestNewScheduler(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()

	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    queue,
		PollInterval: time.Minute,
	})

	if s == nil {
		t.Fatal("expected non-nil scheduler")
	}
	if s.interval != time.Minute {
		t.Errorf("expected interval 1m, got %v", s.interval)
	}
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	if s.interval != 30*time.Second {
		t.Errorf("expected default interval 30s, got %v", s.interval)
	}
	if s.logger == nil {
		t.Error("expected default logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:        mocks.NewMockSchedulerStore(),
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}

	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		t.Error("expected scheduler to be running")
	}

	// Start again should be no-op
	if err := s.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	s.Stop()

	s.mu.RLock()
	running = s.running
	s.mu.RUnlock()
	if running {
		t.Error("expected scheduler to be stopped")
	}

	// Stop again should be no-op
	s.Stop() // Should not panic
}

func TestScheduler_CreateAndGet(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	ctx := context.Background()

	scheduled := domain.NewScheduledTask("nightly-update", "Nightly catalog update", domain.TaskTypeIngestAll, 24*time.Hour)
	if err := s.CreateScheduledTask(ctx, scheduled); err != nil {
		t.Fatalf("failed to create scheduled task: %v", err)
	}

	retrieved, err := s.GetScheduledTask(ctx, "nightly-update")
	if err != nil {
		t.Fatalf("failed to get scheduled task: %v", err)
	}
	if retrieved.ID != "nightly-update" {
		t.Errorf("expected ID nightly-update, got %s", retrieved.ID)
	}
	if retrieved.Type != domain.TaskTypeIngestAll {
		t.Errorf("expected type %s, got %s", domain.TaskTypeIngestAll, retrieved.Type)
	}
}

func TestScheduler_ListScheduledTasks(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	ctx := context.Background()

	s.CreateScheduledTask(ctx, domain.NewScheduledTask("s1", "Update 1", domain.TaskTypeIngestAll, time.Hour))
	s.CreateScheduledTask(ctx, domain.NewScheduledTask("s2", "Update 2", domain.TaskTypeIngestAll, 6*time.Hour))

	tasks, err := s.ListScheduledTasks(ctx)
	if err != nil {
		t.Fatalf("failed to list scheduled tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(tasks))
	}
}

func TestScheduler_UpdateScheduledTask(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	ctx := context.Background()

	scheduled := domain.NewScheduledTask("s1", "Original", domain.TaskTypeIngestAll, time.Hour)
	s.CreateScheduledTask(ctx, scheduled)

	scheduled.Name = "Updated"
	scheduled.Interval = 2 * time.Hour

	if err := s.UpdateScheduledTask(ctx, scheduled); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	retrieved, _ := s.GetScheduledTask(ctx, "s1")
	if retrieved.Name != "Updated" {
		t.Errorf("expected name 'Updated', got %s", retrieved.Name)
	}
	if retrieved.Interval != 2*time.Hour {
		t.Errorf("expected interval 2h, got %v", retrieved.Interval)
	}
}

func TestScheduler_DeleteScheduledTask(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	ctx := context.Background()

	s.CreateScheduledTask(ctx, domain.NewScheduledTask("s1", "Test", domain.TaskTypeIngestAll, time.Hour))

	if err := s.DeleteScheduledTask(ctx, "s1"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	_, err := s.GetScheduledTask(ctx, "s1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduler_EnableDisable(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	ctx := context.Background()

	s.CreateScheduledTask(ctx, domain.NewScheduledTask("s1", "Test", domain.TaskTypeIngestAll, time.Hour))

	if err := s.DisableScheduledTask(ctx, "s1"); err != nil {
		t.Fatalf("failed to disable: %v", err)
	}
	retrieved, _ := s.GetScheduledTask(ctx, "s1")
	if retrieved.Enabled {
		t.Error("expected disabled")
	}

	if err := s.EnableScheduledTask(ctx, "s1"); err != nil {
		t.Fatalf("failed to enable: %v", err)
	}
	retrieved, _ = s.GetScheduledTask(ctx, "s1")
	if !retrieved.Enabled {
		t.Error("expected enabled")
	}
}

func TestScheduler_TriggerNow(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: queue,
	})

	ctx := context.Background()

	s.CreateScheduledTask(ctx, domain.NewScheduledTask("s1", "Test", domain.TaskTypeIngestAll, time.Hour))

	task, err := s.TriggerNow(ctx, "s1")
	if err != nil {
		t.Fatalf("failed to trigger: %v", err)
	}
	if task == nil {
		t.Fatal("expected task to be created")
	}
	if task.Type != domain.TaskTypeIngestAll {
		t.Errorf("expected task type %s, got %s", domain.TaskTypeIngestAll, task.Type)
	}

	enqueued, err := queue.ListTasks(ctx, driven.TaskFilter{Status: domain.TaskStatusPending})
	if err != nil {
		t.Fatalf("failed to list tasks: %v", err)
	}
	if len(enqueued) != 1 {
		t.Errorf("expected 1 enqueued task, got %d", len(enqueued))
	}
}

func TestScheduler_TriggerNow_NotFound(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	_, err := s.TriggerNow(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduler_CheckAndEnqueue(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	s := NewScheduler(SchedulerConfig{
		Store:        mocks.NewMockSchedulerStore(),
		TaskQueue:    queue,
		PollInterval: time.Hour, // Won't actually run in test
	})

	ctx := context.Background()

	// Due
	due := domain.NewScheduledTask("s1", "Due", domain.TaskTypeIngestAll, time.Hour)
	due.NextRun = time.Now().Add(-time.Minute)
	s.CreateScheduledTask(ctx, due)

	// Not due yet
	future := domain.NewScheduledTask("s2", "Future", domain.TaskTypeIngestAll, time.Hour)
	future.NextRun = time.Now().Add(time.Hour)
	s.CreateScheduledTask(ctx, future)

	// Due but disabled
	disabled := domain.NewScheduledTask("s3", "Disabled", domain.TaskTypeIngestAll, time.Hour)
	disabled.Enabled = false
	disabled.NextRun = time.Now().Add(-time.Minute)
	s.CreateScheduledTask(ctx, disabled)

	s.checkAndEnqueue(ctx)

	enqueued, _ := queue.ListTasks(ctx, driven.TaskFilter{Status: domain.TaskStatusPending})
	if len(enqueued) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(enqueued))
	}
	if enqueued[0].Type != domain.TaskTypeIngestAll {
		t.Errorf("expected task type %s, got %s", domain.TaskTypeIngestAll, enqueued[0].Type)
	}

	// Next run should have advanced past now
	retrieved, _ := s.GetScheduledTask(ctx, "s1")
	if !retrieved.NextRun.After(time.Now()) {
		t.Error("expected next run to be rescheduled into the future")
	}
}

func TestScheduler_CheckAndEnqueue_EnqueueError(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	queue.EnqueueFn = func(task *domain.Task) error {
		return errors.New("queue unavailable")
	}

	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: queue,
	})

	ctx := context.Background()

	due := domain.NewScheduledTask("s1", "Test", domain.TaskTypeIngestAll, time.Hour)
	due.NextRun = time.Now().Add(-time.Minute)
	s.CreateScheduledTask(ctx, due)

	// Should handle the error gracefully and record it
	s.checkAndEnqueue(ctx)

	retrieved, _ := s.GetScheduledTask(ctx, "s1")
	if retrieved.LastError != "queue unavailable" {
		t.Errorf("expected last error 'queue unavailable', got %q", retrieved.LastError)
	}
}

func TestScheduler_LockHeldByOtherInstance(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	lock := mocks.NewMockDistributedLock()
	lock.SetLockHeld("scheduler", time.Minute)

	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: queue,
		Lock:      lock,
	})

	ctx := context.Background()

	due := domain.NewScheduledTask("s1", "Test", domain.TaskTypeIngestAll, time.Hour)
	due.NextRun = time.Now().Add(-time.Minute)
	s.CreateScheduledTask(ctx, due)

	// Another instance holds the lock, so nothing should be enqueued
	s.checkAndEnqueue(ctx)

	enqueued, _ := queue.ListTasks(ctx, driven.TaskFilter{})
	if len(enqueued) != 0 {
		t.Errorf("expected 0 enqueued tasks while lock held, got %d", len(enqueued))
	}
}

func TestScheduler_LockAcquiredAndReleased(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	lock := mocks.NewMockDistributedLock()

	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: queue,
		Lock:      lock,
	})

	ctx := context.Background()

	due := domain.NewScheduledTask("s1", "Test", domain.TaskTypeIngestAll, time.Hour)
	due.NextRun = time.Now().Add(-time.Minute)
	s.CreateScheduledTask(ctx, due)

	s.checkAndEnqueue(ctx)

	enqueued, _ := queue.ListTasks(ctx, driven.TaskFilter{Status: domain.TaskStatusPending})
	if len(enqueued) != 1 {
		t.Errorf("expected 1 enqueued task, got %d", len(enqueued))
	}
	if lock.IsHeld("scheduler") {
		t.Error("expected lock to be released after the cycle")
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:        mocks.NewMockSchedulerStore(),
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())

	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// Give scheduler time to detect cancellation
	time.Sleep(200 * time.Millisecond)

	s.Stop()

	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if running {
		t.Error("expected scheduler to be stopped after context cancellation")
	}
}
