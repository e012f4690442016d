package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MockTaskService implements service.TaskService for testing.
type MockTaskService struct {
	ListTasksFn  func(ctx context.Context, actor *domain.User, filter store.TaskFilter) ([]*domain.Task, error)
	GetTaskFn    func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	CreateTaskFn func(ctx context.Context, actor *domain.User, in domain.TaskInput) (*domain.Task, error)
	UpdateTaskFn func(ctx context.Context, actor *domain.User, id uuid.UUID, patch domain.TaskPatch) (bool, error)
	DeleteTaskFn func(ctx context.Context, actor *domain.User, id uuid.UUID) (bool, error)

	// Default response values
	Tasks   []*domain.Task
	Task    *domain.Task
	Changed bool
	Err     error

	mu      sync.Mutex
	Filters []store.TaskFilter
	Inputs  []domain.TaskInput
	Patches []domain.TaskPatch
	Actors  []*domain.User
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) record(actor *domain.User, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Actors = append(m.Actors, actor)
	if fn != nil {
		fn()
	}
}

// ListTasks implements service.TaskService.
func (m *MockTaskService) ListTasks(
	ctx context.Context,
	actor *domain.User,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	m.record(actor, func() { m.Filters = append(m.Filters, filter) })
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, actor, filter)
	}
	return m.Tasks, m.Err
}

// GetTask implements service.TaskService.
func (m *MockTaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, id)
	}
	return m.Task, m.Err
}

// CreateTask implements service.TaskService.
func (m *MockTaskService) CreateTask(
	ctx context.Context,
	actor *domain.User,
	in domain.TaskInput,
) (*domain.Task, error) {
	m.record(actor, func() { m.Inputs = append(m.Inputs, in) })
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, actor, in)
	}
	return m.Task, m.Err
}

// UpdateTask implements service.TaskService.
func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	actor *domain.User,
	id uuid.UUID,
	patch domain.TaskPatch,
) (bool, error) {
	m.record(actor, func() { m.Patches = append(m.Patches, patch) })
	if m.UpdateTaskFn != nil {
		return m.UpdateTaskFn(ctx, actor, id, patch)
	}
	return m.Changed, m.Err
}

// DeleteTask implements service.TaskService.
func (m *MockTaskService) DeleteTask(ctx context.Context, actor *domain.User, id uuid.UUID) (bool, error) {
	m.record(actor, nil)
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, actor, id)
	}
	return m.Changed, m.Err
}
