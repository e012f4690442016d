package service_test

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// memoryTasks is an in-memory store.TaskStore. Deleted rows are kept.
type memoryTasks struct {
	mu        sync.Mutex
	tasks     map[uuid.UUID]*domain.Task
	users     map[uuid.UUID]*domain.User
	updateErr error
	creates   int
	updates   int
}

var _ store.TaskStore = (*memoryTasks)(nil)

func newMemoryTasks(users ...*domain.User) *memoryTasks {
	m := &memoryTasks{
		tasks: make(map[uuid.UUID]*domain.Task),
		users: make(map[uuid.UUID]*domain.User),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryTasks) withOwner(t *domain.Task) *domain.Task {
	out := *t
	out.Owner = m.users[t.UserID]
	return &out
}

func (m *memoryTasks) List(_ context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, t := range m.tasks {
		if t.IsDeleted() {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, m.withOwner(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryTasks) Find(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.IsDeleted() {
		return nil, store.ErrTaskNotFound
	}
	return m.withOwner(t), nil
}

func (m *memoryTasks) Create(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.Title == task.Title {
			return store.ErrTitleExists
		}
	}
	stored := *task
	stored.Owner = nil
	m.tasks[task.ID] = &stored
	m.creates++
	return nil
}

func (m *memoryTasks) Update(_ context.Context, id uuid.UUID, patch domain.TaskPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return false, m.updateErr
	}
	t, ok := m.tasks[id]
	if !ok || t.IsDeleted() {
		return false, store.ErrTaskNotFound
	}
	if patch.IsEmpty() {
		return false, nil
	}
	m.tasks[id] = patch.ApplyTo(t)
	m.updates++
	return true, nil
}

func (m *memoryTasks) SoftDelete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.IsDeleted() {
		return false, store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.DeletedAt = &now
	return true, nil
}

func (m *memoryTasks) TitleTaken(_ context.Context, title string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	title = strings.TrimSpace(title)
	for id, t := range m.tasks {
		if id != excludeID && t.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryTasks) WithTx(*sql.Tx) store.TaskStore {
	return m
}

// raw returns the stored row, including deleted ones.
func (m *memoryTasks) raw(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id]
}

type dispatched struct {
	task   *domain.Task
	action notify.Action
}

// recordingDispatcher captures notifications instead of delivering them.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []dispatched
}

func (d *recordingDispatcher) Enqueue(_ context.Context, task *domain.Task, action notify.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, dispatched{task: task, action: action})
}

func (d *recordingDispatcher) all() []dispatched {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatched(nil), d.sent...)
}

func newUser(name string, role domain.Role) *domain.User {
	return &domain.User{
		ID:    uuid.New(),
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
		Role:  role,
	}
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }
