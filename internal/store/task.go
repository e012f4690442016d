package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskFilter narrows a task listing. The zero value lists every live task.
type TaskFilter struct {
	// Status, when non-empty, keeps only tasks whose status equals it exactly.
	Status domain.TaskStatus
}

// TaskStore defines the interface for task persistence.
// Soft-deleted tasks are invisible to every read except TitleTaken.
type TaskStore interface {
	// List returns live tasks with their owners, newest first.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Find returns a live task with its owner.
	// Returns ErrTaskNotFound if the task is absent or soft-deleted.
	Find(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Create inserts a new task.
	// Returns ErrTitleExists if the title is already used.
	Create(ctx context.Context, task *domain.Task) error

	// Update applies the present fields of patch to a live task and reports
	// whether a row was modified. An empty patch modifies nothing.
	// Returns ErrTaskNotFound or ErrTitleExists.
	Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (bool, error)

	// SoftDelete marks a live task as deleted.
	// Returns ErrTaskNotFound if the task is absent or already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)

	// TitleTaken reports whether any task, live or deleted, other than
	// excludeID uses title. Pass uuid.Nil to exclude nothing.
	TitleTaken(ctx context.Context, title string, excludeID uuid.UUID) (bool, error)

	// WithTx returns a TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
