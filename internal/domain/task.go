package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the completion state of a task.
type TaskStatus string

// Possible task status values. Todo is readable but never accepted on writes.
const (
	TaskStatusTodo       TaskStatus = "Todo"
	TaskStatusIncomplete TaskStatus = "Incomplete"
	TaskStatusComplete   TaskStatus = "Complete"
)

// TaskStatuses lists every defined status, in declaration order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusIncomplete, TaskStatusComplete}

// WritableTaskStatuses lists the statuses accepted on create and update.
var WritableTaskStatuses = []TaskStatus{TaskStatusIncomplete, TaskStatusComplete}

// IsValid reports whether s is a defined status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusIncomplete, TaskStatusComplete:
		return true
	default:
		return false
	}
}

// IsWritable reports whether s may be set through create or update.
func (s TaskStatus) IsWritable() bool {
	return s == TaskStatusIncomplete || s == TaskStatusComplete
}

// Validation messages reported per field.
const (
	MsgTitleRequired  = "is required"
	MsgTitleTaken     = "has already been taken"
	MsgStatusRequired = "is required"
	MsgStatusInvalid  = "must be one of: Incomplete, Complete"
)

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	UserID      uuid.UUID  `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Owner is populated by reads that join the owning user.
	Owner *User `json:"user,omitempty"`
}

// TaskInput carries the caller-controlled fields of a new task.
// The owner is never part of the input; it comes from the acting user.
type TaskInput struct {
	Title       string
	Description *string
	Status      TaskStatus
}

// Validate checks the title and status of the input.
// Uniqueness is not checked here; it needs the store.
func (in TaskInput) Validate() error {
	verr := in.validate()
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (in TaskInput) validate() *ValidationError {
	verr := &ValidationError{Err: ErrValidation}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", MsgTitleRequired)
	}
	switch {
	case in.Status == "":
		verr.Add("status", MsgStatusRequired)
	case !in.Status.IsWritable():
		verr.Add("status", MsgStatusInvalid)
	}
	return verr
}

// NewTask creates a Task owned by userID from the given input.
// Returns a *ValidationError describing every invalid field.
func NewTask(userID uuid.UUID, in TaskInput) (*Task, error) {
	verr := in.validate()
	if userID == uuid.Nil {
		verr.Add("user_id", "is required")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	now := time.Now().UTC()
	return &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: normalizeDescription(in.Description),
		Status:      in.Status,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// Normalize trims the title and turns a blank description into nil.
func (p TaskPatch) Normalize() TaskPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	return p
}

// Validate checks the fields present in the patch.
// Uniqueness is not checked here; it needs the store.
func (p TaskPatch) Validate() error {
	verr := &ValidationError{Err: ErrValidation}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		verr.Add("title", MsgTitleRequired)
	}
	if p.Status != nil && !p.Status.IsWritable() {
		verr.Add("status", MsgStatusInvalid)
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// ApplyTo returns a copy of t with the patch applied.
func (p TaskPatch) ApplyTo(t *Task) *Task {
	out := *t
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = normalizeDescription(p.Description)
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	out.UpdatedAt = time.Now().UTC()
	return &out
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
