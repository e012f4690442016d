package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/policy"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TaskService provides task use cases.
type TaskService interface {
	// ListTasks returns live tasks, newest first, optionally filtered by status.
	ListTasks(ctx context.Context, actor *domain.User, filter store.TaskFilter) ([]*domain.Task, error)

	// GetTask returns a live task or store.ErrTaskNotFound.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// CreateTask creates a task owned by actor and enqueues a "created" notification.
	CreateTask(ctx context.Context, actor *domain.User, in domain.TaskInput) (*domain.Task, error)

	// UpdateTask applies patch and reports whether the row changed. Setting
	// the status to Complete enqueues a "completed" notification.
	UpdateTask(ctx context.Context, actor *domain.User, id uuid.UUID, patch domain.TaskPatch) (bool, error)

	// DeleteTask soft-deletes a task.
	DeleteTask(ctx context.Context, actor *domain.User, id uuid.UUID) (bool, error)
}

type taskServiceImpl struct {
	tasks      store.TaskStore
	gate       *policy.Gate
	dispatcher notify.Dispatcher
	logger     *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	gate *policy.Gate,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if gate == nil {
		return nil, domain.NewValidationError("gate", "cannot be nil", domain.ErrValidation)
	}
	if dispatcher == nil {
		return nil, domain.NewValidationError("dispatcher", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		tasks:      tasks,
		gate:       gate,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "task_service")),
	}, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	actor *domain.User,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	if err := s.gate.Authorize(actor, policy.ActionViewAny, nil); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, taskError("list", err)
	}
	return tasks, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.Find(ctx, id)
	if err != nil {
		return nil, s.storeError("get", err)
	}
	return task, nil
}

// CreateTask implements TaskService.CreateTask.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	actor *domain.User,
	in domain.TaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	verr, err := asValidationError(in.Validate())
	if err != nil {
		return nil, err
	}
	if err := s.checkTitle(ctx, verr, in.Title, uuid.Nil); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if err := s.gate.Authorize(actor, policy.ActionCreate, nil); err != nil {
		return nil, err
	}

	// The owner always comes from the acting user.
	task, err := domain.NewTask(actor.ID, in)
	if err != nil {
		return nil, err
	}
	task.Owner = actor

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, s.storeError("create", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", actor.ID.String()))

	s.dispatcher.Enqueue(ctx, task, notify.ActionCreated)
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	actor *domain.User,
	id uuid.UUID,
	patch domain.TaskPatch,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.tasks.Find(ctx, id)
	if err != nil {
		return false, s.storeError("update", err)
	}

	patch = patch.Normalize()
	verr, err := asValidationError(patch.Validate())
	if err != nil {
		return false, err
	}
	if patch.Title != nil {
		if err := s.checkTitle(ctx, verr, *patch.Title, id); err != nil {
			return false, err
		}
	}
	if verr.HasErrors() {
		return false, verr
	}

	if err := s.gate.Authorize(actor, policy.ActionUpdate, task); err != nil {
		log.Warn("task update denied",
			slog.String("task_id", id.String()),
			slog.String("user_id", actorID(actor)))
		return false, err
	}

	updated, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		return false, s.storeError("update", err)
	}

	if patch.Status != nil && *patch.Status == domain.TaskStatusComplete {
		s.dispatcher.Enqueue(ctx, patch.ApplyTo(task), notify.ActionCompleted)
	}
	return updated, nil
}

// DeleteTask implements TaskService.DeleteTask.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, actor *domain.User, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.tasks.Find(ctx, id)
	if err != nil {
		return false, s.storeError("delete", err)
	}

	if err := s.gate.Authorize(actor, policy.ActionDelete, task); err != nil {
		log.Warn("task delete denied",
			slog.String("task_id", id.String()),
			slog.String("user_id", actorID(actor)))
		return false, err
	}

	deleted, err := s.tasks.SoftDelete(ctx, id)
	if err != nil {
		return false, s.storeError("delete", err)
	}
	return deleted, nil
}

// checkTitle records a uniqueness failure for a non-blank title in verr.
func (s *taskServiceImpl) checkTitle(ctx context.Context, verr *domain.ValidationError, title string, excludeID uuid.UUID) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	taken, err := s.tasks.TitleTaken(ctx, title, excludeID)
	if err != nil {
		return taskError("check title", err)
	}
	if taken {
		verr.Add("title", domain.MsgTitleTaken)
	}
	return nil
}

// storeError passes expected store errors through and wraps the rest.
func (s *taskServiceImpl) storeError(op string, err error) error {
	if errors.Is(err, store.ErrTaskNotFound) || errors.Is(err, store.ErrTitleExists) {
		return err
	}
	return taskError(op, err)
}

// asValidationError returns err as a ValidationError to extend, or a fresh
// empty one when err is nil. Other errors are returned as-is.
func asValidationError(err error) (*domain.ValidationError, error) {
	if err == nil {
		return &domain.ValidationError{Err: domain.ErrValidation}, nil
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr, nil
	}
	return nil, err
}

func actorID(actor *domain.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID.String()
}
