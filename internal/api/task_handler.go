package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Success messages of the JSON task API.
const (
	MsgTaskCreated = "Task created successfully"
	MsgTaskUpdated = "Task updated successfully"
	MsgTaskDeleted = "Task deleted successfully"
)

// TaskHandler serves the JSON task API.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks?filter=<status>.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, MsgUnauthorized)
		return
	}

	filter := store.TaskFilter{Status: domain.TaskStatus(r.URL.Query().Get("filter"))}
	tasks, err := h.tasks.ListTasks(r.Context(), user, filter)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	shared.RespondWithData(w, r, http.StatusOK, shared.DefaultMessage, tasks)
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, id, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, shared.DefaultMessage, task)
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, ok := currentUser(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, MsgUnauthorized)
		return
	}

	var req CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), user, req.Input())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("task created via API", slog.String("task_id", task.ID.String()))
	shared.RespondWithData(w, r, http.StatusCreated, MsgTaskCreated, task)
}

// UpdateTask handles PUT and PATCH /api/tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, id, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.tasks.UpdateTask(r.Context(), user, id, req.Patch())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, MsgTaskUpdated, updated)
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, id, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	deleted, err := h.tasks.DeleteTask(r.Context(), user, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, MsgTaskDeleted, deleted)
}

func errorType(err error) string {
	return fmt.Sprintf("%T", err)
}
