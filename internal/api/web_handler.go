package api

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Flash messages set after a successful page mutation.
const (
	FlashTaskCreated = "Task created."
	FlashTaskUpdated = "Task updated."
	FlashTaskDeleted = "Task deleted."
)

// Flash cookie names.
const (
	FlashCookie      = "flash"
	FlashErrorCookie = "flash_error"
)

// tasksPath is where every page mutation redirects.
const tasksPath = "/tasks"

var pageTemplate = template.Must(template.New("tasks").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Tasks</title></head>
<body>
{{if .Flash}}<p class="flash">{{.Flash}}</p>{{end}}
{{if .FlashError}}<p class="flash error">{{.FlashError}}</p>{{end}}
<form method="get" action="/tasks">
  <select name="filter">
    <option value="">All</option>
    {{range .Statuses}}<option value="{{.}}"{{if eq (print .) $.Filter}} selected{{end}}>{{.}}</option>{{end}}
  </select>
  <button type="submit">Filter</button>
</form>
<form method="post" action="/tasks">
  <input name="title" placeholder="Title">
  <input name="description" placeholder="Description">
  <select name="status">{{range .Writable}}<option value="{{.}}">{{.}}</option>{{end}}</select>
  <button type="submit">Create</button>
</form>
<table>
  <tr><th>Title</th><th>Description</th><th>Status</th><th>Owner</th><th></th></tr>
  {{range .Tasks}}
  <tr>
    <td>{{.Title}}</td>
    <td>{{with .Description}}{{.}}{{end}}</td>
    <td>{{.Status}}</td>
    <td>{{with .Owner}}{{.Name}}{{end}}</td>
    <td>
      <form method="post" action="/tasks/{{.ID}}">
        <input type="hidden" name="_method" value="PUT">
        <input type="hidden" name="status" value="Complete">
        <button type="submit">Complete</button>
      </form>
      <form method="post" action="/tasks/{{.ID}}">
        <input type="hidden" name="_method" value="DELETE">
        <button type="submit">Delete</button>
      </form>
    </td>
  </tr>
  {{end}}
</table>
</body>
</html>
`))

type pageData struct {
	Tasks      []*domain.Task
	Filter     string
	Statuses   []domain.TaskStatus
	Writable   []domain.TaskStatus
	Flash      string
	FlashError string
}

// WebHandler serves the server-rendered task page.
type WebHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewWebHandler creates a new WebHandler.
func NewWebHandler(tasks service.TaskService, logger *slog.Logger) *WebHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "web_handler")),
	}
}

// Index handles GET /tasks.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		http.Error(w, MsgUnauthorized, http.StatusUnauthorized)
		return
	}

	filter := r.URL.Query().Get("filter")
	tasks, err := h.tasks.ListTasks(r.Context(), user, store.TaskFilter{Status: domain.TaskStatus(filter)})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, pageData{Tasks: tasks, Filter: filter})
}

// Show handles GET /tasks/{id}.
func (h *WebHandler) Show(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		http.Error(w, MsgUnauthorized, http.StatusUnauthorized)
		return
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, pageData{Tasks: []*domain.Task{task}})
}

// Store handles POST /tasks.
func (h *WebHandler) Store(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		http.Error(w, MsgUnauthorized, http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, MsgInvalidBody, http.StatusBadRequest)
		return
	}

	in := domain.TaskInput{
		Title:  r.PostForm.Get("title"),
		Status: domain.TaskStatus(r.PostForm.Get("status")),
	}
	if r.PostForm.Has("description") {
		desc := r.PostForm.Get("description")
		in.Description = &desc
	}

	if _, err := h.tasks.CreateTask(r.Context(), user, in); err != nil {
		h.redirectOrError(w, r, err)
		return
	}
	redirectWithFlash(w, r, FlashCookie, FlashTaskCreated)
}

// Mutate handles POST /tasks/{id}, dispatching on the _method form field.
func (h *WebHandler) Mutate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		http.Error(w, MsgUnauthorized, http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, MsgInvalidBody, http.StatusBadRequest)
		return
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	switch strings.ToUpper(r.PostForm.Get("_method")) {
	case http.MethodPut, http.MethodPatch:
		if _, err := h.tasks.UpdateTask(r.Context(), user, id, formPatch(r.PostForm)); err != nil {
			h.redirectOrError(w, r, err)
			return
		}
		redirectWithFlash(w, r, FlashCookie, FlashTaskUpdated)

	case http.MethodDelete:
		if _, err := h.tasks.DeleteTask(r.Context(), user, id); err != nil {
			h.redirectOrError(w, r, err)
			return
		}
		redirectWithFlash(w, r, FlashCookie, FlashTaskDeleted)

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// formPatch builds a patch from the fields present in the form.
func formPatch(form url.Values) domain.TaskPatch {
	var patch domain.TaskPatch
	if form.Has("title") {
		title := form.Get("title")
		patch.Title = &title
	}
	if form.Has("description") {
		desc := form.Get("description")
		patch.Description = &desc
	}
	if form.Has("status") {
		status := domain.TaskStatus(form.Get("status"))
		patch.Status = &status
	}
	return patch
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	data.Statuses = domain.TaskStatuses
	data.Writable = domain.WritableTaskStatuses
	data.Flash = popFlash(w, r, FlashCookie)
	data.FlashError = popFlash(w, r, FlashErrorCookie)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).
			Error("failed to render task page", slog.String("error", err.Error()))
	}
}

// redirectOrError sends validation failures back to the page as an error
// flash. Other errors get a plain status page.
func (h *WebHandler) redirectOrError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		redirectWithFlash(w, r, FlashErrorCookie, formatFields(verr.Fields))
		return
	}
	h.renderError(w, r, err)
}

func (h *WebHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContextOrDefault(r.Context(), h.logger).
			Error("task page request failed", slog.String("error_type", errorType(err)))
	}
	http.Error(w, GetSafeErrorMessage(err), status)
}

func formatFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, "The "+name+" "+fields[name]+".")
	}
	return strings.Join(parts, " ")
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, name, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(message),
		Path:     tasksPath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, tasksPath, http.StatusSeeOther)
}

// popFlash reads a flash cookie and expires it.
func popFlash(w http.ResponseWriter, r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: name, Path: tasksPath, MaxAge: -1})

	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
