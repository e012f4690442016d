package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: domain.RoleUser}
}

func testTask(owner *domain.User, title string) *domain.Task {
	now := time.Now().UTC()
	return &domain.Task{
		ID:        uuid.New(),
		Title:     title,
		Status:    domain.TaskStatusIncomplete,
		UserID:    owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Owner:     owner,
	}
}

// asUser injects user into every request; nil leaves requests anonymous.
func asUser(user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(shared.WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// taskRouter mounts the JSON and page handlers the way the server does.
func taskRouter(svc *mocks.MockTaskService, user *domain.User) http.Handler {
	api := NewTaskHandler(svc, discardLogger())
	web := NewWebHandler(svc, discardLogger())

	r := chi.NewRouter()
	r.Use(asUser(user))
	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", api.ListTasks)
		r.Post("/", api.CreateTask)
		r.Get("/{id}", api.GetTask)
		r.Put("/{id}", api.UpdateTask)
		r.Patch("/{id}", api.UpdateTask)
		r.Delete("/{id}", api.DeleteTask)
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", web.Index)
		r.Post("/", web.Store)
		r.Get("/{id}", web.Show)
		r.Post("/{id}", web.Mutate)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
