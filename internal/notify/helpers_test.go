package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ownedTask(status domain.TaskStatus) *domain.Task {
	desc := "Numbers for Q3"
	owner := &domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: domain.RoleUser}
	return &domain.Task{
		ID:          uuid.New(),
		Title:       "Write report",
		Description: &desc,
		Status:      status,
		UserID:      owner.ID,
		Owner:       owner,
	}
}

// mockSender is a testify mock of mail.Sender.
type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// fakeSubmitter records submitted jobs.
type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []job.Job
	err  error
}

func (s *fakeSubmitter) Submit(_ context.Context, j job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// fakePublisher records published messages.
type fakePublisher struct {
	keys   []string
	values []any
	err    error
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.values = append(p.values, v)
	return nil
}
