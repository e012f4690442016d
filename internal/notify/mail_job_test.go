package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMailJob_Execute(t *testing.T) {
	t.Parallel()

	n, err := NewNotification(ownedTask(domain.TaskStatusIncomplete), ActionCreated)
	require.NoError(t, err)

	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "ada@example.com" && msg.Subject == "New Task Created"
	})).Return(nil).Once()

	j, err := NewMailJob(uuid.New(), n, sender)
	require.NoError(t, err)
	assert.Equal(t, JobTypeMail, j.Type())
	require.NoError(t, j.Execute(context.Background()))
	sender.AssertExpectations(t)
}

func TestMailJobFactory_RoundTrip(t *testing.T) {
	t.Parallel()

	n, err := NewNotification(ownedTask(domain.TaskStatusComplete), ActionCompleted)
	require.NoError(t, err)
	original, err := NewMailJob(uuid.New(), n, nil)
	require.NoError(t, err)

	reg := job.NewRegistry()
	RegisterJobs(reg, mail.NewLogSender(discardLogger()))

	rebuilt, err := reg.Build(job.Record{ID: original.ID(), Type: JobTypeMail, Payload: original.Payload()})
	require.NoError(t, err)
	assert.Equal(t, original.ID(), rebuilt.ID())
	assert.Equal(t, n, rebuilt.(*MailJob).Notification())

	_, err = reg.Build(job.Record{ID: uuid.New(), Type: JobTypeMail, Payload: []byte(`{"action":"archived"}`)})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = reg.Build(job.Record{ID: uuid.New(), Type: JobTypeMail, Payload: []byte(`not json`)})
	assert.Error(t, err)
}

func TestMailJob_RetriedByRunner(t *testing.T) {
	t.Parallel()

	n, err := NewNotification(ownedTask(domain.TaskStatusComplete), ActionCompleted)
	require.NoError(t, err)

	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("421 try later")).Once()
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	store := job.NewMemoryStore()
	runner := job.NewRunner(store, job.NewRegistry(), job.RunnerConfig{
		WorkerCount:        1,
		QueueSize:          4,
		MaxAttempts:        3,
		RetryBackoff:       time.Millisecond,
		StuckJobAge:        time.Hour,
		StuckCheckInterval: time.Hour,
	}, discardLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	j, err := NewMailJob(uuid.New(), n, sender)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), j))

	require.Eventually(t, func() bool {
		rec, ok := store.Get(j.ID())
		return ok && rec.Status == job.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	rec, _ := store.Get(j.ID())
	assert.Equal(t, 2, rec.Attempts)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestMessageHandler(t *testing.T) {
	t.Parallel()

	n, err := NewNotification(ownedTask(domain.TaskStatusIncomplete), ActionCreated)
	require.NoError(t, err)
	j, err := NewMailJob(uuid.New(), n, nil)
	require.NoError(t, err)

	sender := mail.NewLogSender(discardLogger())
	handle := MessageHandler(sender)

	require.NoError(t, handle(context.Background(), "task.created", j.Payload()))
	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "New Task Created", sender.Sent()[0].Subject)

	assert.Error(t, handle(context.Background(), "task.completed", j.Payload()), "routing key must match the action")
	assert.Error(t, handle(context.Background(), "task.created", []byte(`{`)))
	assert.Len(t, sender.Sent(), 1)
}
