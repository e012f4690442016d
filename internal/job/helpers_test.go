package job

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeJob executes fn and counts its calls.
type fakeJob struct {
	id      uuid.UUID
	typ     string
	payload []byte
	calls   atomic.Int32
	fn      func(ctx context.Context, call int) error
}

func newFakeJob(fn func(ctx context.Context, call int) error) *fakeJob {
	return &fakeJob{id: uuid.New(), typ: "fake", payload: []byte(`{}`), fn: fn}
}

func (j *fakeJob) ID() uuid.UUID   { return j.id }
func (j *fakeJob) Type() string    { return j.typ }
func (j *fakeJob) Payload() []byte { return j.payload }

func (j *fakeJob) Execute(ctx context.Context) error {
	call := int(j.calls.Add(1))
	if j.fn == nil {
		return nil
	}
	return j.fn(ctx, call)
}
