package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	seen []*Event
	err  error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *Event) error {
	h.seen = append(h.seen, event)
	return h.err
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	event, err := NewEvent("task.created", map[string]string{"title": "Write report"})
	require.NoError(t, err)
	assert.Equal(t, "task.created", event.Type)
	assert.False(t, event.OccurredAt.IsZero())

	var payload map[string]string
	require.NoError(t, event.Decode(&payload))
	assert.Equal(t, "Write report", payload["title"])

	_, err = NewEvent("bad", make(chan int))
	assert.Error(t, err)
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewEvent("noop", nil)
		require.NoError(t, err)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("all handlers see the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		first, second := &recordingHandler{}, &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event, err := NewEvent("task.created", nil)
		require.NoError(t, err)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, []*Event{event}, first.seen)
		assert.Equal(t, []*Event{event}, second.seen)
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		failErr := errors.New("boom")
		failing := &recordingHandler{err: failErr}
		after := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(after)
		emitter.RegisterHandler(EventHandlerFunc(func(context.Context, *Event) error {
			return errors.New("second failure")
		}))

		event, err := NewEvent("task.completed", nil)
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.ErrorIs(t, err, failErr)
		assert.Len(t, after.seen, 1)
	})
}
