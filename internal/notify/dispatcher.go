package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
)

// EventTaskNotification is the event type emitted for notifications.
const EventTaskNotification = "task.notification"

// Dispatcher hands notifications to an asynchronous transport.
// Enqueue never blocks on delivery and never fails the caller; transport
// errors are logged.
type Dispatcher interface {
	Enqueue(ctx context.Context, task *domain.Task, action Action)
}

// EventDispatcher emits notifications as events for in-process handlers.
type EventDispatcher struct {
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewEventDispatcher creates an EventDispatcher.
func NewEventDispatcher(emitter events.EventEmitter, logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{emitter: emitter, logger: logger.With("component", "notify_dispatcher")}
}

// Enqueue implements Dispatcher.
func (d *EventDispatcher) Enqueue(ctx context.Context, task *domain.Task, action Action) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	n, err := NewNotification(task, action)
	if err != nil {
		log.Error("cannot build notification", "task_id", task.ID, "action", action, "error", err)
		return
	}

	event, err := events.NewEvent(EventTaskNotification, n)
	if err != nil {
		log.Error("cannot build notification event", "task_id", task.ID, "error", err)
		return
	}

	if err := d.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to enqueue notification",
			"task_id", task.ID,
			"action", action,
			"error", err)
		return
	}
	log.Debug("notification enqueued", "task_id", task.ID, "action", action)
}

// Publisher publishes JSON messages under a routing key.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// BrokerDispatcher publishes notifications to a message broker.
type BrokerDispatcher struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewBrokerDispatcher creates a BrokerDispatcher.
func NewBrokerDispatcher(publisher Publisher, logger *slog.Logger) *BrokerDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrokerDispatcher{publisher: publisher, logger: logger.With("component", "notify_dispatcher")}
}

// Enqueue implements Dispatcher.
func (d *BrokerDispatcher) Enqueue(ctx context.Context, task *domain.Task, action Action) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	n, err := NewNotification(task, action)
	if err != nil {
		log.Error("cannot build notification", "task_id", task.ID, "action", action, "error", err)
		return
	}

	// The request context may end before the broker confirms the publish.
	if err := d.publisher.PublishJSON(context.WithoutCancel(ctx), action.RoutingKey(), n); err != nil {
		log.Error("failed to publish notification",
			"task_id", task.ID,
			"action", action,
			"error", err)
		return
	}
	log.Debug("notification published", "task_id", task.ID, "action", action)
}

// Submitter accepts jobs for background execution.
type Submitter interface {
	Submit(ctx context.Context, j job.Job) error
}

// NotificationEventHandler turns notification events into mail jobs.
type NotificationEventHandler struct {
	submitter Submitter
	sender    mail.Sender
	logger    *slog.Logger
}

// NewNotificationEventHandler creates a handler submitting to submitter.
func NewNotificationEventHandler(submitter Submitter, sender mail.Sender, logger *slog.Logger) *NotificationEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationEventHandler{
		submitter: submitter,
		sender:    sender,
		logger:    logger.With("component", "notification_event_handler"),
	}
}

// HandleEvent implements events.EventHandler.
func (h *NotificationEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != EventTaskNotification {
		return nil
	}

	var n Notification
	if err := event.Decode(&n); err != nil {
		return fmt.Errorf("decode notification event %s: %w", event.ID, err)
	}

	j, err := NewMailJob(uuid.New(), n, h.sender)
	if err != nil {
		return err
	}

	if err := h.submitter.Submit(context.WithoutCancel(ctx), j); err != nil {
		return fmt.Errorf("submit mail job for task %s: %w", n.TaskID, err)
	}

	h.logger.Debug("mail job submitted",
		"job_id", j.ID(),
		"task_id", n.TaskID,
		"action", n.Action)
	return nil
}

var (
	_ Dispatcher          = (*EventDispatcher)(nil)
	_ Dispatcher          = (*BrokerDispatcher)(nil)
	_ events.EventHandler = (*NotificationEventHandler)(nil)
)
