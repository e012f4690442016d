package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
)

// JobTypeMail is the job type of MailJob.
const JobTypeMail = "task_notification"

// MailJob renders a Notification and sends it.
type MailJob struct {
	id           uuid.UUID
	notification Notification
	payload      []byte
	sender       mail.Sender
}

// NewMailJob creates a MailJob with the given id.
func NewMailJob(id uuid.UUID, n Notification, sender mail.Sender) (*MailJob, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return &MailJob{id: id, notification: n, payload: payload, sender: sender}, nil
}

// ID implements job.Job.
func (j *MailJob) ID() uuid.UUID { return j.id }

// Type implements job.Job.
func (j *MailJob) Type() string { return JobTypeMail }

// Payload implements job.Job.
func (j *MailJob) Payload() []byte { return j.payload }

// Notification returns the snapshot the job sends.
func (j *MailJob) Notification() Notification { return j.notification }

// Execute implements job.Job.
func (j *MailJob) Execute(ctx context.Context) error {
	return Deliver(ctx, j.sender, j.notification)
}

// Deliver renders n and sends it through sender.
func Deliver(ctx context.Context, sender mail.Sender, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	msg, err := n.Message()
	if err != nil {
		return err
	}
	return sender.Send(ctx, msg)
}

// MailJobFactory rebuilds persisted mail jobs.
func MailJobFactory(sender mail.Sender) job.Factory {
	return func(id uuid.UUID, payload []byte) (job.Job, error) {
		var n Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		if err := n.Validate(); err != nil {
			return nil, err
		}
		return NewMailJob(id, n, sender)
	}
}

// RegisterJobs installs the notify job factories in reg.
func RegisterJobs(reg *job.Registry, sender mail.Sender) {
	reg.Register(JobTypeMail, MailJobFactory(sender))
}

// MessageHandler returns a broker handler that decodes a published
// Notification and delivers it.
func MessageHandler(sender mail.Sender) func(ctx context.Context, routingKey string, body []byte) error {
	return func(ctx context.Context, routingKey string, body []byte) error {
		var n Notification
		if err := json.Unmarshal(body, &n); err != nil {
			return fmt.Errorf("decode %s message: %w", routingKey, err)
		}
		if n.Action.RoutingKey() != routingKey {
			return fmt.Errorf("%w: routing key %s carries action %q", ErrUnknownAction, routingKey, n.Action)
		}
		return Deliver(ctx, sender, n)
	}
}

var _ job.Job = (*MailJob)(nil)
