package notify

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
)

// Action tags why a notification is sent.
type Action string

// Notification actions.
const (
	ActionCreated   Action = "created"
	ActionCompleted Action = "completed"
)

// ErrNoRecipient is returned for tasks whose owner is not loaded.
var ErrNoRecipient = errors.New("task owner not loaded")

// ErrUnknownAction is returned when decoding a notification with an unknown action.
var ErrUnknownAction = errors.New("unknown notification action")

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	return a == ActionCreated || a == ActionCompleted
}

// RoutingKey is the broker routing key for a.
func (a Action) RoutingKey() string {
	return "task." + string(a)
}

// Subject is the email subject for a.
func (a Action) Subject() string {
	if a == ActionCreated {
		return "New Task Created"
	}
	return "Task Completed"
}

// Notification is the snapshot sent to the worker.
type Notification struct {
	TaskID         uuid.UUID         `json:"task_id"`
	Title          string            `json:"title"`
	Description    *string           `json:"description,omitempty"`
	Status         domain.TaskStatus `json:"status"`
	Action         Action            `json:"action"`
	RecipientEmail string            `json:"recipient_email"`
	RecipientName  string            `json:"recipient_name"`
}

// NewNotification snapshots task for action. The task owner must be loaded.
func NewNotification(task *domain.Task, action Action) (Notification, error) {
	if !action.IsValid() {
		return Notification{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if task.Owner == nil || task.Owner.Email == "" {
		return Notification{}, ErrNoRecipient
	}

	n := Notification{
		TaskID:         task.ID,
		Title:          task.Title,
		Status:         task.Status,
		Action:         action,
		RecipientEmail: task.Owner.Email,
		RecipientName:  task.Owner.Name,
	}
	if task.Description != nil {
		desc := *task.Description
		n.Description = &desc
	}
	return n, nil
}

// Validate checks a decoded notification.
func (n Notification) Validate() error {
	if !n.Action.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, n.Action)
	}
	if n.RecipientEmail == "" {
		return ErrNoRecipient
	}
	return nil
}

var statusTemplate = template.Must(template.New("task-status").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Task Notification</title>
</head>
<body>
    <h2>{{.Subject}}</h2>

    <p><strong>Title:</strong> {{.Title}}</p>
    <p><strong>Description:</strong> {{.Description}}</p>

    <p>Status: <strong>{{.Status}}</strong></p>
    <p>Thank you for using our Task Management System.</p>
</body>
</html>
`))

// Message renders the notification email.
func (n Notification) Message() (mail.Message, error) {
	desc := ""
	if n.Description != nil {
		desc = *n.Description
	}

	var body bytes.Buffer
	err := statusTemplate.Execute(&body, struct {
		Subject, Title, Description string
		Status                      domain.TaskStatus
	}{n.Action.Subject(), n.Title, desc, n.Status})
	if err != nil {
		return mail.Message{}, fmt.Errorf("render notification: %w", err)
	}

	return mail.Message{
		To:       n.RecipientEmail,
		ToName:   n.RecipientName,
		Subject:  n.Action.Subject(),
		HTMLBody: body.String(),
	}, nil
}
