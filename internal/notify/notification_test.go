package notify

import (
	"testing"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "New Task Created", ActionCreated.Subject())
	assert.Equal(t, "Task Completed", ActionCompleted.Subject())
	assert.Equal(t, "task.created", ActionCreated.RoutingKey())
	assert.Equal(t, "task.completed", ActionCompleted.RoutingKey())
	assert.False(t, Action("archived").IsValid())
}

func TestNewNotification(t *testing.T) {
	t.Parallel()

	task := ownedTask(domain.TaskStatusIncomplete)
	n, err := NewNotification(task, ActionCreated)
	require.NoError(t, err)

	assert.Equal(t, task.ID, n.TaskID)
	assert.Equal(t, "ada@example.com", n.RecipientEmail)
	assert.Equal(t, "Ada", n.RecipientName)
	require.NotNil(t, n.Description)

	*task.Description = "changed later"
	assert.Equal(t, "Numbers for Q3", *n.Description, "snapshot is independent of the task")

	task.Owner = nil
	_, err = NewNotification(task, ActionCreated)
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = NewNotification(ownedTask(domain.TaskStatusComplete), Action("archived"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestNotification_Message(t *testing.T) {
	t.Parallel()

	task := ownedTask(domain.TaskStatusComplete)
	task.Title = "Fix <script> tag"
	n, err := NewNotification(task, ActionCompleted)
	require.NoError(t, err)

	msg, err := n.Message()
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Task Completed", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "<h2>Task Completed</h2>")
	assert.Contains(t, msg.HTMLBody, "Fix &lt;script&gt; tag")
	assert.Contains(t, msg.HTMLBody, "Numbers for Q3")
	assert.Contains(t, msg.HTMLBody, "<strong>Complete</strong>")
	assert.Contains(t, msg.HTMLBody, "Thank you for using our Task Management System.")
}

func TestNotification_MessageWithoutDescription(t *testing.T) {
	t.Parallel()

	task := ownedTask(domain.TaskStatusIncomplete)
	task.Description = nil
	n, err := NewNotification(task, ActionCreated)
	require.NoError(t, err)

	msg, err := n.Message()
	require.NoError(t, err)
	assert.Equal(t, "New Task Created", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "<strong>Description:</strong> </p>")
}
