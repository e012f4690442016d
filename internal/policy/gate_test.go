package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGate_Allows(t *testing.T) {
	t.Parallel()

	owner := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	other := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	task := &domain.Task{ID: uuid.New(), UserID: owner.ID}

	gate := NewGate()

	tests := []struct {
		name   string
		user   *domain.User
		action Action
		task   *domain.Task
		want   bool
	}{
		{"anyone views the list", other, ActionViewAny, nil, true},
		{"anyone views a task", other, ActionView, task, true},
		{"anyone creates", other, ActionCreate, nil, true},
		{"owner updates", owner, ActionUpdate, task, true},
		{"owner deletes", owner, ActionDelete, task, true},
		{"admin updates foreign task", admin, ActionUpdate, task, true},
		{"admin deletes foreign task", admin, ActionDelete, task, true},
		{"other user cannot update", other, ActionUpdate, task, false},
		{"other user cannot delete", other, ActionDelete, task, false},
		{"anonymous cannot list", nil, ActionViewAny, nil, false},
		{"anonymous cannot create", nil, ActionCreate, nil, false},
		{"zero user cannot create", &domain.User{}, ActionCreate, nil, false},
		{"update without task denies", owner, ActionUpdate, nil, false},
		{"unknown action denies", admin, Action("archive"), task, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.Allows(tt.user, tt.action, EntityTask, tt.task))
		})
	}
}

func TestGate_UnknownEntityDenies(t *testing.T) {
	t.Parallel()

	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	assert.False(t, NewGate().Allows(admin, ActionView, Entity("project"), nil))
}

func TestGate_Authorize(t *testing.T) {
	t.Parallel()

	owner := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	other := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	task := &domain.Task{ID: uuid.New(), UserID: owner.ID}
	gate := NewGate()

	assert.NoError(t, gate.Authorize(owner, ActionDelete, task))

	err := gate.Authorize(other, ActionDelete, task)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
