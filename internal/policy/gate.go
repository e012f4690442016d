package policy

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// ErrForbidden is returned by Authorize when the user may not act.
var ErrForbidden = fmt.Errorf("%w: forbidden", domain.ErrUnauthorized)

// Action is an operation a user attempts.
type Action string

// Actions checked against tasks.
const (
	ActionViewAny Action = "view_any"
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

// Entity names the kind of resource an action targets.
type Entity string

// EntityTask is the only entity with rules.
const EntityTask Entity = "task"

// rule reports whether user may act. task is nil for collection-level actions.
type rule func(user *domain.User, task *domain.Task) bool

type ruleKey struct {
	action Action
	entity Entity
}

// Gate evaluates the rule table.
type Gate struct {
	rules map[ruleKey]rule
}

// NewGate returns a Gate with the task rules installed.
func NewGate() *Gate {
	return &Gate{
		rules: map[ruleKey]rule{
			{ActionViewAny, EntityTask}: func(u *domain.User, _ *domain.Task) bool { return authenticated(u) },
			{ActionView, EntityTask}:    func(u *domain.User, _ *domain.Task) bool { return authenticated(u) },
			{ActionCreate, EntityTask}:  func(u *domain.User, _ *domain.Task) bool { return authenticated(u) },
			{ActionUpdate, EntityTask}:  ownerOrAdmin,
			{ActionDelete, EntityTask}:  ownerOrAdmin,
		},
	}
}

// Allows reports whether user may perform action on entity. task may be nil
// for actions that do not target a single task.
func (g *Gate) Allows(user *domain.User, action Action, entity Entity, task *domain.Task) bool {
	r, ok := g.rules[ruleKey{action, entity}]
	if !ok {
		return false
	}
	return r(user, task)
}

// Authorize is Allows for tasks, returning ErrForbidden on denial.
func (g *Gate) Authorize(user *domain.User, action Action, task *domain.Task) error {
	if !g.Allows(user, action, EntityTask, task) {
		return fmt.Errorf("%w: %s task", ErrForbidden, action)
	}
	return nil
}

func authenticated(u *domain.User) bool {
	return u != nil && u.ID != uuid.Nil
}

func ownerOrAdmin(u *domain.User, t *domain.Task) bool {
	if !authenticated(u) || t == nil {
		return false
	}
	return u.IsAdmin() || t.UserID == u.ID
}
