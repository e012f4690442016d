// Package policy decides which actions a user may take on which entities.
//
// Decisions come from a static table keyed by (Action, Entity). Pairs that
// are not in the table are denied.
package policy
