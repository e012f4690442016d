// Package store defines the persistence interfaces for users and tasks,
// the shared store errors, and a transaction helper. Implementations live
// in internal/platform/postgres.
package store
