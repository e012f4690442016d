// Package domain contains the core business entities of the task board:
// users with their roles, tasks with their status lifecycle, and the
// validation rules both must satisfy before reaching a store.
package domain
