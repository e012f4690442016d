// Package service contains the application use cases.
//
// TaskService is the only path through which tasks are created, changed or
// deleted. It validates input, consults the policy gate before any store
// mutation and hands notifications to a notify.Dispatcher without waiting
// on delivery. Errors from the store and the gate are returned unchanged so
// callers can match them with errors.Is.
package service
