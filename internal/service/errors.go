package service

import "fmt"

// ServiceError adds the failing operation to an unexpected error.
// Expected conditions (validation, not found, forbidden, conflict) are
// returned as their own sentinel or typed errors instead.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func taskError(op string, err error) error {
	return &ServiceError{Service: "task", Op: op, Err: err}
}
