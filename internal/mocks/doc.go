// Package mocks provides shared test doubles for the service and store
// interfaces.
//
// Each mock exposes a function field per method. When a function field is
// nil the mock falls back to its default values, so tests only stub what
// they exercise:
//
//	tasks := &mocks.MockTaskService{
//	    GetTaskFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
//	        return nil, store.ErrTaskNotFound
//	    },
//	}
package mocks
