package job

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownType is returned when no factory is registered for a job type.
var ErrUnknownType = errors.New("unknown job type")

// Factory rebuilds an executable job from its persisted id and payload.
type Factory func(id uuid.UUID, payload []byte) (Job, error)

// Registry maps job types to the factories that rebuild them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs the factory for jobType, replacing any previous one.
func (r *Registry) Register(jobType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[jobType] = factory
}

// Build rebuilds the job described by rec.
func (r *Registry) Build(rec Record) (Job, error) {
	r.mu.RLock()
	factory, ok := r.factories[rec.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, rec.Type)
	}

	job, err := factory(rec.ID, rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild %s job %s: %w", rec.Type, rec.ID, err)
	}
	return job, nil
}
