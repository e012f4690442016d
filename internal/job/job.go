package job

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores for job ids they do not hold.
var ErrNotFound = errors.New("job not found")

// Status represents the current state of a job.
type Status string

// Possible job status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job represents a unit of background work.
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type names the job kind; the Registry rebuilds jobs by this name.
	Type() string

	// Payload returns the serialized job data persisted alongside it.
	Payload() []byte

	// Execute runs the job logic.
	Execute(ctx context.Context) error
}

// Record is the persisted form of a job.
type Record struct {
	ID        uuid.UUID
	Type      string
	Payload   []byte
	Status    Status
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists jobs so that unfinished work survives restarts.
type Store interface {
	// Save persists a new job in pending state.
	Save(ctx context.Context, job Job) error

	// MarkProcessing moves a job to processing, increments its attempt
	// counter and returns the new count.
	MarkProcessing(ctx context.Context, id uuid.UUID) (int, error)

	// UpdateStatus sets the status and last error of a job.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errMsg string) error

	// Pending returns all pending jobs, oldest first.
	Pending(ctx context.Context) ([]Record, error)

	// Processing returns jobs in processing state. A non-zero olderThan
	// keeps only jobs that have not been touched for at least that long.
	Processing(ctx context.Context, olderThan time.Duration) ([]Record, error)
}
