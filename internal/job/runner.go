package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory queue
	QueueSize int

	// MaxAttempts bounds how many times a job is executed before it is
	// left in failed state.
	MaxAttempts int

	// RetryBackoff is the delay before a failed attempt is requeued.
	RetryBackoff time.Duration

	// StuckJobAge defines how long a job can stay in processing state
	// before it's considered stuck and reset
	StuckJobAge time.Duration

	// StuckCheckInterval defines how often to check for stuck jobs and for
	// pending jobs that never made it into the queue.
	// If zero, defaults to 5 minutes
	StuckCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:        2,
		QueueSize:          100,
		MaxAttempts:        3,
		RetryBackoff:       5 * time.Second,
		StuckJobAge:        30 * time.Minute,
		StuckCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background job processing
type Runner struct {
	store      Store
	registry   *Registry
	queue      *Queue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(job Job, err error)

	// held tracks jobs sitting in the queue or waiting for a retry timer,
	// so the pending sweep does not queue them twice.
	heldMu sync.Mutex
	held   map[uuid.UUID]struct{}
}

// NewRunner creates a new Runner. The registry rebuilds recovered jobs.
func NewRunner(store Store, registry *Registry, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.StuckCheckInterval == 0 {
		config.StuckCheckInterval = 5 * time.Minute
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "job_runner")

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		registry:   registry,
		queue:      NewQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		held:       make(map[uuid.UUID]struct{}),
		errHandler: func(job Job, err error) {
			logger.Error("job failed permanently",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler sets the function called when a job exhausts its attempts.
func (r *Runner) SetErrorHandler(handler func(job Job, err error)) {
	r.errHandler = handler
}

// Submit persists a job and queues it for execution.
// A job that is saved but does not fit in the queue stays pending and is
// picked up by the pending sweep once it is older than RetryBackoff.
func (r *Runner) Submit(ctx context.Context, job Job) error {
	if err := r.store.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.enqueue(job); err != nil {
		return fmt.Errorf("job %s saved but not queued: %w", job.ID(), err)
	}
	return nil
}

// Start recovers unfinished jobs, then starts the workers and the stuck-job monitor.
func (r *Runner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckJobMonitor()

	return nil
}

// Stop signals workers to finish, waits for them and closes the queue.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.queue.Close()
}

// Recover requeues pending jobs and resets jobs left in processing by a crash.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.store.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	processing, err := r.store.Processing(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, rec := range pending {
		r.requeue(ctx, rec, false)
	}
	for _, rec := range processing {
		r.requeue(ctx, rec, true)
	}
	return nil
}

// enqueue queues job unless the runner already holds it.
func (r *Runner) enqueue(job Job) error {
	r.heldMu.Lock()
	defer r.heldMu.Unlock()

	if _, ok := r.held[job.ID()]; ok {
		return nil
	}
	if err := r.queue.Enqueue(job); err != nil {
		return err
	}
	r.held[job.ID()] = struct{}{}
	return nil
}

func (r *Runner) hold(id uuid.UUID) {
	r.heldMu.Lock()
	defer r.heldMu.Unlock()
	r.held[id] = struct{}{}
}

func (r *Runner) release(id uuid.UUID) {
	r.heldMu.Lock()
	defer r.heldMu.Unlock()
	delete(r.held, id)
}

func (r *Runner) isHeld(id uuid.UUID) bool {
	r.heldMu.Lock()
	defer r.heldMu.Unlock()
	_, ok := r.held[id]
	return ok
}

// requeue rebuilds rec and puts it back on the queue. When reset is true
// the job is first moved back to pending.
func (r *Runner) requeue(ctx context.Context, rec Record, reset bool) {
	if r.isHeld(rec.ID) {
		return
	}
	log := r.logger.With("job_id", rec.ID, "job_type", rec.Type)

	job, err := r.registry.Build(rec)
	if err != nil {
		log.Error("cannot rebuild job, marking failed", "error", err)
		if updateErr := r.store.UpdateStatus(ctx, rec.ID, StatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to mark unbuildable job failed", "error", updateErr)
		}
		return
	}

	if reset {
		if err := r.store.UpdateStatus(ctx, rec.ID, StatusPending, "reset after recovery"); err != nil {
			log.Error("failed to reset processing job status", "error", err)
			return
		}
	}

	if err := r.enqueue(job); err != nil {
		log.Error("failed to requeue job", "error", err)
	}
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-r.queue.Channel():
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}
			r.process(job, id)
		}
	}
}

func (r *Runner) process(job Job, workerID int) {
	ctx := r.ctx
	log := r.logger.With(
		"job_id", job.ID(),
		"job_type", job.Type(),
		"worker_id", workerID,
	)

	attempt, err := r.store.MarkProcessing(ctx, job.ID())
	r.release(job.ID())
	if err != nil {
		log.Error("failed to mark job processing", "error", err)
		return
	}

	log.Info("processing job", "attempt", attempt)

	execErr := job.Execute(ctx)
	if execErr == nil {
		log.Info("job completed successfully", "attempt", attempt)
		if err := r.store.UpdateStatus(ctx, job.ID(), StatusCompleted, ""); err != nil {
			log.Error("failed to update job status to completed", "error", err)
		}
		return
	}

	if errors.Is(execErr, context.Canceled) && r.ctx.Err() != nil {
		// Shutdown interrupted the job; leave it for recovery.
		log.Info("job interrupted by shutdown", "attempt", attempt)
		return
	}

	if attempt < r.config.MaxAttempts {
		log.Warn("job attempt failed, will retry",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"error", execErr)
		r.hold(job.ID())
		if err := r.store.UpdateStatus(ctx, job.ID(), StatusPending, execErr.Error()); err != nil {
			r.release(job.ID())
			log.Error("failed to update job status to pending", "error", err)
			return
		}
		r.retryLater(job)
		return
	}

	if err := r.store.UpdateStatus(ctx, job.ID(), StatusFailed, execErr.Error()); err != nil {
		log.Error("failed to update job status to failed", "error", err)
	}
	r.errHandler(job, execErr)
}

func (r *Runner) retryLater(job Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(r.config.RetryBackoff)
		defer timer.Stop()

		select {
		case <-r.ctx.Done():
			return
		case <-timer.C:
		}

		if err := r.queue.Enqueue(job); err != nil {
			// Left to the pending sweep.
			r.release(job.ID())
			r.logger.Error("failed to requeue job for retry",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
		}
	}()
}

// stuckJobMonitor periodically resets jobs that have stayed in processing too
// long and queues pending jobs the runner is not holding.
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.resetStuckJobs(r.ctx)
			r.sweepPending(r.ctx)
		}
	}
}

func (r *Runner) resetStuckJobs(ctx context.Context) {
	stuck, err := r.store.Processing(ctx, r.config.StuckJobAge)
	if err != nil {
		r.logger.Error("failed to check for stuck jobs", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck jobs", "count", len(stuck))
	for _, rec := range stuck {
		r.requeue(ctx, rec, true)
	}
}

// sweepPending queues pending jobs that were saved but never queued, or whose
// retry could not be queued. Jobs younger than RetryBackoff are skipped.
func (r *Runner) sweepPending(ctx context.Context) {
	pending, err := r.store.Pending(ctx)
	if err != nil {
		r.logger.Error("failed to check for pending jobs", "error", err)
		return
	}

	cutoff := time.Now().Add(-r.config.RetryBackoff)
	for _, rec := range pending {
		if rec.UpdatedAt.After(cutoff) || r.isHeld(rec.ID) {
			continue
		}
		r.logger.Debug("queueing orphaned pending job", "job_id", rec.ID, "job_type", rec.Type)
		r.requeue(ctx, rec, false)
	}
}
