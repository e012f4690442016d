package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresJobStore implements job.Store on the jobs table.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

var _ job.Store = (*PostgresJobStore)(nil)

// errJobNotFound satisfies both store.ErrJobNotFound and job.ErrNotFound.
var errJobNotFound = fmt.Errorf("%w: %w", store.ErrJobNotFound, job.ErrNotFound)

// Save implements job.Store.Save.
func (s *PostgresJobStore) Save(ctx context.Context, j job.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
	`, j.ID(), j.Type(), j.Payload(), string(job.StatusPending), now)
	if err != nil {
		log.Error("failed to save job",
			slog.String("job_id", j.ID().String()),
			slog.String("job_type", j.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save job: %w", MapError(err))
	}
	return nil
}

// MarkProcessing implements job.Store.MarkProcessing.
func (s *PostgresJobStore) MarkProcessing(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := s.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = $1, attempts = attempts + 1, updated_at = $2
		WHERE id = $3
		RETURNING attempts
	`, string(job.StatusProcessing), time.Now().UTC(), id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errJobNotFound
		}
		return 0, fmt.Errorf("failed to mark job processing: %w", MapError(err))
	}
	return attempts, nil
}

// UpdateStatus implements job.Store.UpdateStatus.
func (s *PostgresJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status job.Status, errMsg string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`, string(status), sql.NullString{String: errMsg, Valid: errMsg != ""}, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", MapError(err))
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return errJobNotFound
	}
	return nil
}

// Pending implements job.Store.Pending.
func (s *PostgresJobStore) Pending(ctx context.Context) ([]job.Record, error) {
	return s.query(ctx, `
		SELECT id, type, payload, status, attempts, error_message, created_at, updated_at
		FROM jobs
		WHERE status = $1
		ORDER BY created_at ASC
	`, string(job.StatusPending))
}

// Processing implements job.Store.Processing.
func (s *PostgresJobStore) Processing(ctx context.Context, olderThan time.Duration) ([]job.Record, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.query(ctx, `
		SELECT id, type, payload, status, attempts, error_message, created_at, updated_at
		FROM jobs
		WHERE status = $1 AND updated_at <= $2
		ORDER BY created_at ASC
	`, string(job.StatusProcessing), cutoff)
}

func (s *PostgresJobStore) query(ctx context.Context, query string, args ...any) ([]job.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []job.Record
	for rows.Next() {
		var (
			rec     job.Record
			status  string
			lastErr sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Type,
			&rec.Payload,
			&status,
			&rec.Attempts,
			&lastErr,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		rec.Status = job.Status(status)
		rec.LastError = lastErr.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return records, nil
}
