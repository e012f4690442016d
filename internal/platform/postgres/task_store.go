package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const taskColumns = `
	t.id, t.title, t.description, t.status, t.user_id, t.created_at, t.updated_at,
	u.id, u.name, u.email, u.role`

const taskFromJoin = `
	FROM tasks t
	JOIN users u ON u.id = t.user_id`

// PostgresTaskStore implements store.TaskStore using PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
// If logger is nil, slog.Default() is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// List implements store.TaskStore.List.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + taskColumns + taskFromJoin + `
	WHERE t.deleted_at IS NULL`
	var args []any
	if filter.Status != "" {
		query += ` AND t.status = $1`
		args = append(args, string(filter.Status))
	}
	query += `
	ORDER BY t.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("status_filter", string(filter.Status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	log.Debug("listed tasks",
		slog.Int("count", len(tasks)),
		slog.String("status_filter", string(filter.Status)))
	return tasks, nil
}

// Find implements store.TaskStore.Find.
func (s *PostgresTaskStore) Find(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + taskColumns + taskFromJoin + `
	WHERE t.id = $1 AND t.deleted_at IS NULL`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to find task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to find task: %w", MapError(err))
	}
	return task, nil
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, title, description, status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		nullString(task.Description),
		string(task.Status),
		task.UserID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrTitleExists) {
			log.Debug("task title already exists", slog.String("task_id", task.ID.String()))
			return store.ErrTitleExists
		}
		log.Error("failed to create task",
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create task: %w", mapped)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if patch.IsEmpty() {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, store.ErrTaskNotFound
		}
		return false, nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", nullString(patch.Description))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = $%d AND deleted_at IS NULL`,
		strings.Join(sets, ", "),
		len(args),
	)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrTitleExists) {
			return false, store.ErrTitleExists
		}
		log.Error("failed to update task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return false, fmt.Errorf("failed to update task: %w", mapped)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, store.ErrTaskNotFound
	}

	log.Info("task updated", slog.String("task_id", id.String()))
	return true, nil
}

// SoftDelete implements store.TaskStore.SoftDelete.
func (s *PostgresTaskStore) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		now, id)
	if err != nil {
		log.Error("failed to soft-delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return false, fmt.Errorf("failed to delete task: %w", MapError(err))
	}

	n, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, store.ErrTaskNotFound
	}

	log.Info("task soft-deleted", slog.String("task_id", id.String()))
	return true, nil
}

// TitleTaken implements store.TaskStore.TitleTaken.
func (s *PostgresTaskStore) TitleTaken(ctx context.Context, title string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE title = $1 AND id <> $2)`,
		title, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check task title: %w", MapError(err))
	}
	return taken, nil
}

// WithTx implements store.TaskStore.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

func (s *PostgresTaskStore) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND deleted_at IS NULL)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", MapError(err))
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		owner       domain.User
		description sql.NullString
		status      string
		role        string
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&status,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&owner.ID,
		&owner.Name,
		&owner.Email,
		&role,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	task.Status = domain.TaskStatus(status)
	owner.Role = domain.Role(role)
	task.Owner = &owner
	return &task, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
