package postgres_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"title unique", &pgconn.PgError{Code: "23505", ConstraintName: "tasks_title_key"}, store.ErrTitleExists},
		{"email unique", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, store.ErrEmailExists},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "jobs_pkey"}, store.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "tasks_user_id_fkey"}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "tasks_status_check"}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "title"}, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, postgres.MapError(tt.err), tt.want)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unrelated passes through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Same(t, plain, postgres.MapError(plain))
	})

	t.Run("title error is also a duplicate", func(t *testing.T) {
		err := postgres.MapError(&pgconn.PgError{Code: "23505", ConstraintName: "tasks_title_key"})
		assert.True(t, store.IsDuplicateError(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, postgres.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, postgres.IsUniqueViolation(errors.New("boom")))
}
