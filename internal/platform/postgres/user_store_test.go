package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userRowColumns = []string{"id", "name", "email", "role", "hashed_password", "created_at", "updated_at"}

func TestPostgresUserStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("hashes the password", func(t *testing.T) {
		db, mock := newMockDB(t)
		user, err := domain.NewUser("Ada", "Ada@Example.com", "secret-pass", domain.RoleUser)
		require.NoError(t, err)

		mock.ExpectExec(sqlPattern("INSERT INTO users", "VALUES ($1, $2, $3, $4, $5, $6, $7)")).
			WithArgs(user.ID, "Ada", "ada@example.com", "User", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger())
		require.NoError(t, s.Create(context.Background(), user))

		assert.Empty(t, user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("secret-pass")))
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		user, err := domain.NewUser("Ada", "ada@example.com", "secret-pass", domain.RoleUser)
		require.NoError(t, err)

		mock.ExpectExec(sqlPattern("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err = postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger()).Create(context.Background(), user)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("invalid user never reaches the database", func(t *testing.T) {
		db, _ := newMockDB(t)
		user := &domain.User{ID: uuid.New(), Name: "Ada", Email: "not-an-email", Role: domain.RoleUser, Password: "secret-pass"}

		err := postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger()).Create(context.Background(), user)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})
}

func TestPostgresUserStore_Get(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	now := time.Now().UTC()

	t.Run("by email is case insensitive", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(sqlPattern("FROM users WHERE email = $1")).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(id.String(), "Ada", "ada@example.com", "Admin", "$2a$hash", now, now))

		user, err := postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger()).
			GetByEmail(context.Background(), " ADA@example.com ")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.True(t, user.IsAdmin())
		assert.Equal(t, "$2a$hash", user.HashedPassword)
	})

	t.Run("by id not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(sqlPattern("FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		_, err := postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger()).
			GetByID(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
