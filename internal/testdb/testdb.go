// Package testdb provides helpers for tests that need a real Postgres database.
//
// Tests using it are skipped unless DATABASE_URL is set, so the default test
// run needs no external services.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// EnvDatabaseURL names the environment variable holding the test database DSN.
const EnvDatabaseURL = "DATABASE_URL"

// DatabaseURL returns the configured test database URL, or "" when unset.
func DatabaseURL() string {
	return strings.TrimSpace(os.Getenv(EnvDatabaseURL))
}

// Open connects to the test database and applies all migrations.
// The test is skipped when no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := DatabaseURL()
	if dsn == "" {
		t.Skipf("%s not set; skipping database test", EnvDatabaseURL)
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "ping test database at %s", MaskURL(dsn))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, postgres.Migrate(context.Background(), db, postgres.MigrateUp, logger), "migrate test database")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back,
// so tests can write freely without leaving rows behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "begin test transaction")
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			t.Logf("rollback test transaction: %v", rbErr)
		}
	}()

	fn(t, tx)
}

// MaskURL hides the password of a database URL for log output.
func MaskURL(dsn string) string {
	scheme := strings.Index(dsn, "://")
	at := strings.LastIndex(dsn, "@")
	if scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon] + ":****"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}
