package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type seedAccount struct {
	name, email, password string
	role                  domain.Role
}

// seedAccounts creates the configured Admin and User accounts in one
// transaction. Accounts whose email already exists are left untouched, so
// seeding can be repeated.
func seedAccounts(ctx context.Context, db *sql.DB, cfg config.SeedConfig, logger *slog.Logger) error {
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		users := postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger).WithTx(tx)
		return createSeedUsers(ctx, users, cfg, logger)
	})
}

func createSeedUsers(ctx context.Context, users store.UserStore, cfg config.SeedConfig, logger *slog.Logger) error {
	accounts := []seedAccount{
		{cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, domain.RoleAdmin},
		{cfg.UserName, cfg.UserEmail, cfg.UserPassword, domain.RoleUser},
	}

	for _, acct := range accounts {
		if acct.email == "" {
			logger.Info("seed account skipped, no email configured", "role", acct.role)
			continue
		}

		// A failed insert aborts a Postgres transaction, so look before creating.
		_, err := users.GetByEmail(ctx, acct.email)
		switch {
		case err == nil:
			logger.Info("seed account already exists", "role", acct.role)
			continue
		case !errors.Is(err, store.ErrUserNotFound):
			return fmt.Errorf("failed to look up %s seed account: %w", acct.role, err)
		}

		user, err := domain.NewUser(acct.name, acct.email, acct.password, acct.role)
		if err != nil {
			return fmt.Errorf("invalid %s seed account: %w", acct.role, err)
		}

		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create %s seed account: %w", acct.role, err)
		}
		logger.Info("seed account created", "role", acct.role, "user_id", user.ID)
	}
	return nil
}
