package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Result is returned by Register and Login.
type Result struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Service registers users and exchanges credentials for tokens.
type Service struct {
	users    store.UserStore
	tokens   TokenService
	verifier PasswordVerifier
	logger   *slog.Logger
}

// NewService creates an authentication Service.
func NewService(users store.UserStore, tokens TokenService, verifier PasswordVerifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		logger:   logger.With("component", "auth_service"),
	}
}

// Register creates a User-role account and returns a token for it.
// Returns store.ErrEmailExists when the email is taken.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Result, error) {
	user, err := domain.NewUser(name, email, password, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return &Result{Token: token, User: user}, nil
}

// Login verifies credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.DebugContext(ctx, "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: user}, nil
}
