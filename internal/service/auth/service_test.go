package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryUsers is an in-memory store.UserStore.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*domain.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return store.ErrEmailExists
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hashed)
	user.Password = ""
	copied := *user
	m.users[user.Email] = &copied
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memoryUsers) WithTx(*sql.Tx) store.UserStore { return m }

func newTestService() *Service {
	tokens := newHMACJWTService(testSecret, time.Hour, time.Now)
	return NewService(newMemoryUsers(), tokens, NewBcryptVerifier(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ada", "ada@example.com", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, domain.RoleUser, registered.User.Role)
	assert.Empty(t, registered.User.Password)

	loggedIn, err := svc.Login(ctx, "ADA@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	claims, err := svc.tokens.ValidateToken(ctx, loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
}

func TestService_RegisterErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "ada@example.com", "secret-pass")
	assert.ErrorIs(t, err, store.ErrEmailExists)

	_, err = svc.Register(ctx, "Short", "short@example.com", "123")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
