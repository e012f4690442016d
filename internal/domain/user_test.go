package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := NewUser("  Jane Doe ", "Jane@Example.com ", "secret123", RoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, RoleUser, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestNewUser_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		role     Role
		wantErr  error
	}{
		{"empty name", "", "a@example.com", "secret123", RoleUser, ErrEmptyUserName},
		{"empty email", "A", "", "secret123", RoleUser, ErrEmptyEmail},
		{"bad email", "A", "not-an-email", "secret123", RoleUser, ErrInvalidEmail},
		{"bad role", "A", "a@example.com", "secret123", Role("Owner"), ErrInvalidRole},
		{"short password", "A", "a@example.com", "12345", RoleUser, ErrPasswordTooShort},
		{"long password", "A", "a@example.com", strings.Repeat("x", 73), RoleUser, ErrPasswordTooLong},
		{"no password", "A", "a@example.com", "", RoleUser, ErrEmptyPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.userName, tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserValidate_HashedOnly(t *testing.T) {
	t.Parallel()

	u := &User{
		ID:             uuid.New(),
		Name:           "Stored",
		Email:          "stored@example.com",
		Role:           RoleAdmin,
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
	}
	assert.NoError(t, u.Validate())
}

func TestRole(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.False(t, Role("admin").IsValid())
	assert.Len(t, Roles, 2)

	var nobody *User
	assert.False(t, nobody.IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
}
