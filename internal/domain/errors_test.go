package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("title", "is required", nil)
	err.Add("status", "is required")
	err.Add("title", "ignored because title already has a message")

	assert.True(t, err.HasErrors())
	assert.Equal(t, "validation failed: status is required; title is required", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))

	idErr := NewValidationError("id", "has invalid format", ErrInvalidID)
	assert.True(t, errors.Is(idErr, ErrInvalidID))
	assert.False(t, errors.Is(idErr, ErrValidation))

	var empty ValidationError
	assert.False(t, empty.HasErrors())
	assert.True(t, errors.Is(&empty, ErrValidation))
}
