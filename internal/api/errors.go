package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Client-facing messages.
const (
	MsgInvalidData   = "The given data was invalid."
	MsgForbidden     = "This action is unauthorized."
	MsgUnauthorized  = "Unauthenticated."
	MsgUnexpected    = "An unexpected error occurred"
	MsgInvalidBody   = "Invalid request format"
	MsgMediaType     = "Content-Type must be application/json"
	MsgTaskNotFound  = "Task not found"
	MsgUserNotFound  = "User not found"
	MsgTitleConflict = "Task title already exists"
	MsgEmailConflict = "Email already exists"
)

// userFieldErrors maps domain user validation errors to the request field
// they concern.
var userFieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrEmptyUserName, "name"},
	{domain.ErrEmptyEmail, "email"},
	{domain.ErrInvalidEmail, "email"},
	{domain.ErrEmptyPassword, "password"},
	{domain.ErrPasswordTooShort, "password"},
	{domain.ErrPasswordTooLong, "password"},
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr), userFieldError(err) != nil:
		return http.StatusUnprocessableEntity

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-friendly message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return MsgUnexpected
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr), userFieldError(err) != nil:
		return MsgInvalidData
	case errors.Is(err, store.ErrTaskNotFound):
		return MsgTaskNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return MsgUserNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return MsgForbidden
	case errors.Is(err, store.ErrTitleExists):
		return MsgTitleConflict
	case errors.Is(err, store.ErrEmailExists):
		return MsgEmailConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrMissingToken):
		return MsgUnauthorized
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	default:
		return MsgUnexpected
	}
}

// ErrorFields returns per-field messages carried by err, if any.
func ErrorFields(err error) map[string]string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		return verr.Fields
	}
	if fe := userFieldError(err); fe != nil {
		return fe.Fields
	}
	return nil
}

func userFieldError(err error) *domain.ValidationError {
	if err == nil {
		return nil
	}
	for _, m := range userFieldErrors {
		if errors.Is(err, m.err) {
			return domain.NewValidationError(m.field, m.err.Error(), domain.ErrValidation)
		}
	}
	return nil
}

// HandleAPIError writes the error response for err. A non-empty message
// replaces the default safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	opts := []shared.ResponseOption{}
	if fields := ErrorFields(err); fields != nil {
		opts = append(opts, shared.WithFields(fields))
	}
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("request denied", slog.String("path", r.URL.Path))
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
