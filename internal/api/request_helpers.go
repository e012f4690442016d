package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// currentUser returns the user placed in the request context by the
// authentication middleware.
func currentUser(r *http.Request) (*domain.User, bool) {
	user := shared.UserFromContext(r.Context())
	if user == nil || user.ID == uuid.Nil {
		return nil, false
	}
	return user, true
}

// decodeBody decodes the JSON request body into v. It writes a 415 for a
// non-JSON Content-Type or a 400 for a malformed body and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := shared.DecodeJSON(r, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, shared.ErrUnsupportedMediaType):
		shared.RespondWithError(w, r, http.StatusUnsupportedMediaType, MsgMediaType)
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, MsgInvalidBody)
	}
	return false
}

// getPathUUID extracts a UUID from the URL path parameters.
// An unparseable id cannot name a live task, so it is reported as not found.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, store.ErrTaskNotFound
	}
	return id, nil
}

// handleUserAndPathUUID extracts the current user and the task id. It writes
// the error response and returns false if either is missing.
func handleUserAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (*domain.User, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	user, ok := currentUser(r)
	if !ok {
		log.Warn("user not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, MsgUnauthorized)
		return nil, uuid.Nil, false
	}

	id, err := getPathUUID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return nil, uuid.Nil, false
	}

	return user, id, true
}
