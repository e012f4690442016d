package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithData(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithData(w, r, http.StatusCreated, "Task created successfully", map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"Task created successfully","data":{"n":1}}`, w.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(SetTraceID(r.Context()))

	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "An unexpected error occurred",
		errors.New("dial tcp postgres://admin:secret@db:5432 refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "An unexpected error occurred", body.Message)
	assert.Equal(t, GetTraceID(r.Context()), body.TraceID)
	assert.Nil(t, body.Data)
}

func TestRespondWithError_Fields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	RespondWithError(w, r, http.StatusUnprocessableEntity, "The given data was invalid.",
		WithFields(map[string]string{"title": "is required"}))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t,
		`{"success":false,"message":"The given data was invalid.","data":{"title":"is required"}}`,
		w.Body.String())
}
