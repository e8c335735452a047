package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("school: %w", ErrNotFound), http.StatusNotFound},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("login: %w", ErrUnauthorized), http.StatusUnauthorized},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		RespondError(rec, tt.err)

		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tt.status, body.Status)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("dial tcp 10.0.0.3:5432: refused"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestValidationProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationProblem(rec, map[string]string{"email": "email"})

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, map[string]string{"email": "email"}, body.Errors)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Email string `json:"email"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","admin":true}`))
	assert.Error(t, DecodeJSON(req, &target))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "a@b.c", target.Email)
}
