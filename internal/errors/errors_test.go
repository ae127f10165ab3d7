package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		want     string
	}{
		{
			name:     "simple message",
			apiError: New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format"),
			want:     "Invalid request format",
		},
		{
			name:     "empty message",
			apiError: New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", ""),
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.apiError.Error())
		})
	}
}

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{"bad request", InvalidRequestWithError(stderrors.New("unexpected EOF")), http.StatusBadRequest},
		{"not found", NotFoundError("Problem"), http.StatusNotFound},
		{"upgrade rejected", WebSocketUpgradeError(http.StatusBadRequest, stderrors.New("missing upgrade header")), http.StatusBadRequest},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"internal", NewInternalError("Failed to fetch problems"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/problems", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.apiError.ErrorCode, body.ErrorCode)
			assert.Equal(t, tt.apiError.Message, body.Message)
		})
	}
}

func TestConstructors(t *testing.T) {
	t.Run("invalid request carries the cause", func(t *testing.T) {
		err := InvalidRequestWithError(stderrors.New("unexpected EOF"))
		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		assert.Equal(t, "unexpected EOF", err.Details)
	})

	t.Run("not found names the resource", func(t *testing.T) {
		err := NotFoundError("Problem")
		assert.Equal(t, "Problem not found", err.Message)
		assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	})

	t.Run("validation errors wrap every field", func(t *testing.T) {
		err := NewValidationErrors([]ValidationError{
			{Field: "to", Message: "to must be a valid email address"},
			{Field: "subject", Message: "subject is required"},
		})
		assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)

		details, ok := err.Details.(ValidationErrors)
		require.True(t, ok)
		assert.Len(t, details.Errors, 2)
		assert.Equal(t, "to", details.Errors[0].Field)
	})

	t.Run("upgrade error keeps the reason", func(t *testing.T) {
		err := WebSocketUpgradeError(http.StatusForbidden, stderrors.New("origin not allowed"))
		assert.Equal(t, http.StatusForbidden, err.StatusCode)
		assert.Equal(t, CodeWebSocketUpgrade, err.ErrorCode)
		assert.Equal(t, "origin not allowed", err.Message)
	})

	t.Run("internal error keeps the message", func(t *testing.T) {
		err := NewInternalError("Failed to fetch problems")
		assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
		assert.Equal(t, "Failed to fetch problems", err.Error())
	})
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadGateway, TypeUpstreamUnavailable, "Bad Gateway", "user service unavailable", "/api/dashboard").
		WithExtension("trace_id", "req-1").
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeUpstreamUnavailable, body["type"])
	assert.Equal(t, "user service unavailable", body["detail"])
	assert.Equal(t, "req-1", body["trace_id"])
	// standard members are not overridden by extensions
	assert.EqualValues(t, http.StatusBadGateway, body["status"])
}

func TestProblemDetails_OmitsEmptyMembers(t *testing.T) {
	data, err := json.Marshal(NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", ""))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	var pd ProblemDetails
	pd.WithExtension("k", "v")
	assert.Equal(t, "v", pd.Extensions["k"])
}
