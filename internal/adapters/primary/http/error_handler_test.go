package http

import (
	"encoding/json"
	"errors"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-backend/internal/adapters/primary/validation"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
)

func handleError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewErrorHandler(testLogger())
	req := httptest.NewRequest(stdhttp.MethodGet, "/resource", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req, err)
	return rec
}

func TestErrorHandler_Handle(t *testing.T) {
	t.Run("maps domain errors to status codes", func(t *testing.T) {
		cases := []struct {
			name       string
			err        error
			wantStatus int
			wantCode   string
		}{
			{"invalid credentials", apperrors.ErrInvalidCredentials, stdhttp.StatusUnauthorized, "INVALID_CREDENTIALS"},
			{"unauthorized", apperrors.ErrUnauthorized, stdhttp.StatusUnauthorized, "UNAUTHORIZED"},
			{"forbidden", apperrors.ErrForbidden, stdhttp.StatusForbidden, "FORBIDDEN"},
			{"task not found", apperrors.ErrTaskNotFound, stdhttp.StatusNotFound, "TASK_NOT_FOUND"},
			{"project not found", apperrors.ErrProjectNotFound, stdhttp.StatusNotFound, "PROJECT_NOT_FOUND"},
			{"user exists", apperrors.ErrUserExists, stdhttp.StatusConflict, "USER_EXISTS"},
			{"already a member", apperrors.ErrAlreadyAMember, stdhttp.StatusConflict, "ALREADY_A_MEMBER"},
			{"not a member", apperrors.ErrNotAMember, stdhttp.StatusNotFound, "NOT_A_MEMBER"},
			{"title required", apperrors.ErrTitleRequired, stdhttp.StatusBadRequest, "VALIDATION_ERROR"},
			{"invalid status", apperrors.ErrInvalidStatus, stdhttp.StatusBadRequest, "VALIDATION_ERROR"},
			{"rate limited", apperrors.ErrRateLimited, stdhttp.StatusTooManyRequests, "RATE_LIMITED"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := handleError(t, tc.err)

				assert.Equal(t, tc.wantStatus, rec.Code)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

				var response ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
				assert.Equal(t, tc.wantCode, response.Code)
			})
		}
	})

	t.Run("matches wrapped errors", func(t *testing.T) {
		rec := handleError(t, fmt.Errorf("loading task: %w", apperrors.ErrTaskNotFound))

		assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

		var response ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "TASK_NOT_FOUND", response.Code)
	})

	t.Run("app errors carry their own status and message", func(t *testing.T) {
		rec := handleError(t, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Invalid task ID"))

		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

		var response ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "BAD_REQUEST", response.Code)
		assert.Equal(t, "Invalid task ID", response.Error)
	})

	t.Run("app errors without an underlying cause do not panic", func(t *testing.T) {
		rec := handleError(t, apperrors.NewBadRequestError(nil, "Invalid task ID"))

		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})

	t.Run("field validation errors return 422 with per-field messages", func(t *testing.T) {
		v := validation.NewValidator()
		v.Required("title", "")

		rec := handleError(t, v.Errors())

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)

		var response ValidationErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "VALIDATION_ERROR", response.Code)
		assert.Contains(t, response.Fields, "title")
	})

	t.Run("unknown errors fall back to an opaque 500", func(t *testing.T) {
		rec := handleError(t, errors.New("connection refused"))

		assert.Equal(t, stdhttp.StatusInternalServerError, rec.Code)

		var response ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "INTERNAL_ERROR", response.Code)
		assert.Equal(t, "An unexpected error occurred", response.Error)
		assert.NotContains(t, response.Error, "connection refused")
	})
}
