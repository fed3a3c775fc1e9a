package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/taskflow/taskflow-backend/internal/adapters/primary/http/middleware"
	"github.com/taskflow/taskflow-backend/internal/auth"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/mocks"
)

func newStatsRouter(t *testing.T) (*chi.Mux, *mocks.MockStatsService, *auth.TokenManager) {
	t.Helper()

	statsService := mocks.NewMockStatsService()
	statsHandler := NewStatsHandler(statsService, NewErrorHandler(testLogger()), testLogger())
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Use(mw.JWTMiddleware(tokenManager))
	router.Get("/stats", statsHandler.HandleGetStats)

	return router, statsService, tokenManager
}

func TestStatsHandler_HandleGetStats(t *testing.T) {
	t.Run("summarizes for a regular viewer", func(t *testing.T) {
		router, statsService, tokenManager := newStatsRouter(t)
		userID := uuid.New()

		snapshot := &domain.AggregateSnapshot{
			TotalTasks:        3,
			CompletedTasks:    1,
			InProgressTasks:   1,
			AvgEstimatedHours: 4,
			StatusDistribution: map[domain.TaskStatus]int64{
				domain.StatusTodo:       1,
				domain.StatusInProgress: 1,
				domain.StatusCompleted:  1,
			},
			PriorityDistribution: map[domain.TaskPriority]int64{
				domain.PriorityLow: 3,
			},
		}
		statsService.On("Summarize", mock.Anything, userID, false).Return(snapshot, nil).Once()

		req := authedRequest(t, tokenManager, userID, false, stdhttp.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var response StatsDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, int64(3), response.TotalTasks)
		assert.Equal(t, int64(1), response.CompletedTasks)
		assert.Equal(t, 4.0, response.AvgEstimatedHours)
		assert.Equal(t, int64(1), response.StatusDistribution["COMPLETED"])
		assert.Equal(t, int64(3), response.PriorityDistribution["LOW"])

		statsService.AssertExpectations(t)
	})

	t.Run("forwards the admin claim from the token", func(t *testing.T) {
		router, statsService, tokenManager := newStatsRouter(t)
		adminID := uuid.New()

		snapshot := &domain.AggregateSnapshot{
			TotalTasks:           42,
			StatusDistribution:   map[domain.TaskStatus]int64{},
			PriorityDistribution: map[domain.TaskPriority]int64{},
		}
		statsService.On("Summarize", mock.Anything, adminID, true).Return(snapshot, nil).Once()

		req := authedRequest(t, tokenManager, adminID, true, stdhttp.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var response StatsDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, int64(42), response.TotalTasks)

		statsService.AssertExpectations(t)
	})

	t.Run("maps a summarize failure to 500", func(t *testing.T) {
		router, statsService, tokenManager := newStatsRouter(t)
		userID := uuid.New()

		statsService.On("Summarize", mock.Anything, userID, false).
			Return(nil, apperrors.ErrInternal).Once()

		req := authedRequest(t, tokenManager, userID, false, stdhttp.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusInternalServerError, rec.Code)

		var response ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "INTERNAL_ERROR", response.Code)
	})

	t.Run("requires a bearer token", func(t *testing.T) {
		router, statsService, _ := newStatsRouter(t)

		req := httptest.NewRequest(stdhttp.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
		assert.Empty(t, statsService.Calls)
	})
}
