package http

import (
	"log/slog"
	"net/http"

	mw "github.com/taskflow/taskflow-backend/internal/adapters/primary/http/middleware"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// StatsHandler handles HTTP requests for aggregate task statistics
type StatsHandler struct {
	statsService ports.StatsService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(
	statsService ports.StatsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "stats"),
	}
}

// StatsDTO defines the JSON response for aggregate statistics.
type StatsDTO struct {
	TotalTasks           int64            `json:"totalTasks"`
	CompletedTasks       int64            `json:"completedTasks"`
	InProgressTasks      int64            `json:"inProgressTasks"`
	OverdueTasks         int64            `json:"overdueTasks"`
	AvgEstimatedHours    float64          `json:"avgEstimatedHours"`
	AvgActualHours       float64          `json:"avgActualHours"`
	StatusDistribution   map[string]int64 `json:"statusDistribution"`
	PriorityDistribution map[string]int64 `json:"priorityDistribution"`
}

func toStatsDTO(snapshot *domain.AggregateSnapshot) StatsDTO {
	statusDist := make(map[string]int64, len(snapshot.StatusDistribution))
	for status, count := range snapshot.StatusDistribution {
		statusDist[string(status)] = count
	}

	priorityDist := make(map[string]int64, len(snapshot.PriorityDistribution))
	for priority, count := range snapshot.PriorityDistribution {
		priorityDist[string(priority)] = count
	}

	return StatsDTO{
		TotalTasks:           snapshot.TotalTasks,
		CompletedTasks:       snapshot.CompletedTasks,
		InProgressTasks:      snapshot.InProgressTasks,
		OverdueTasks:         snapshot.OverdueTasks,
		AvgEstimatedHours:    snapshot.AvgEstimatedHours,
		AvgActualHours:       snapshot.AvgActualHours,
		StatusDistribution:   statusDist,
		PriorityDistribution: priorityDist,
	}
}

// HandleGetStats handles GET /stats
func (h *StatsHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	snapshot, err := h.statsService.Summarize(r.Context(), claims.UserID, claims.IsAdmin)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toStatsDTO(snapshot))
}
