package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// StatsService computes aggregate task statistics. Each call fetches
// the viewer's current task set and folds it fresh; nothing is cached,
// so two calls with no intervening mutation yield identical snapshots.
type StatsService struct {
	taskRepo ports.TaskRepository
	now      func() time.Time
}

var _ ports.StatsService = (*StatsService)(nil)

// NewStatsService creates a new stats service
func NewStatsService(taskRepo ports.TaskRepository) *StatsService {
	return &StatsService{
		taskRepo: taskRepo,
		now:      time.Now,
	}
}

// Summarize computes the aggregate snapshot for a viewer. Admins see
// all tasks; everyone else sees tasks they created or are assigned to.
// A storage failure surfaces as-is: no partial or cached snapshot is
// ever substituted.
func (s *StatsService) Summarize(ctx context.Context, viewerID uuid.UUID, isAdmin bool) (*domain.AggregateSnapshot, error) {
	tasks, err := s.taskRepo.ListForStats(ctx, ports.StatsFilter{
		ViewerID:     viewerID,
		Unrestricted: isAdmin,
	})
	if err != nil {
		return nil, err
	}

	return domain.NewAggregateSnapshot(tasks, s.now().UTC()), nil
}
