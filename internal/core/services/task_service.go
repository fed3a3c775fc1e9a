package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// TaskService implements business logic for task management. Mutations
// dispatch their broadcast event synchronously after the storage write
// succeeds, so the HTTP response is never acknowledged before the
// author's other connections have the event queued.
type TaskService struct {
	taskRepo    ports.TaskRepository
	projectRepo ports.ProjectRepository
	userRepo    ports.UserRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.TaskService = (*TaskService)(nil)

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo ports.TaskRepository,
	projectRepo ports.ProjectRepository,
	userRepo ports.UserRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) ports.TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		logger:      logger.With("component", "task_service"),
	}
}

// CreateTask handles the use case for submitting a new task
func (s *TaskService) CreateTask(ctx context.Context, params ports.CreateTaskParams) (*domain.Task, error) {
	// Creating a task inside a project requires membership in it.
	if params.ProjectID != nil {
		if err := s.requireMembership(ctx, *params.ProjectID, params.ActorID); err != nil {
			return nil, err
		}
	}

	task, err := domain.NewTask(domain.TaskParams{
		Title:          params.Title,
		Description:    params.Description,
		Priority:       params.Priority,
		CreatorID:      params.ActorID,
		AssigneeID:     params.AssigneeID,
		ProjectID:      params.ProjectID,
		DueDate:        params.DueDate,
		EstimatedHours: params.EstimatedHours,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Dispatch(domain.NewTaskCreatedEvent(created))

	return created, nil
}

// GetTask retrieves a specific task with authorization
func (s *TaskService) GetTask(ctx context.Context, taskID int64, viewerID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	canView, err := s.canViewTask(ctx, task, viewerID)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, apperrors.ErrForbidden
	}

	return task, nil
}

// UpdateTask applies a partial update and broadcasts the result
func (s *TaskService) UpdateTask(ctx context.Context, params ports.UpdateTaskParams) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}

	canView, err := s.canViewTask(ctx, task, params.ActorID)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, apperrors.ErrForbidden
	}

	if err := applyTaskUpdate(task, params); err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.Update(ctx, task)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Dispatch(domain.NewTaskUpdatedEvent(updated))

	return updated, nil
}

// DeleteTask removes a task. Only the creator or an admin may delete.
// The broadcast payload carries only the identifier; the scope set is
// derived from the snapshot loaded before deletion.
func (s *TaskService) DeleteTask(ctx context.Context, taskID int64, actorID uuid.UUID) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	if !task.IsCreatedBy(actorID) {
		admin, err := s.isAdmin(ctx, actorID)
		if err != nil {
			return err
		}
		if !admin {
			return apperrors.ErrForbidden
		}
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.broadcaster.Dispatch(domain.NewTaskDeletedEvent(task))

	return nil
}

// ListTasks retrieves tasks visible to the viewer
func (s *TaskService) ListTasks(ctx context.Context, params ports.ListTasksParams) ([]*domain.Task, error) {
	admin, err := s.isAdmin(ctx, params.ViewerID)
	if err != nil {
		return nil, err
	}

	return s.taskRepo.ListForViewer(ctx, ports.ListTasksRepoParams{
		ViewerID:     params.ViewerID,
		Unrestricted: admin,
		Status:       params.Status,
		Priority:     params.Priority,
		ProjectID:    params.ProjectID,
		Limit:        int32(params.Limit),
		Offset:       int32(params.Offset),
	})
}

// canViewTask checks creator, assignee, admin flag, then membership
// in the task's project, in that order.
func (s *TaskService) canViewTask(ctx context.Context, task *domain.Task, viewerID uuid.UUID) (bool, error) {
	if task.IsCreatedBy(viewerID) || task.IsAssignedTo(viewerID) {
		return true, nil
	}

	admin, err := s.isAdmin(ctx, viewerID)
	if err != nil {
		return false, err
	}
	if admin {
		return true, nil
	}

	if task.ProjectID == nil {
		return false, nil
	}

	_, err = s.projectRepo.GetMemberRole(ctx, *task.ProjectID, viewerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotAMember) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *TaskService) requireMembership(ctx context.Context, projectID int64, userID uuid.UUID) error {
	_, err := s.projectRepo.GetMemberRole(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotAMember) {
			return apperrors.ErrForbidden
		}
		return err
	}
	return nil
}

func (s *TaskService) isAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func applyTaskUpdate(task *domain.Task, params ports.UpdateTaskParams) error {
	if params.Title != nil {
		if *params.Title == "" {
			return apperrors.ErrTitleRequired
		}
		if len(*params.Title) > domain.MaxTitleLength {
			return apperrors.ErrTitleTooLong
		}
		task.Title = *params.Title
	}
	if params.Description != nil {
		if len(*params.Description) > domain.MaxDescriptionLength {
			return apperrors.ErrDescriptionTooLong
		}
		task.Description = *params.Description
	}
	if params.Status != nil {
		if err := task.ChangeStatus(*params.Status); err != nil {
			return err
		}
	}
	if params.Priority != nil {
		switch *params.Priority {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent:
			task.Priority = *params.Priority
		default:
			return apperrors.ErrInvalidPriority
		}
	}
	if params.Unassign {
		task.Unassign()
	} else if params.AssigneeID != nil {
		task.Assign(*params.AssigneeID)
	}
	if params.DueDate != nil {
		task.DueDate = params.DueDate
	}
	if params.EstimatedHours != nil {
		task.EstimatedHours = params.EstimatedHours
	}
	if params.ActualHours != nil {
		task.ActualHours = params.ActualHours
	}
	if params.Archived != nil {
		task.Archived = *params.Archived
	}

	return nil
}
