package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// CommentService implements the business logic for comments.
type CommentService struct {
	commentRepo ports.CommentRepository
	taskSvc     ports.TaskService
	broadcaster ports.EventBroadcaster
}

var _ ports.CommentService = (*CommentService)(nil)

// NewCommentService creates a new service for comment logic.
func NewCommentService(
	commentRepo ports.CommentRepository,
	taskSvc ports.TaskService,
	broadcaster ports.EventBroadcaster,
) ports.CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskSvc:     taskSvc,
		broadcaster: broadcaster,
	}
}

// CreateComment adds a new comment to a task. The comment inherits the
// task's visibility, so access goes through the task service's checks.
func (s *CommentService) CreateComment(ctx context.Context, params ports.CreateCommentParams) (*domain.Comment, error) {
	// GetTask returns ErrForbidden when the actor cannot see the task.
	task, err := s.taskSvc.GetTask(ctx, params.TaskID, params.ActorID)
	if err != nil {
		return nil, err
	}

	comment, err := domain.NewComment(domain.CommentParams{
		TaskID:   params.TaskID,
		AuthorID: params.ActorID,
		Body:     params.Body,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Dispatch(domain.NewCommentAddedEvent(task, created))

	return created, nil
}

// GetCommentsForTask retrieves all comments for a specific task.
func (s *CommentService) GetCommentsForTask(ctx context.Context, taskID int64, viewerID uuid.UUID) ([]*domain.Comment, error) {
	if _, err := s.taskSvc.GetTask(ctx, taskID, viewerID); err != nil {
		return nil, err
	}

	return s.commentRepo.ListByTaskID(ctx, taskID)
}
