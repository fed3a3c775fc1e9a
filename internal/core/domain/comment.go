package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
)

// MaxCommentLength bounds comment bodies at the domain boundary.
const MaxCommentLength = 5000

// Comment is a note attached to a task.
type Comment struct {
	ID        int64
	TaskID    int64
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
}

// CommentParams holds the input for constructing a new comment.
type CommentParams struct {
	TaskID   int64
	AuthorID uuid.UUID
	Body     string
}

// NewComment is a factory function to create a valid new comment.
func NewComment(params CommentParams) (*Comment, error) {
	if params.Body == "" {
		return nil, apperrors.ErrCommentBodyRequired
	}
	if len(params.Body) > MaxCommentLength {
		return nil, apperrors.ErrCommentBodyTooLong
	}
	if params.TaskID <= 0 {
		return nil, apperrors.ErrTaskIDRequired
	}
	if params.AuthorID == uuid.Nil {
		return nil, apperrors.ErrAuthorIDRequired
	}

	return &Comment{
		TaskID:    params.TaskID,
		AuthorID:  params.AuthorID,
		Body:      params.Body,
		CreatedAt: time.Now().UTC(),
	}, nil
}
