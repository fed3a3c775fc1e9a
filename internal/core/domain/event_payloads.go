package domain

import (
	"strconv"
	"time"
)

// TaskSnapshot matches the API response shape for tasks.
type TaskSnapshot struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	CreatorID      string   `json:"createdBy"`
	AssigneeID     *string  `json:"assignedTo"`
	ProjectID      *int64   `json:"projectId"`
	DueDate        *string  `json:"dueDate"`
	EstimatedHours *float64 `json:"estimatedHours"`
	ActualHours    *float64 `json:"actualHours"`
	Archived       bool     `json:"archived"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      *string  `json:"updatedAt"`
}

// CommentSnapshot matches the API response shape for comments.
type CommentSnapshot struct {
	ID        string `json:"id"`
	TaskID    int64  `json:"taskId"`
	AuthorID  string `json:"authorId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

// TaskDeletedPayload is the wire payload for task-deleted events.
type TaskDeletedPayload struct {
	TaskID int64 `json:"taskId"`
}

// CommentAddedPayload is the wire payload for task-comment-added events.
type CommentAddedPayload struct {
	TaskID  int64           `json:"taskId"`
	Comment CommentSnapshot `json:"comment"`
}

// NewTaskSnapshot builds a task snapshot from a domain task.
func NewTaskSnapshot(task *Task) TaskSnapshot {
	var assigneeID *string
	if task.AssigneeID != nil {
		value := task.AssigneeID.String()
		assigneeID = &value
	}

	var dueDate *string
	if task.DueDate != nil {
		value := task.DueDate.UTC().Format(time.RFC3339)
		dueDate = &value
	}

	var updatedAt *string
	if task.UpdatedAt != nil {
		value := task.UpdatedAt.UTC().Format(time.RFC3339)
		updatedAt = &value
	}

	return TaskSnapshot{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         string(task.Status),
		Priority:       string(task.Priority),
		CreatorID:      task.CreatorID.String(),
		AssigneeID:     assigneeID,
		ProjectID:      task.ProjectID,
		DueDate:        dueDate,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		Archived:       task.Archived,
		CreatedAt:      task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      updatedAt,
	}
}

// NewCommentSnapshot builds a comment snapshot from a domain comment.
func NewCommentSnapshot(comment *Comment) CommentSnapshot {
	return CommentSnapshot{
		ID:        strconv.FormatInt(comment.ID, 10),
		TaskID:    comment.TaskID,
		AuthorID:  comment.AuthorID.String(),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}
