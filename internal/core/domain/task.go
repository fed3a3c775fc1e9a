package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
)

// Field length limits enforced at the domain boundary.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
)

// TaskStatus represents the possible states of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// ValidStatuses lists every accepted task status value.
func ValidStatuses() []string {
	return []string{string(StatusTodo), string(StatusInProgress), string(StatusCompleted)}
}

// ValidPriorities lists every accepted task priority value.
func ValidPriorities() []string {
	return []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh), string(PriorityUrgent)}
}

// Task is the core domain entity.
type Task struct {
	ID             int64
	Title          string
	Description    string
	Status         TaskStatus
	Priority       TaskPriority
	CreatorID      uuid.UUID
	AssigneeID     *uuid.UUID
	ProjectID      *int64
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	Archived       bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// TaskParams holds the input for constructing a new task.
type TaskParams struct {
	Title          string
	Description    string
	Priority       TaskPriority
	CreatorID      uuid.UUID
	AssigneeID     *uuid.UUID
	ProjectID      *int64
	DueDate        *time.Time
	EstimatedHours *float64
}

// NewTask is a factory function to create a valid new task.
func NewTask(params TaskParams) (*Task, error) {
	if params.Title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if len(params.Title) > MaxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}
	if len(params.Description) > MaxDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}
	if params.CreatorID == uuid.Nil {
		return nil, apperrors.ErrCreatorRequired
	}

	priority := params.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !isValidPriority(priority) {
		return nil, apperrors.ErrInvalidPriority
	}

	return &Task{
		Title:          params.Title,
		Description:    params.Description,
		Status:         StatusTodo,
		Priority:       priority,
		CreatorID:      params.CreatorID,
		AssigneeID:     params.AssigneeID,
		ProjectID:      params.ProjectID,
		DueDate:        params.DueDate,
		EstimatedHours: params.EstimatedHours,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ChangeStatus updates the task's status, validating the value.
func (t *Task) ChangeStatus(status TaskStatus) error {
	if !isValidStatus(status) {
		return apperrors.ErrInvalidStatus
	}
	t.Status = status
	t.touch()
	return nil
}

// Assign sets or changes the assignee of the task.
func (t *Task) Assign(assigneeID uuid.UUID) {
	t.AssigneeID = &assigneeID
	t.touch()
}

// Unassign clears the assignee.
func (t *Task) Unassign() {
	t.AssigneeID = nil
	t.touch()
}

// Archive marks the task as archived, removing it from aggregate views.
func (t *Task) Archive() {
	t.Archived = true
	t.touch()
}

// IsOverdue reports whether the task is past its due date and not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// IsCreatedBy reports whether the given user created the task.
func (t *Task) IsCreatedBy(userID uuid.UUID) bool {
	return t.CreatorID == userID
}

// IsAssignedTo reports whether the given user is the task's assignee.
func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

func (t *Task) touch() {
	now := time.Now().UTC()
	t.UpdatedAt = &now
}

func isValidStatus(status TaskStatus) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func isValidPriority(priority TaskPriority) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
