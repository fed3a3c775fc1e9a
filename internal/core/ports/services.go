package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// CreateTaskParams defines the input for creating a new task.
type CreateTaskParams struct {
	Title          string
	Description    string
	Priority       domain.TaskPriority
	AssigneeID     *uuid.UUID
	ProjectID      *int64
	DueDate        *time.Time
	EstimatedHours *float64
	ActorID        uuid.UUID
}

// UpdateTaskParams defines the input for updating a task. Nil fields
// are left untouched; Unassign clears the assignee explicitly.
type UpdateTaskParams struct {
	TaskID         int64
	ActorID        uuid.UUID
	Title          *string
	Description    *string
	Status         *domain.TaskStatus
	Priority       *domain.TaskPriority
	AssigneeID     *uuid.UUID
	Unassign       bool
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	Archived       *bool
}

// ListTasksParams defines the input for listing tasks.
type ListTasksParams struct {
	ViewerID  uuid.UUID
	Limit     int
	Offset    int
	Status    *string
	Priority  *string
	ProjectID *int64
}

// CreateCommentParams defines the input for creating a comment.
type CreateCommentParams struct {
	TaskID  int64
	ActorID uuid.UUID
	Body    string
}

// CreateProjectParams defines the input for creating a project.
type CreateProjectParams struct {
	Name        string
	Description string
	OwnerID     uuid.UUID
}

// AddMemberParams defines the input for adding a project member.
type AddMemberParams struct {
	ProjectID int64
	UserID    uuid.UUID
	Role      domain.ProjectRole
	ActorID   uuid.UUID
}

// TaskService defines the core business operations for managing tasks.
// Every successful mutation dispatches its broadcast event before the
// method returns, so callers can acknowledge knowing the event is out.
type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)
	GetTask(ctx context.Context, taskID int64, viewerID uuid.UUID) (*domain.Task, error)
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID int64, actorID uuid.UUID) error
	ListTasks(ctx context.Context, params ListTasksParams) ([]*domain.Task, error)
}

// CommentService defines the port for comment-related business logic.
type CommentService interface {
	CreateComment(ctx context.Context, params CreateCommentParams) (*domain.Comment, error)
	GetCommentsForTask(ctx context.Context, taskID int64, viewerID uuid.UUID) ([]*domain.Comment, error)
}

// ProjectService defines the port for project management.
type ProjectService interface {
	CreateProject(ctx context.Context, params CreateProjectParams) (*domain.Project, error)
	GetProject(ctx context.Context, projectID int64, viewerID uuid.UUID) (*domain.Project, error)
	ListProjects(ctx context.Context, viewerID uuid.UUID) ([]*domain.Project, error)
	AddMember(ctx context.Context, params AddMemberParams) error
	RemoveMember(ctx context.Context, projectID int64, userID, actorID uuid.UUID) error
}

// StatsService computes aggregate snapshots over the viewer's task set.
type StatsService interface {
	Summarize(ctx context.Context, viewerID uuid.UUID, isAdmin bool) (*domain.AggregateSnapshot, error)
}

// MembershipResolver maps a user to the broadcast scopes their
// connections may receive. Resolution happens once per connection at
// join time; a storage failure degrades to the user's own scope.
type MembershipResolver interface {
	ScopesFor(ctx context.Context, userID uuid.UUID) []domain.Scope
}

// EventBroadcaster delivers an event to every connection subscribed
// to one of its scopes. Delivery is best-effort and at-most-once per
// connection; per-connection failures never surface to the caller.
type EventBroadcaster interface {
	Dispatch(event domain.Event)
}
