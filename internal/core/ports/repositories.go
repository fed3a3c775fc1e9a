package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// ListTasksRepoParams narrows and pages a task listing query.
type ListTasksRepoParams struct {
	ViewerID     uuid.UUID
	Unrestricted bool // admin: skip the creator/assignee/member filter
	Status       *string
	Priority     *string
	ProjectID    *int64
	Limit        int32
	Offset       int32
}

// StatsFilter selects the task set an aggregate snapshot is computed
// over: everything for admins, otherwise tasks the viewer created or
// is assigned to. Archived tasks are always excluded.
type StatsFilter struct {
	ViewerID     uuid.UUID
	Unrestricted bool
}

// TaskRepository is the port for task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
	ListForViewer(ctx context.Context, params ListTasksRepoParams) ([]*domain.Task, error)

	// ListForStats returns the full (non-archived) task set matching
	// the filter, for in-memory aggregation.
	ListForStats(ctx context.Context, filter StatsFilter) ([]*domain.Task, error)
}

// ProjectRepository is the port for project and membership persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	ListForMember(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)

	// ListProjectIDsForMember returns every project the user owns or
	// is a listed member of, used to derive broadcast scopes.
	ListProjectIDsForMember(ctx context.Context, userID uuid.UUID) ([]int64, error)

	AddMember(ctx context.Context, membership domain.Membership) error
	RemoveMember(ctx context.Context, projectID int64, userID uuid.UUID) error

	// GetMemberRole returns ErrNotAMember when no membership exists.
	GetMemberRole(ctx context.Context, projectID int64, userID uuid.UUID) (domain.ProjectRole, error)
}

// UserRepository is the port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// CommentRepository is the port for comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	ListByTaskID(ctx context.Context, taskID int64) ([]*domain.Comment, error)
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
