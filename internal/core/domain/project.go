package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
)

// MaxProjectNameLength bounds project names at the domain boundary.
const MaxProjectNameLength = 255

// ProjectRole represents a user's role within a project.
type ProjectRole string

const (
	RoleOwner  ProjectRole = "OWNER"
	RoleAdmin  ProjectRole = "ADMIN"
	RoleMember ProjectRole = "MEMBER"
	RoleViewer ProjectRole = "VIEWER"
)

// ValidRoles lists every assignable membership role.
func ValidRoles() []string {
	return []string{string(RoleOwner), string(RoleAdmin), string(RoleMember), string(RoleViewer)}
}

// IsValidRole reports whether the role is one of the known values.
func IsValidRole(role ProjectRole) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Project groups tasks and carries a membership list.
type Project struct {
	ID          int64
	Name        string
	Description string
	OwnerID     uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Membership links a user to a project with a role. All roles receive
// identical event visibility; the role only gates management actions.
type Membership struct {
	ProjectID int64
	UserID    uuid.UUID
	Role      ProjectRole
	AddedAt   time.Time
}

// ProjectParams holds the input for constructing a new project.
type ProjectParams struct {
	Name        string
	Description string
	OwnerID     uuid.UUID
}

// NewProject is a factory function to create a valid new project.
func NewProject(params ProjectParams) (*Project, error) {
	if params.Name == "" {
		return nil, apperrors.ErrProjectNameRequired
	}
	if len(params.Name) > MaxProjectNameLength {
		return nil, apperrors.ErrProjectNameTooLong
	}
	if params.OwnerID == uuid.Nil {
		return nil, apperrors.ErrOwnerRequired
	}

	return &Project{
		Name:        params.Name,
		Description: params.Description,
		OwnerID:     params.OwnerID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// CanManageMembers reports whether the role may add or remove members.
func (r ProjectRole) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}
