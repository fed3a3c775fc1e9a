package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// ProjectService implements business logic for projects and memberships.
type ProjectService struct {
	projectRepo ports.ProjectRepository
	txManager   ports.TransactionManager
}

var _ ports.ProjectService = (*ProjectService)(nil)

// NewProjectService creates a new project service
func NewProjectService(projectRepo ports.ProjectRepository, txManager ports.TransactionManager) ports.ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		txManager:   txManager,
	}
}

// CreateProject creates a project and the owner's membership row in a
// single transaction, so a project is never visible without its owner.
func (s *ProjectService) CreateProject(ctx context.Context, params ports.CreateProjectParams) (*domain.Project, error) {
	project, err := domain.NewProject(domain.ProjectParams{
		Name:        params.Name,
		Description: params.Description,
		OwnerID:     params.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	var created *domain.Project
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		created, err = s.projectRepo.Create(txCtx, project)
		if err != nil {
			return err
		}
		return s.projectRepo.AddMember(txCtx, domain.Membership{
			ProjectID: created.ID,
			UserID:    params.OwnerID,
			Role:      domain.RoleOwner,
		})
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetProject retrieves a project the viewer is a member of
func (s *ProjectService) GetProject(ctx context.Context, projectID int64, viewerID uuid.UUID) (*domain.Project, error) {
	if _, err := s.memberRole(ctx, projectID, viewerID); err != nil {
		return nil, err
	}
	return s.projectRepo.GetByID(ctx, projectID)
}

// ListProjects retrieves every project the viewer owns or is a member of
func (s *ProjectService) ListProjects(ctx context.Context, viewerID uuid.UUID) ([]*domain.Project, error) {
	return s.projectRepo.ListForMember(ctx, viewerID)
}

// AddMember adds a user to a project. Only owners and project admins
// may manage members. The OWNER role cannot be granted after creation.
func (s *ProjectService) AddMember(ctx context.Context, params ports.AddMemberParams) error {
	role, err := s.memberRole(ctx, params.ProjectID, params.ActorID)
	if err != nil {
		return err
	}
	if !role.CanManageMembers() {
		return apperrors.ErrForbidden
	}

	if !domain.IsValidRole(params.Role) || params.Role == domain.RoleOwner {
		return apperrors.ErrInvalidRole
	}

	return s.projectRepo.AddMember(ctx, domain.Membership{
		ProjectID: params.ProjectID,
		UserID:    params.UserID,
		Role:      params.Role,
	})
}

// RemoveMember removes a user from a project. Members may remove
// themselves; anyone else requires a managing role. The owner cannot
// be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID int64, userID, actorID uuid.UUID) error {
	targetRole, err := s.memberRole(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if targetRole == domain.RoleOwner {
		return apperrors.ErrForbidden
	}

	if userID != actorID {
		actorRole, err := s.memberRole(ctx, projectID, actorID)
		if err != nil {
			return err
		}
		if !actorRole.CanManageMembers() {
			return apperrors.ErrForbidden
		}
	}

	return s.projectRepo.RemoveMember(ctx, projectID, userID)
}

func (s *ProjectService) memberRole(ctx context.Context, projectID int64, userID uuid.UUID) (domain.ProjectRole, error) {
	role, err := s.projectRepo.GetMemberRole(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotAMember) {
			return "", apperrors.ErrForbidden
		}
		return "", err
	}
	return role, nil
}
