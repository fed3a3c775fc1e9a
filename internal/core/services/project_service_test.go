package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/mocks"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
	"github.com/taskflow/taskflow-backend/internal/core/services"
)

func TestProjectService_CreateProject(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("creates project and owner membership in one transaction", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		txManager := mocks.NewMockTransactionManager()

		created := &domain.Project{ID: 1, Name: "Website Redesign", OwnerID: ownerID}
		txManager.On("WithTransaction", ctx, mock.Anything).Return(nil)
		projectRepo.On("Create", ctx, mock.AnythingOfType("*domain.Project")).Return(created, nil)
		projectRepo.On("AddMember", ctx, domain.Membership{
			ProjectID: 1,
			UserID:    ownerID,
			Role:      domain.RoleOwner,
		}).Return(nil)

		svc := services.NewProjectService(projectRepo, txManager)
		project, err := svc.CreateProject(ctx, ports.CreateProjectParams{
			Name:    "Website Redesign",
			OwnerID: ownerID,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), project.ID)
		projectRepo.AssertExpectations(t)
	})

	t.Run("invalid name never opens a transaction", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		txManager := mocks.NewMockTransactionManager()

		svc := services.NewProjectService(projectRepo, txManager)
		_, err := svc.CreateProject(ctx, ports.CreateProjectParams{
			Name:    "",
			OwnerID: ownerID,
		})

		assert.ErrorIs(t, err, apperrors.ErrProjectNameRequired)
		txManager.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
	})
}

func TestProjectService_GetProject(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()
	project := &domain.Project{ID: 3, Name: "Ops", OwnerID: uuid.New()}

	t.Run("member can view", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, int64(3), memberID).Return(domain.RoleViewer, nil)
		projectRepo.On("GetByID", ctx, int64(3)).Return(project, nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		got, err := svc.GetProject(ctx, 3, memberID)

		require.NoError(t, err)
		assert.Equal(t, project, got)
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, int64(3), memberID).
			Return(domain.ProjectRole(""), apperrors.ErrNotAMember)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		_, err := svc.GetProject(ctx, 3, memberID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		projectRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestProjectService_AddMember(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	newUserID := uuid.New()
	projectID := int64(3)

	t.Run("owner adds a member", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, projectID, ownerID).Return(domain.RoleOwner, nil)
		projectRepo.On("AddMember", ctx, domain.Membership{
			ProjectID: projectID,
			UserID:    newUserID,
			Role:      domain.RoleMember,
		}).Return(nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.AddMember(ctx, ports.AddMemberParams{
			ProjectID: projectID,
			UserID:    newUserID,
			Role:      domain.RoleMember,
			ActorID:   ownerID,
		})

		require.NoError(t, err)
		projectRepo.AssertExpectations(t)
	})

	t.Run("plain member may not manage members", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		actorID := uuid.New()
		projectRepo.On("GetMemberRole", ctx, projectID, actorID).Return(domain.RoleMember, nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.AddMember(ctx, ports.AddMemberParams{
			ProjectID: projectID,
			UserID:    newUserID,
			Role:      domain.RoleMember,
			ActorID:   actorID,
		})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		projectRepo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
	})

	t.Run("owner role cannot be granted", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, projectID, ownerID).Return(domain.RoleOwner, nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.AddMember(ctx, ports.AddMemberParams{
			ProjectID: projectID,
			UserID:    newUserID,
			Role:      domain.RoleOwner,
			ActorID:   ownerID,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
	})

	t.Run("duplicate membership surfaces as a conflict", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, projectID, ownerID).Return(domain.RoleAdmin, nil)
		projectRepo.On("AddMember", ctx, mock.Anything).Return(apperrors.ErrAlreadyAMember)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.AddMember(ctx, ports.AddMemberParams{
			ProjectID: projectID,
			UserID:    newUserID,
			Role:      domain.RoleViewer,
			ActorID:   ownerID,
		})

		assert.ErrorIs(t, err, apperrors.ErrAlreadyAMember)
	})
}

func TestProjectService_RemoveMember(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	memberID := uuid.New()
	projectID := int64(3)

	t.Run("owner removes a member", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, projectID, memberID).Return(domain.RoleMember, nil)
		projectRepo.On("GetMemberRole", ctx, projectID, ownerID).Return(domain.RoleOwner, nil)
		projectRepo.On("RemoveMember", ctx, projectID, memberID).Return(nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.RemoveMember(ctx, projectID, memberID, ownerID)

		require.NoError(t, err)
		projectRepo.AssertExpectations(t)
	})

	t.Run("member removes themselves", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, projectID, memberID).Return(domain.RoleMember, nil)
		projectRepo.On("RemoveMember", ctx, projectID, memberID).Return(nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.RemoveMember(ctx, projectID, memberID, memberID)

		require.NoError(t, err)
	})

	t.Run("the owner cannot be removed", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		projectRepo.On("GetMemberRole", ctx, projectID, ownerID).Return(domain.RoleOwner, nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.RemoveMember(ctx, projectID, ownerID, ownerID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		projectRepo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("plain member cannot remove someone else", func(t *testing.T) {
		projectRepo := mocks.NewMockProjectRepository()
		actorID := uuid.New()
		projectRepo.On("GetMemberRole", ctx, projectID, memberID).Return(domain.RoleMember, nil)
		projectRepo.On("GetMemberRole", ctx, projectID, actorID).Return(domain.RoleViewer, nil)

		svc := services.NewProjectService(projectRepo, mocks.NewMockTransactionManager())
		err := svc.RemoveMember(ctx, projectID, memberID, actorID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}
