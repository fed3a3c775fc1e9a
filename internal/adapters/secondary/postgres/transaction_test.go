package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
)

func TestTransactionManager_WithTransaction(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	txManager := NewTransactionManager(testPool)
	projectRepo := NewProjectRepository(testPool)
	userRepo := NewUserRepository(testPool)

	owner := createTestUser(t, ctx, userRepo)

	t.Run("commit makes all writes visible", func(t *testing.T) {
		var projectID int64
		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			project, err := projectRepo.Create(txCtx, &domain.Project{Name: "Committed", OwnerID: owner.ID})
			if err != nil {
				return err
			}
			projectID = project.ID
			return projectRepo.AddMember(txCtx, domain.Membership{
				ProjectID: project.ID, UserID: owner.ID, Role: domain.RoleOwner,
			})
		})
		require.NoError(t, err)

		_, err = projectRepo.GetByID(ctx, projectID)
		require.NoError(t, err)
		role, err := projectRepo.GetMemberRole(ctx, projectID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleOwner, role)
	})

	t.Run("error rolls back every write", func(t *testing.T) {
		boom := errors.New("boom")
		var projectID int64
		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			project, err := projectRepo.Create(txCtx, &domain.Project{Name: "Rolled back", OwnerID: owner.ID})
			if err != nil {
				return err
			}
			projectID = project.ID
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = projectRepo.GetByID(ctx, projectID)
		assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	})
}
