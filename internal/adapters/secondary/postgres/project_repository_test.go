package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
)

func TestProjectRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	projectRepo := NewProjectRepository(testPool)
	userRepo := NewUserRepository(testPool)

	owner := createTestUser(t, ctx, userRepo)

	created, err := projectRepo.Create(ctx, &domain.Project{
		Name:        "Platform Migration",
		Description: "Move everything",
		OwnerID:     owner.ID,
	})
	require.NoError(t, err, "Failed to create project")
	assert.NotZero(t, created.ID)

	found, err := projectRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Platform Migration", found.Name)
	assert.Equal(t, owner.ID, found.OwnerID)

	_, err = projectRepo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
}

func TestProjectRepository_Membership(t *testing.T) {
	ctx := context.Background()
	projectRepo := NewProjectRepository(testPool)
	userRepo := NewUserRepository(testPool)

	owner := createTestUser(t, ctx, userRepo)
	member := createTestUser(t, ctx, userRepo)

	project, err := projectRepo.Create(ctx, &domain.Project{Name: "Membership", OwnerID: owner.ID})
	require.NoError(t, err)

	membership := domain.Membership{
		ProjectID: project.ID,
		UserID:    member.ID,
		Role:      domain.RoleMember,
	}
	require.NoError(t, projectRepo.AddMember(ctx, membership))

	t.Run("duplicate membership", func(t *testing.T) {
		assert.ErrorIs(t, projectRepo.AddMember(ctx, membership), apperrors.ErrAlreadyAMember)
	})

	t.Run("role lookup", func(t *testing.T) {
		role, err := projectRepo.GetMemberRole(ctx, project.ID, member.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMember, role)

		_, err = projectRepo.GetMemberRole(ctx, project.ID, owner.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotAMember)
	})

	t.Run("remove member", func(t *testing.T) {
		require.NoError(t, projectRepo.RemoveMember(ctx, project.ID, member.ID))
		assert.ErrorIs(t, projectRepo.RemoveMember(ctx, project.ID, member.ID), apperrors.ErrNotAMember)
	})
}

func TestProjectRepository_ListForMember(t *testing.T) {
	ctx := context.Background()
	projectRepo := NewProjectRepository(testPool)
	userRepo := NewUserRepository(testPool)

	owner := createTestUser(t, ctx, userRepo)
	member := createTestUser(t, ctx, userRepo)

	owned, err := projectRepo.Create(ctx, &domain.Project{Name: "Owned", OwnerID: owner.ID})
	require.NoError(t, err)
	joined, err := projectRepo.Create(ctx, &domain.Project{Name: "Joined", OwnerID: owner.ID})
	require.NoError(t, err)
	require.NoError(t, projectRepo.AddMember(ctx, domain.Membership{
		ProjectID: joined.ID, UserID: member.ID, Role: domain.RoleViewer,
	}))

	t.Run("owner sees owned projects without a membership row", func(t *testing.T) {
		projects, err := projectRepo.ListForMember(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, projects, 2)
	})

	t.Run("member sees joined projects only", func(t *testing.T) {
		projects, err := projectRepo.ListForMember(ctx, member.ID)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Joined", projects[0].Name)
	})

	t.Run("project ids cover ownership and membership", func(t *testing.T) {
		ids, err := projectRepo.ListProjectIDsForMember(ctx, owner.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{owned.ID, joined.ID}, ids)

		ids, err = projectRepo.ListProjectIDsForMember(ctx, member.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{joined.ID}, ids)
	})
}
