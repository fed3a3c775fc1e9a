package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type taskServiceMocks struct {
	taskRepo    *mocks.MockTaskRepository
	projectRepo *mocks.MockProjectRepository
	userRepo    *mocks.MockUserRepository
	broadcaster *mocks.MockEventBroadcaster
}

func newTaskService(t *testing.T) (ports.TaskService, taskServiceMocks) {
	t.Helper()
	m := taskServiceMocks{
		taskRepo:    mocks.NewMockTaskRepository(),
		projectRepo: mocks.NewMockProjectRepository(),
		userRepo:    mocks.NewMockUserRepository(),
		broadcaster: mocks.NewMockEventBroadcaster(),
	}
	svc := services.NewTaskService(m.taskRepo, m.projectRepo, m.userRepo, m.broadcaster, testLogger())
	return svc, m
}

func regularUser(id uuid.UUID) *domain.User {
	return &domain.User{ID: id, FullName: "Test User", Email: "user@example.com"}
}

func adminUser(id uuid.UUID) *domain.User {
	return &domain.User{ID: id, FullName: "Admin User", Email: "admin@example.com", IsAdmin: true}
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("creates personal task and dispatches creation event", func(t *testing.T) {
		svc, m := newTaskService(t)

		created := &domain.Task{
			ID:        42,
			Title:     "Write release notes",
			Status:    domain.StatusTodo,
			Priority:  domain.PriorityMedium,
			CreatorID: actorID,
			CreatedAt: time.Now().UTC(),
		}
		m.taskRepo.On("Create", ctx, mock.AnythingOfType("*domain.Task")).Return(created, nil)
		m.broadcaster.On("Dispatch", mock.MatchedBy(func(event domain.Event) bool {
			if event.Type != domain.EventTaskCreated {
				return false
			}
			snapshot, ok := event.Payload.(domain.TaskSnapshot)
			return ok && snapshot.ID == 42 &&
				len(event.Scopes) == 1 &&
				event.Scopes[0] == domain.UserScope(actorID)
		})).Once()

		task, err := svc.CreateTask(ctx, ports.CreateTaskParams{
			Title:   "Write release notes",
			ActorID: actorID,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(42), task.ID)
		m.taskRepo.AssertExpectations(t)
		m.broadcaster.AssertExpectations(t)
	})

	t.Run("project task requires membership", func(t *testing.T) {
		svc, m := newTaskService(t)
		projectID := int64(7)

		m.projectRepo.On("GetMemberRole", ctx, projectID, actorID).
			Return(domain.ProjectRole(""), apperrors.ErrNotAMember)

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{
			Title:     "Sprint planning",
			ProjectID: &projectID,
			ActorID:   actorID,
		})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		m.taskRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.broadcaster.AssertNotCalled(t, "Dispatch", mock.Anything)
	})

	t.Run("member creates project task with project scope on the event", func(t *testing.T) {
		svc, m := newTaskService(t)
		projectID := int64(7)
		assigneeID := uuid.New()

		m.projectRepo.On("GetMemberRole", ctx, projectID, actorID).
			Return(domain.RoleMember, nil)

		created := &domain.Task{
			ID:         9,
			Title:      "Sprint planning",
			Status:     domain.StatusTodo,
			Priority:   domain.PriorityHigh,
			CreatorID:  actorID,
			AssigneeID: &assigneeID,
			ProjectID:  &projectID,
		}
		m.taskRepo.On("Create", ctx, mock.AnythingOfType("*domain.Task")).Return(created, nil)
		m.broadcaster.On("Dispatch", mock.MatchedBy(func(event domain.Event) bool {
			return event.Type == domain.EventTaskCreated &&
				assert.ObjectsAreEqual([]domain.Scope{
					domain.UserScope(assigneeID),
					domain.UserScope(actorID),
					domain.ProjectScope(projectID),
				}, event.Scopes)
		})).Once()

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{
			Title:      "Sprint planning",
			Priority:   domain.PriorityHigh,
			AssigneeID: &assigneeID,
			ProjectID:  &projectID,
			ActorID:    actorID,
		})

		require.NoError(t, err)
		m.broadcaster.AssertExpectations(t)
	})

	t.Run("invalid input never reaches storage", func(t *testing.T) {
		svc, m := newTaskService(t)

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{
			Title:   "",
			ActorID: actorID,
		})

		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
		m.taskRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("storage failure suppresses the event", func(t *testing.T) {
		svc, m := newTaskService(t)

		m.taskRepo.On("Create", ctx, mock.AnythingOfType("*domain.Task")).
			Return(nil, apperrors.ErrInternal)

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{
			Title:   "Doomed",
			ActorID: actorID,
		})

		assert.ErrorIs(t, err, apperrors.ErrInternal)
		m.broadcaster.AssertNotCalled(t, "Dispatch", mock.Anything)
	})
}

func TestTaskService_GetTask(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()
	task := &domain.Task{ID: 1, Title: "Review PR", CreatorID: creatorID}

	t.Run("creator can view", func(t *testing.T) {
		svc, m := newTaskService(t)
		m.taskRepo.On("GetByID", ctx, int64(1)).Return(task, nil)

		got, err := svc.GetTask(ctx, 1, creatorID)

		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("assignee can view", func(t *testing.T) {
		svc, m := newTaskService(t)
		assigneeID := uuid.New()
		assigned := &domain.Task{ID: 2, CreatorID: creatorID, AssigneeID: &assigneeID}
		m.taskRepo.On("GetByID", ctx, int64(2)).Return(assigned, nil)

		_, err := svc.GetTask(ctx, 2, assigneeID)

		require.NoError(t, err)
	})

	t.Run("admin can view anything", func(t *testing.T) {
		svc, m := newTaskService(t)
		adminID := uuid.New()
		m.taskRepo.On("GetByID", ctx, int64(1)).Return(task, nil)
		m.userRepo.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)

		_, err := svc.GetTask(ctx, 1, adminID)

		require.NoError(t, err)
	})

	t.Run("project member can view project task", func(t *testing.T) {
		svc, m := newTaskService(t)
		memberID := uuid.New()
		projectID := int64(3)
		projectTask := &domain.Task{ID: 4, CreatorID: creatorID, ProjectID: &projectID}
		m.taskRepo.On("GetByID", ctx, int64(4)).Return(projectTask, nil)
		m.userRepo.On("GetByID", ctx, memberID).Return(regularUser(memberID), nil)
		m.projectRepo.On("GetMemberRole", ctx, projectID, memberID).Return(domain.RoleViewer, nil)

		_, err := svc.GetTask(ctx, 4, memberID)

		require.NoError(t, err)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		svc, m := newTaskService(t)
		strangerID := uuid.New()
		m.taskRepo.On("GetByID", ctx, int64(1)).Return(task, nil)
		m.userRepo.On("GetByID", ctx, strangerID).Return(regularUser(strangerID), nil)

		_, err := svc.GetTask(ctx, 1, strangerID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("missing task", func(t *testing.T) {
		svc, m := newTaskService(t)
		m.taskRepo.On("GetByID", ctx, int64(99)).Return(nil, apperrors.ErrTaskNotFound)

		_, err := svc.GetTask(ctx, 99, creatorID)

		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("status change is persisted and broadcast", func(t *testing.T) {
		svc, m := newTaskService(t)
		task := &domain.Task{ID: 1, Title: "Ship it", Status: domain.StatusTodo, CreatorID: creatorID}
		m.taskRepo.On("GetByID", ctx, int64(1)).Return(task, nil)
		m.taskRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.Task) bool {
			return updated.Status == domain.StatusInProgress
		})).Return(task, nil)
		m.broadcaster.On("Dispatch", mock.MatchedBy(func(event domain.Event) bool {
			return event.Type == domain.EventTaskUpdated
		})).Once()

		status := domain.StatusInProgress
		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:  1,
			ActorID: creatorID,
			Status:  &status,
		})

		require.NoError(t, err)
		m.broadcaster.AssertExpectations(t)
	})

	t.Run("unassign clears the assignee", func(t *testing.T) {
		svc, m := newTaskService(t)
		assigneeID := uuid.New()
		task := &domain.Task{ID: 1, Title: "Ship it", CreatorID: creatorID, AssigneeID: &assigneeID}
		m.taskRepo.On("GetByID", ctx, int64(1)).Return(task, nil)
		m.taskRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.Task) bool {
			return updated.AssigneeID == nil
		})).Return(task, nil)
		m.broadcaster.On("Dispatch", mock.Anything).Once()

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:   1,
			ActorID:  creatorID,
			Unassign: true,
		})

		require.NoError(t, err)
		m.taskRepo.AssertExpectations(t)
	})

	t.Run("invalid status is rejected before storage", func(t *testing.T) {
		svc, m := newTaskService(t)
		task := &domain.Task{ID: 1, Title: "Ship it", CreatorID: creatorID}
		m.taskRepo.On("GetByID", ctx, int64(1)).Return(task, nil)

		status := domain.TaskStatus("DONE")
		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:  1,
			ActorID: creatorID,
			Status:  &status,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		m.taskRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		m.broadcaster.AssertNotCalled(t, "Dispatch", mock.Anything)
	})

	t.Run("non-viewer cannot update", func(t *testing.T) {
		svc, m := newTaskService(t)
		strangerID := uuid.New()
		task := &domain.Task{ID: 1, Title: "Ship it", CreatorID: creatorID}
		m.taskRepo.On("GetByID", ctx, int64(1)).Return(task, nil)
		m.userRepo.On("GetByID", ctx, strangerID).Return(regularUser(strangerID), nil)

		title := "Hijacked"
		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:  1,
			ActorID: strangerID,
			Title:   &title,
		})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()
	projectID := int64(5)

	t.Run("creator deletes and the event carries pre-delete scopes", func(t *testing.T) {
		svc, m := newTaskService(t)
		task := &domain.Task{ID: 8, Title: "Old chore", CreatorID: creatorID, ProjectID: &projectID}
		m.taskRepo.On("GetByID", ctx, int64(8)).Return(task, nil)
		m.taskRepo.On("Delete", ctx, int64(8)).Return(nil)
		m.broadcaster.On("Dispatch", mock.MatchedBy(func(event domain.Event) bool {
			payload, ok := event.Payload.(domain.TaskDeletedPayload)
			return event.Type == domain.EventTaskDeleted &&
				ok && payload.TaskID == 8 &&
				assert.ObjectsAreEqual([]domain.Scope{
					domain.UserScope(creatorID),
					domain.ProjectScope(projectID),
				}, event.Scopes)
		})).Once()

		err := svc.DeleteTask(ctx, 8, creatorID)

		require.NoError(t, err)
		m.broadcaster.AssertExpectations(t)
	})

	t.Run("admin may delete another user's task", func(t *testing.T) {
		svc, m := newTaskService(t)
		adminID := uuid.New()
		task := &domain.Task{ID: 8, CreatorID: creatorID}
		m.taskRepo.On("GetByID", ctx, int64(8)).Return(task, nil)
		m.userRepo.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
		m.taskRepo.On("Delete", ctx, int64(8)).Return(nil)
		m.broadcaster.On("Dispatch", mock.Anything).Once()

		err := svc.DeleteTask(ctx, 8, adminID)

		require.NoError(t, err)
	})

	t.Run("assignee without creator or admin rights cannot delete", func(t *testing.T) {
		svc, m := newTaskService(t)
		assigneeID := uuid.New()
		task := &domain.Task{ID: 8, CreatorID: creatorID, AssigneeID: &assigneeID}
		m.taskRepo.On("GetByID", ctx, int64(8)).Return(task, nil)
		m.userRepo.On("GetByID", ctx, assigneeID).Return(regularUser(assigneeID), nil)

		err := svc.DeleteTask(ctx, 8, assigneeID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		m.taskRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		m.broadcaster.AssertNotCalled(t, "Dispatch", mock.Anything)
	})
}

func TestTaskService_ListTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("admin listing is unrestricted", func(t *testing.T) {
		svc, m := newTaskService(t)
		adminID := uuid.New()
		m.userRepo.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
		m.taskRepo.On("ListForViewer", ctx, mock.MatchedBy(func(params ports.ListTasksRepoParams) bool {
			return params.Unrestricted && params.ViewerID == adminID
		})).Return([]*domain.Task{}, nil)

		_, err := svc.ListTasks(ctx, ports.ListTasksParams{ViewerID: adminID, Limit: 20})

		require.NoError(t, err)
		m.taskRepo.AssertExpectations(t)
	})

	t.Run("regular viewer listing is scoped with filters forwarded", func(t *testing.T) {
		svc, m := newTaskService(t)
		viewerID := uuid.New()
		status := "TODO"
		m.userRepo.On("GetByID", ctx, viewerID).Return(regularUser(viewerID), nil)
		m.taskRepo.On("ListForViewer", ctx, mock.MatchedBy(func(params ports.ListTasksRepoParams) bool {
			return !params.Unrestricted &&
				params.Status != nil && *params.Status == "TODO" &&
				params.Limit == 21 && params.Offset == 0
		})).Return([]*domain.Task{{ID: 1, CreatorID: viewerID}}, nil)

		tasks, err := svc.ListTasks(ctx, ports.ListTasksParams{
			ViewerID: viewerID,
			Limit:    21,
			Status:   &status,
		})

		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})
}
