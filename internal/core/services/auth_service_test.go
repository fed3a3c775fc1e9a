package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/mocks"
	"github.com/taskflow/taskflow-backend/internal/core/services"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	params := domain.UserRegistrationParams{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Password: "Password123",
	}

	t.Run("registers a new user", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, params.Email).Return(nil, apperrors.ErrUserNotFound)
		userRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == params.Email && u.FullName == params.FullName &&
				u.HashedPassword != "" && u.HashedPassword != params.Password
		})).Return(&domain.User{Email: params.Email, FullName: params.FullName}, nil)

		svc := services.NewAuthService(userRepo)
		user, err := svc.Register(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, params.Email, user.Email)
		userRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, params.Email).
			Return(&domain.User{Email: params.Email}, nil)

		svc := services.NewAuthService(userRepo)
		_, err := svc.Register(ctx, params)

		assert.ErrorIs(t, err, apperrors.ErrUserExists)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("weak password fails validation", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()

		svc := services.NewAuthService(userRepo)
		_, err := svc.Register(ctx, domain.UserRegistrationParams{
			FullName: "Jane Doe",
			Email:    "jane@example.com",
			Password: "short",
		})

		var validationErrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		assert.Contains(t, validationErrs.Errors, "password")
		userRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	password := "Password123"

	newStoredUser := func(t *testing.T) *domain.User {
		t.Helper()
		user, err := domain.NewUser(domain.UserRegistrationParams{
			FullName: "Jane Doe",
			Email:    "jane@example.com",
			Password: password,
		})
		require.NoError(t, err)
		return user
	}

	t.Run("valid credentials", func(t *testing.T) {
		stored := newStoredUser(t)
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, stored.Email).Return(stored, nil)

		svc := services.NewAuthService(userRepo)
		user, err := svc.Login(ctx, stored.Email, password)

		require.NoError(t, err)
		assert.Equal(t, stored.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		stored := newStoredUser(t)
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, stored.Email).Return(stored, nil)

		svc := services.NewAuthService(userRepo)
		_, err := svc.Login(ctx, stored.Email, "WrongPassword1")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, "ghost@example.com").
			Return(nil, apperrors.ErrUserNotFound)

		svc := services.NewAuthService(userRepo)
		_, err := svc.Login(ctx, "ghost@example.com", password)

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := services.NewAuthService(mocks.NewMockUserRepository())

		_, err := svc.Login(ctx, "", password)
		assert.ErrorIs(t, err, apperrors.ErrEmailRequired)

		_, err = svc.Login(ctx, "jane@example.com", "")
		assert.ErrorIs(t, err, apperrors.ErrPasswordRequired)
	})
}
