package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// MembershipService resolves the broadcast scopes a user's connections
// subscribe to. It is queried once per connection at join time, so
// membership changes take effect on the next reconnect.
type MembershipService struct {
	projectRepo ports.ProjectRepository
	logger      *slog.Logger
}

var _ ports.MembershipResolver = (*MembershipService)(nil)

// NewMembershipService creates a new membership resolver
func NewMembershipService(projectRepo ports.ProjectRepository, logger *slog.Logger) *MembershipService {
	return &MembershipService{
		projectRepo: projectRepo,
		logger:      logger.With("component", "membership_resolver"),
	}
}

// ScopesFor returns the user's own scope plus a project scope for
// every project they own or are a member of. When storage is
// unreachable the connection degrades to the user scope alone rather
// than failing closed.
func (s *MembershipService) ScopesFor(ctx context.Context, userID uuid.UUID) []domain.Scope {
	scopes := []domain.Scope{domain.UserScope(userID)}

	projectIDs, err := s.projectRepo.ListProjectIDsForMember(ctx, userID)
	if err != nil {
		s.logger.Warn("membership resolution failed, degrading to user scope",
			"user_id", userID,
			"error", err,
		)
		return scopes
	}

	for _, projectID := range projectIDs {
		scopes = append(scopes, domain.ProjectScope(projectID))
	}

	return scopes
}
