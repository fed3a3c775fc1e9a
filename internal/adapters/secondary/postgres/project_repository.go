package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

const projectColumns = `id, name, description, owner_id, created_at, updated_at`

// ProjectRepository is the secondary adapter for project and membership
// persistence.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new project repository.
func NewProjectRepository(pool *pgxpool.Pool) ports.ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project   domain.Project
		ownerID   pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&ownerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		project.OwnerID = ownerID.Bytes
	}
	project.CreatedAt = createdAt.Time
	project.UpdatedAt = fromPgTimestampPtr(updatedAt)

	return &project, nil
}

// Create persists a new project entity.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	query := `
INSERT INTO projects (name, description, owner_id)
VALUES ($1, $2, $3)
RETURNING ` + projectColumns

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		project.Name,
		project.Description,
		toPgUUID(project.OwnerID),
	)

	return scanProject(row)
}

// GetByID retrieves a single project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// ListForMember retrieves every project the user owns or is a member of.
func (r *ProjectRepository) ListForMember(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	query := `
SELECT ` + projectColumns + `
FROM projects
WHERE id IN (SELECT project_id FROM project_members WHERE user_id = $1)
   OR owner_id = $1
ORDER BY created_at DESC, id DESC`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, toPgUUID(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListProjectIDsForMember returns the IDs of every project the user
// owns or is a listed member of.
func (r *ProjectRepository) ListProjectIDsForMember(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	query := `
SELECT project_id FROM project_members WHERE user_id = $1
UNION
SELECT id FROM projects WHERE owner_id = $1
ORDER BY 1`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, toPgUUID(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddMember inserts a membership row.
func (r *ProjectRepository) AddMember(ctx context.Context, membership domain.Membership) error {
	query := `
INSERT INTO project_members (project_id, user_id, role)
VALUES ($1, $2, $3)`

	_, err := GetDBTX(ctx, r.pool).Exec(ctx, query,
		membership.ProjectID,
		toPgUUID(membership.UserID),
		string(membership.Role),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrAlreadyAMember
		}
		return err
	}
	return nil
}

// RemoveMember deletes a membership row.
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID int64, userID uuid.UUID) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, projectID, toPgUUID(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotAMember
	}
	return nil
}

// GetMemberRole returns the user's role in the project, or
// ErrNotAMember when no membership row exists.
func (r *ProjectRepository) GetMemberRole(ctx context.Context, projectID int64, userID uuid.UUID) (domain.ProjectRole, error) {
	query := `SELECT role FROM project_members WHERE project_id = $1 AND user_id = $2`

	var role string
	err := GetDBTX(ctx, r.pool).QueryRow(ctx, query, projectID, toPgUUID(userID)).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotAMember
		}
		return "", err
	}
	return domain.ProjectRole(role), nil
}
