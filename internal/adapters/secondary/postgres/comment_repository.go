package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

const commentColumns = `id, task_id, author_id, body, created_at`

// CommentRepository is the secondary adapter for comment persistence.
type CommentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CommentRepository = (*CommentRepository)(nil)

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(pool *pgxpool.Pool) ports.CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var (
		comment   domain.Comment
		authorID  pgtype.UUID
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&comment.ID,
		&comment.TaskID,
		&authorID,
		&comment.Body,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if authorID.Valid {
		comment.AuthorID = authorID.Bytes
	}
	comment.CreatedAt = createdAt.Time

	return &comment, nil
}

// Create persists a new comment entity.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	query := `
INSERT INTO comments (task_id, author_id, body)
VALUES ($1, $2, $3)
RETURNING ` + commentColumns

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		comment.TaskID,
		toPgUUID(comment.AuthorID),
		comment.Body,
	)

	return scanComment(row)
}

// ListByTaskID retrieves every comment on a task, oldest first.
func (r *CommentRepository) ListByTaskID(ctx context.Context, taskID int64) ([]*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE task_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
