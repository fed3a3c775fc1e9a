package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

const taskColumns = `id, title, description, status, priority, creator_id, assignee_id,
	project_id, due_date, estimated_hours, actual_hours, archived, created_at, updated_at`

// TaskRepository is the secondary adapter for task persistence.
type TaskRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

// NewTaskRepository creates a new task repository.
func NewTaskRepository(pool *pgxpool.Pool) ports.TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task           domain.Task
		creatorID      pgtype.UUID
		assigneeID     pgtype.UUID
		projectID      pgtype.Int8
		dueDate        pgtype.Timestamptz
		estimatedHours pgtype.Float8
		actualHours    pgtype.Float8
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&creatorID,
		&assigneeID,
		&projectID,
		&dueDate,
		&estimatedHours,
		&actualHours,
		&task.Archived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if creatorID.Valid {
		task.CreatorID = creatorID.Bytes
	}
	task.AssigneeID = fromPgUUIDPtr(assigneeID)
	task.ProjectID = fromPgInt8Ptr(projectID)
	task.DueDate = fromPgTimestampPtr(dueDate)
	task.EstimatedHours = fromPgFloat8Ptr(estimatedHours)
	task.ActualHours = fromPgFloat8Ptr(actualHours)
	task.CreatedAt = createdAt.Time
	task.UpdatedAt = fromPgTimestampPtr(updatedAt)

	return &task, nil
}

// Create persists a new task entity.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	query := `
INSERT INTO tasks (title, description, status, priority, creator_id, assignee_id,
	project_id, due_date, estimated_hours)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + taskColumns

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		toPgUUID(task.CreatorID),
		toPgUUIDPtr(task.AssigneeID),
		toPgInt8Ptr(task.ProjectID),
		toPgTimestampPtr(task.DueDate),
		toPgFloat8Ptr(task.EstimatedHours),
	)

	return scanTask(row)
}

// GetByID retrieves a single task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// Update persists changes to an existing task entity. The updated_at
// column is always set server-side so every write bumps it.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	query := `
UPDATE tasks
SET title = $2,
	description = $3,
	status = $4,
	priority = $5,
	assignee_id = $6,
	project_id = $7,
	due_date = $8,
	estimated_hours = $9,
	actual_hours = $10,
	archived = $11,
	updated_at = now()
WHERE id = $1
RETURNING ` + taskColumns

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		toPgUUIDPtr(task.AssigneeID),
		toPgInt8Ptr(task.ProjectID),
		toPgTimestampPtr(task.DueDate),
		toPgFloat8Ptr(task.EstimatedHours),
		toPgFloat8Ptr(task.ActualHours),
		task.Archived,
	)

	updated, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a task. Comments go with it via ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// ListForViewer returns a filtered, paginated task listing. Without the
// unrestricted flag the result is limited to tasks the viewer created,
// is assigned to, or that live in a project the viewer belongs to.
func (r *TaskRepository) ListForViewer(ctx context.Context, params ports.ListTasksRepoParams) ([]*domain.Task, error) {
	var (
		conditions []string
		args       []interface{}
	)

	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if !params.Unrestricted {
		viewer := arg(toPgUUID(params.ViewerID))
		conditions = append(conditions, fmt.Sprintf(
			`(creator_id = %[1]s OR assignee_id = %[1]s OR project_id IN (
				SELECT project_id FROM project_members WHERE user_id = %[1]s))`, viewer))
	}

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = %s", arg(*params.Status)))
	}
	if params.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = %s", arg(*params.Priority)))
	}
	if params.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = %s", arg(*params.ProjectID)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s",
		arg(params.Limit), arg(params.Offset))

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListForStats returns the full non-archived task set matching the
// filter, for in-memory aggregation.
func (r *TaskRepository) ListForStats(ctx context.Context, filter ports.StatsFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE archived = false`
	var args []interface{}

	if !filter.Unrestricted {
		query += ` AND (creator_id = $1 OR assignee_id = $1)`
		args = append(args, toPgUUID(filter.ViewerID))
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
