package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	"tramita/pkg/platform/sentinel"
)

// TaskStore persists follow-up work items.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskColumns = `id, process_id, group_id, title, description, due_date, priority, status,
	assignee_id, created_by, created_at, updated_at`

func (s *TaskStore) Insert(ctx context.Context, t *models.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := run(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(t.ID), nullUUID(uuid.UUID(t.ProcessID)), nullUUID(uuid.UUID(t.GroupID)),
		t.Title, t.Description, t.DueDate, string(t.Priority), string(t.Status),
		uuid.UUID(t.AssigneeID), uuid.UUID(t.CreatedBy), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *TaskStore) FindByID(ctx context.Context, taskID id.TaskID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := run(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(taskID))
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Update(ctx context.Context, t *models.Task) error {
	query := `UPDATE tasks SET title = $2, description = $3, due_date = $4, priority = $5,
		status = $6, assignee_id = $7, updated_at = $8 WHERE id = $1`
	res, err := run(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(t.ID), t.Title, t.Description, t.DueDate, string(t.Priority),
		string(t.Status), uuid.UUID(t.AssigneeID), t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if rowsAffected(res) == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *TaskStore) ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE process_id = $1 ORDER BY due_date`
	rows, err := run(ctx, s.db).QueryContext(ctx, query, uuid.UUID(processID))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TaskStore) DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error) {
	res, err := run(ctx, s.db).ExecContext(ctx,
		`DELETE FROM tasks WHERE process_id = $1`, uuid.UUID(processID))
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return rowsAffected(res), nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t                  models.Task
		processID, groupID uuid.NullUUID
		priority, status   string
	)
	err := row.Scan(
		(*uuid.UUID)(&t.ID), &processID, &groupID, &t.Title, &t.Description,
		&t.DueDate, &priority, &status,
		(*uuid.UUID)(&t.AssigneeID), (*uuid.UUID)(&t.CreatedBy), &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ProcessID = id.ProcessID(processID.UUID)
	t.GroupID = id.GroupID(groupID.UUID)
	t.Priority = models.TaskPriority(priority)
	t.Status = models.TaskStatus(status)
	return &t, nil
}
