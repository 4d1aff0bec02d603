package store

import (
	"context"
	"fmt"
	"strings"
)

const taskColumns = `id, project_id, name, tags, archived, created_at, updated_at`

func scanTask(r rowScanner) (Task, error) {
	var (
		t                    Task
		createdAt, updatedAt string
		archived             int
	)
	if err := r.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Tags, &archived, &createdAt, &updatedAt); err != nil {
		return t, err
	}
	t.Archived = archived == 1
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, projectID int64, name, tags string) (*Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("task name is required")
	}

	now := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (project_id, name, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		projectID, name, tags, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, projectID int64, includeArchived bool) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) ArchiveTask(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET archived = 1, updated_at = ? WHERE id = ?`, s.stamp(), id,
	)
	if err != nil {
		return fmt.Errorf("archive task %d: %w", id, err)
	}
	return nil
}
