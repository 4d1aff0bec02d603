package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const projectColumns = `id, name, client, color, category, billable, billing_rate, archived, created_at, updated_at`

func scanProject(r rowScanner) (Project, error) {
	var (
		p                    Project
		createdAt, updatedAt string
		billable, archived   int
		rate                 decimal.NullDecimal
	)
	err := r.Scan(&p.ID, &p.Name, &p.Client, &p.Color, &p.Category, &billable, &rate, &archived, &createdAt, &updatedAt)
	if err != nil {
		return p, err
	}
	p.Billable = billable == 1
	p.Archived = archived == 1
	if rate.Valid {
		p.BillingRate = &rate.Decimal
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (in ProjectInput) normalize() (ProjectInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("project name is required")
	}
	if in.Color == "" {
		in.Color = "#6C63FF"
	}
	if in.Category == "" {
		in.Category = "work"
	}
	if in.BillingRate != nil && in.BillingRate.IsNegative() {
		return in, fmt.Errorf("billing rate must not be negative")
	}
	return in, nil
}

func (s *Store) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	now := s.stamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, client, color, category, billable, billing_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Client, in.Color, in.Category, boolInt(in.Billable), in.BillingRate, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProject(ctx, id)
}

func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &p, nil
}

// GetProjectByName looks a project up by its unique name.
func (s *Store) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE name = ?`, name))
	if err != nil {
		return nil, fmt.Errorf("get project %q: %w", name, err)
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context, includeArchived bool) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject changes a project's fields. Existing entries keep the
// billing amounts computed when they were saved.
func (s *Store) UpdateProject(ctx context.Context, id int64, in ProjectInput) error {
	in, err := in.normalize()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, client = ?, color = ?, category = ?, billable = ?, billing_rate = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, in.Client, in.Color, in.Category, boolInt(in.Billable), in.BillingRate, s.stamp(), id,
	)
	if err != nil {
		return fmt.Errorf("update project %d: %w", id, err)
	}
	return nil
}

func (s *Store) ArchiveProject(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE projects SET archived = 1, updated_at = ? WHERE id = ?`, s.stamp(), id,
	)
	if err != nil {
		return fmt.Errorf("archive project %d: %w", id, err)
	}
	return nil
}
