package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
)

// PutProject inserts a project or replaces the one with the same id.
func PutProject(ctx context.Context, q Querier, p *card.Project) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, p.ID, p.Name, p.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetProject retrieves a project by id. Returns nil, nil when absent.
func GetProject(ctx context.Context, q Querier, id string) (*card.Project, error) {
	var p card.Project
	err := q.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM projects WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &p, nil
}

// ListProjects returns all projects, the default project first then by creation.
func ListProjects(ctx context.Context, q Querier) ([]*card.Project, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, created_at FROM projects
		ORDER BY (id = ?) DESC, created_at, id
	`, card.DefaultProjectID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var projects []*card.Project
	for rows.Next() {
		var p card.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return projects, nil
}

// RenameProject changes a project's name. Returns false if it does not exist.
func RenameProject(ctx context.Context, q Querier, id, name string) (bool, error) {
	result, err := q.ExecContext(ctx, "UPDATE projects SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(result)
}

// DeleteProject removes a project row. Returns false if it did not exist.
// Callers are responsible for removing the project's cards first.
func DeleteProject(ctx context.Context, q Querier, id string) (bool, error) {
	result, err := q.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(result)
}

// EnsureDefaultProject creates the default project if it is missing.
// Returns true when a row was inserted.
func EnsureDefaultProject(ctx context.Context, q Querier) (bool, error) {
	result, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO projects (id, name, created_at) VALUES (?, ?, ?)",
		card.DefaultProjectID, card.DefaultProjectName, time.Now().UnixMilli(),
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(result)
}
