package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tgienger/pdash/internal/models"
)

func insertProjects(ctx context.Context, tx *sql.Tx, projects []models.RawProject) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO projects (position, id, name, date_start, date_end, department_id, user_id, user_name, state, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare project insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range projects {
		deptID, err := upsertDepartment(ctx, tx, p.Department)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, i, p.ID, p.Name, formatTime(p.DateStart), formatTime(p.DateEnd),
			deptID, p.User.ID, p.User.Name, p.State, p.Active)
		if err != nil {
			return fmt.Errorf("insert project %d: %w", p.ID, err)
		}
	}
	return nil
}

// listProjects returns cached projects in snapshot order
func (db *DB) listProjects(ctx context.Context) ([]models.RawProject, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.name, p.date_start, p.date_end, COALESCE(d.name, ''), p.user_id, p.user_name, p.state, p.active
		FROM projects p
		LEFT JOIN departments d ON d.id = p.department_id
		ORDER BY p.position
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.RawProject
	for rows.Next() {
		var p models.RawProject
		var start, end sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &start, &end, &p.Department, &p.User.ID, &p.User.Name, &p.State, &p.Active); err != nil {
			return nil, err
		}
		p.DateStart = parseTime(start)
		p.DateEnd = parseTime(end)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ProjectCount returns the number of cached projects
func (db *DB) ProjectCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}
