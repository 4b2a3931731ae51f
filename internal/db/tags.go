package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Departments are the Odoo project tags used to group projects. They are
// stored once per name and referenced by id from projects.

// upsertDepartment returns the id for name, creating the row if needed.
// Names match case-insensitively; empty names map to NULL.
func upsertDepartment(ctx context.Context, tx *sql.Tx, name string) (any, error) {
	if name == "" {
		return nil, nil
	}

	_, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO departments (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("insert department %q: %w", name, err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM departments WHERE name = ?", name).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("lookup department %q: %w", name, err)
	}
	return id, nil
}

// ListDepartments returns the cached department names in alphabetical order
func (db *DB) ListDepartments() ([]string, error) {
	rows, err := db.Query("SELECT name FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DepartmentProjectCount returns how many cached projects carry the department
func (db *DB) DepartmentProjectCount(name string) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM projects p
		JOIN departments d ON d.id = p.department_id
		WHERE d.name = ?
	`, name).Scan(&count)
	return count, err
}
