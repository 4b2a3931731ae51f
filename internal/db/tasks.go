package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tgienger/pdash/internal/models"
)

func insertTasks(ctx context.Context, tx *sql.Tx, tasks []models.RawTask) error {
	insertTask, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (position, id, name, create_date, deadline, parent_id, parent_name,
			project_id, project_name, state, stage, expected_duration_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}
	defer insertTask.Close()

	insertDep, err := tx.PrepareContext(ctx, `
		INSERT INTO task_dependencies (task_position, seq, depends_on_id, depends_on_name) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare dependency insert: %w", err)
	}
	defer insertDep.Close()

	for i, t := range tasks {
		_, err := insertTask.ExecContext(ctx, i, t.ID, t.Name, formatTime(t.CreateDate), formatTime(t.Deadline),
			t.Parent.ID, t.Parent.Name, t.Project.ID, t.Project.Name, t.State, t.Stage, t.ExpectedDurationDays)
		if err != nil {
			return fmt.Errorf("insert task %d: %w", t.ID, err)
		}
		for seq, dep := range t.DependsOn {
			if _, err := insertDep.ExecContext(ctx, i, seq, dep.ID, dep.Name); err != nil {
				return fmt.Errorf("insert dependency %d -> %d: %w", t.ID, dep.ID, err)
			}
		}
	}
	return nil
}

// listTasks returns cached tasks in snapshot order with dependencies attached
func (db *DB) listTasks(ctx context.Context) ([]models.RawTask, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT position, id, name, create_date, deadline, parent_id, parent_name,
			project_id, project_name, state, stage, expected_duration_days
		FROM tasks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.RawTask
	byPosition := make(map[int64]int)
	for rows.Next() {
		var t models.RawTask
		var position int64
		var created, deadline sql.NullString
		var duration sql.NullFloat64
		if err := rows.Scan(&position, &t.ID, &t.Name, &created, &deadline, &t.Parent.ID, &t.Parent.Name,
			&t.Project.ID, &t.Project.Name, &t.State, &t.Stage, &duration); err != nil {
			return nil, err
		}
		t.CreateDate = parseTime(created)
		t.Deadline = parseTime(deadline)
		if duration.Valid {
			d := duration.Float64
			t.ExpectedDurationDays = &d
		}
		byPosition[position] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load dependencies in one pass
	deps, err := db.QueryContext(ctx, `
		SELECT task_position, depends_on_id, depends_on_name
		FROM task_dependencies ORDER BY task_position, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer deps.Close()

	for deps.Next() {
		var position int64
		var ref models.Ref
		if err := deps.Scan(&position, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		if i, ok := byPosition[position]; ok {
			tasks[i].DependsOn = append(tasks[i].DependsOn, ref)
		}
	}
	return tasks, deps.Err()
}

// TaskCount returns the number of cached tasks
func (db *DB) TaskCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count)
	return count, err
}
