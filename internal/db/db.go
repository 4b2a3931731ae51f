package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tgienger/pdash/internal/models"
)

//go:embed schema.sql
var schema string

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been cached yet
var ErrNoSnapshot = errors.New("no cached snapshot")

// Setting keys
const (
	SettingLastProject = "last_project_id"
	SettingDepartment  = "department_filter"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New opens the cache database at path, creating its directory and schema
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db}, nil
}

// SaveSnapshot replaces the cached snapshot in a single transaction
func (db *DB) SaveSnapshot(ctx context.Context, snap models.Snapshot, refreshID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save txn: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"task_dependencies", "tasks", "projects", "departments", "snapshot_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertProjects(ctx, tx, snap.Projects); err != nil {
		return err
	}
	if err := insertTasks(ctx, tx, snap.Tasks); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, fetched_at, source, refresh_id) VALUES (1, ?, ?, ?)
	`, formatTime(snap.FetchedAt), snap.Source, refreshID)
	if err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save txn: %w", err)
	}
	committed = true
	return nil
}

// LoadSnapshot returns the cached snapshot, or ErrNoSnapshot
func (db *DB) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	var fetchedAt sql.NullString

	err := db.QueryRowContext(ctx, "SELECT fetched_at, source FROM snapshot_meta WHERE id = 1").
		Scan(&fetchedAt, &snap.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot meta: %w", err)
	}
	snap.FetchedAt = parseTime(fetchedAt)

	if snap.Projects, err = db.listProjects(ctx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Tasks, err = db.listTasks(ctx); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Times are stored as RFC 3339 text in UTC; NULL means unset.
func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
