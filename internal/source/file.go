package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tgienger/pdash/internal/models"
)

// File reads a search_read JSON dump from disk
type File struct {
	path        string
	hoursPerDay float64
	logger      *slog.Logger
}

// NewFile creates a file source
func NewFile(path string, hoursPerDay float64, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, hoursPerDay: hoursPerDay, logger: logger}
}

// Name returns "file"
func (f *File) Name() string {
	return "file"
}

// Fetch reads and decodes the dump
func (f *File) Fetch(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, &FetchError{Source: f.Name(), Op: "read", Err: err}
	}

	file, err := os.Open(f.path)
	if err != nil {
		return models.Snapshot{}, &FetchError{Source: f.Name(), Op: "read", Err: err}
	}
	defer file.Close()

	snap, err := Decode(file, f.hoursPerDay)
	if err != nil {
		return models.Snapshot{}, &FetchError{Source: f.Name(), Op: "decode", Err: err}
	}
	snap.Source = f.Name()

	f.logger.Debug("file snapshot loaded",
		"path", f.path,
		"projects", len(snap.Projects),
		"tasks", len(snap.Tasks),
	)
	return snap, nil
}

// Decode parses a dump. Inactive projects and their tasks are dropped, like
// the Odoo source does.
func Decode(r io.Reader, hoursPerDay float64) (models.Snapshot, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	var snap models.Snapshot
	inactive := make(map[int64]bool)
	for _, rec := range doc.Projects {
		p := rec.raw()
		if !p.Active {
			inactive[p.ID] = true
			continue
		}
		snap.Projects = append(snap.Projects, p)
	}

	for _, rec := range doc.Tasks {
		if inactive[rec.ProjectID.ID] {
			continue
		}
		snap.Tasks = append(snap.Tasks, rec.raw(hoursPerDay))
	}
	return snap, nil
}
