// Package source loads project and task snapshots from Odoo or from a JSON
// dump, and caches the last good snapshot.
package source

import (
	"context"

	"github.com/tgienger/pdash/internal/models"
)

// Source delivers one full snapshot of projects and tasks
type Source interface {
	Name() string
	Fetch(ctx context.Context) (models.Snapshot, error)
}
