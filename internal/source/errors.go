package source

import (
	"fmt"

	"github.com/tgienger/pdash/internal/db"
)

// ErrNoSnapshot is returned when neither the source nor the cache has data
var ErrNoSnapshot = db.ErrNoSnapshot

// FetchError is returned when a source cannot deliver a snapshot
type FetchError struct {
	Source string // "odoo", "file"
	Op     string // "connect", "projects", "tasks", "read", "decode"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
