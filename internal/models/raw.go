package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Ref is a many-to-one value from the ERP. ID 0 means empty.
type Ref struct {
	ID   int64
	Name string
}

// IsZero reports whether the reference is empty
func (r Ref) IsZero() bool {
	return r.ID == 0
}

// UnmarshalJSON accepts a bare id, an [id, "label"] pair, false or null
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref{}

	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		return nil
	case len(data) > 0 && data[0] == '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		if len(parts) == 0 {
			return nil
		}
		if err := json.Unmarshal(parts[0], &r.ID); err != nil {
			return fmt.Errorf("ref id: %w", err)
		}
		if len(parts) > 1 {
			// Labels are informational; tolerate non-string values.
			_ = json.Unmarshal(parts[1], &r.Name)
		}
		return nil
	default:
		if err := json.Unmarshal(data, &r.ID); err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		return nil
	}
}

// MarshalJSON writes the [id, "label"] form, or false when empty
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("false"), nil
	}
	return json.Marshal([]any{r.ID, r.Name})
}

// RawTask is a task record as delivered by a source, before normalization
type RawTask struct {
	ID                   int64
	Name                 string
	CreateDate           time.Time
	Deadline             time.Time
	Parent               Ref
	Project              Ref
	DependsOn            []Ref
	State                string
	Stage                string
	ExpectedDurationDays *float64
}

// RawProject is a project record as delivered by a source
type RawProject struct {
	ID         int64
	Name       string
	DateStart  time.Time
	DateEnd    time.Time
	Department string
	User       Ref
	State      string // e.g. Odoo last_update_status
	Active     bool
}

// Snapshot is one full load of the external system
type Snapshot struct {
	Projects  []RawProject
	Tasks     []RawTask
	FetchedAt time.Time
	Source    string
	Stale     bool // served from cache after a failed fetch
}

// IsEmpty reports whether the snapshot carries no records
func (s Snapshot) IsEmpty() bool {
	return len(s.Projects) == 0 && len(s.Tasks) == 0
}
