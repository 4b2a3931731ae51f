package models

import "time"

// Status is the lifecycle classification of a task or project
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusDelayed    Status = "delayed"
	StatusDone       Status = "done"
	StatusAtRisk     Status = "at_risk" // projects only
)

// Label returns the display label
func (s Status) Label() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusInProgress:
		return "In Progress"
	case StatusDelayed:
		return "Delayed"
	case StatusDone:
		return "Done"
	case StatusAtRisk:
		return "At Risk"
	default:
		return "Unknown"
	}
}

// String returns the display string
func (s Status) String() string {
	return string(s)
}

// Counts holds per-status task counts for a project
type Counts struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	Planned    int `json:"planned"`
	InProgress int `json:"in_progress"`
	Delayed    int `json:"delayed"`
	Done       int `json:"done"`
}

// Project represents an ERP project with its derived rollup
type Project struct {
	ID         int64
	Name       string
	DateStart  time.Time // zero if unset
	DateEnd    time.Time // zero if unset
	Department string
	UserID     int64
	UserName   string
	Completed  bool // ERP marked the project as finished

	Status Status
	Counts Counts
}

// Task represents a single ERP task with its derived schedule fields.
// Zero time values mean the date is unknown.
type Task struct {
	ID               int64
	Name             string
	CreateDate       time.Time
	Deadline         time.Time
	ParentID         int64 // 0 if no parent
	ParentName       string
	ProjectID        int64
	ProjectName      string
	DependsOn        []int64
	RawState         string
	RawStage         string
	ExpectedDuration *float64 // days, nil if unset

	CalculatedStart time.Time
	Status          Status
	IsDelayed       bool
	Depth           int
	DisplayOrder    int
}

// HasParent reports whether the task references a parent task
func (t *Task) HasParent() bool {
	return t.ParentID != 0
}
