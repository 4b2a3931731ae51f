package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/natefinch/atomic"

	"github.com/tgienger/pdash/internal/models"
	"github.com/tgienger/pdash/internal/schedule"
)

// Export records extend the search_read shape, so an export can be fed back
// through the file source.

type exportProject struct {
	projectRecord
	Status      models.Status `json:"status"`
	StatusLabel string        `json:"status_label"`
	TaskCounts  models.Counts `json:"task_counts"`
}

type exportTask struct {
	taskRecord
	CalculatedStart odooTime      `json:"calculated_start"`
	Status          models.Status `json:"status"`
	IsDelayed       bool          `json:"is_delayed"`
	Depth           int           `json:"depth"`
	DisplayOrder    int           `json:"display_order"`
}

type exportDocument struct {
	GeneratedAt odooTime        `json:"generated_at"`
	Today       odooTime        `json:"today"`
	Projects    []exportProject `json:"projects"`
	Tasks       []exportTask    `json:"tasks"`
}

// Export writes the enriched result as indented JSON
func Export(w io.Writer, res *schedule.Result, generatedAt time.Time) error {
	doc := exportDocument{
		GeneratedAt: odooTime{generatedAt.UTC().Truncate(time.Second)},
		Today:       odooTime{res.Now},
		Projects:    make([]exportProject, 0, len(res.Projects)),
		Tasks:       make([]exportTask, 0, len(res.Tasks)),
	}

	for _, p := range res.Projects {
		var state odooString
		if p.Completed {
			state = "done"
		}
		doc.Projects = append(doc.Projects, exportProject{
			projectRecord: projectRecord{
				ID:               p.ID,
				Name:             odooString(p.Name),
				DateStart:        odooTime{p.DateStart},
				Date:             odooTime{p.DateEnd},
				UserID:           models.Ref{ID: p.UserID, Name: p.UserName},
				Department:       odooString(p.Department),
				LastUpdateStatus: state,
			},
			Status:      p.Status,
			StatusLabel: p.Status.Label(),
			TaskCounts:  p.Counts,
		})
	}

	for _, t := range res.Tasks {
		rec := taskRecord{
			ID:           t.ID,
			Name:         odooString(t.Name),
			CreateDate:   odooTime{t.CreateDate},
			DateDeadline: odooTime{t.Deadline},
			ParentID:     models.Ref{ID: t.ParentID, Name: t.ParentName},
			ProjectID:    models.Ref{ID: t.ProjectID, Name: t.ProjectName},
			DependOnIDs:  make([]models.Ref, 0, len(t.DependsOn)),
			State:        odooString(t.RawState),
			Stage:        odooString(t.RawStage),
		}
		for _, id := range t.DependsOn {
			rec.DependOnIDs = append(rec.DependOnIDs, models.Ref{ID: id})
		}
		if t.ExpectedDuration != nil {
			d := *t.ExpectedDuration
			rec.ExpectedDurationDays = &d
		}
		doc.Tasks = append(doc.Tasks, exportTask{
			taskRecord:      rec,
			CalculatedStart: odooTime{t.CalculatedStart},
			Status:          t.Status,
			IsDelayed:       t.IsDelayed,
			Depth:           t.Depth,
			DisplayOrder:    t.DisplayOrder,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// WriteExport writes the export to path atomically
func WriteExport(path string, res *schedule.Result, generatedAt time.Time) error {
	var buf bytes.Buffer
	if err := Export(&buf, res, generatedAt); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}
	return nil
}
