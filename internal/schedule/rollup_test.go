package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/pdash/internal/models"
)

func withStatus(s models.Status, deadline time.Time) *models.Task {
	return &models.Task{Status: s, Deadline: deadline}
}

func TestRollup(t *testing.T) {
	now := date(2024, 6, 15)
	past := date(2024, 6, 1)
	future := date(2024, 9, 1)

	tests := []struct {
		name    string
		project models.Project
		tasks   []*models.Task
		want    models.Status
	}{
		{
			name:    "ended with open work is delayed",
			project: models.Project{DateEnd: past},
			tasks:   []*models.Task{withStatus(models.StatusDone, past), withStatus(models.StatusInProgress, future)},
			want:    models.StatusDelayed,
		},
		{
			name:    "delayed beats at risk",
			project: models.Project{DateEnd: past},
			tasks:   []*models.Task{withStatus(models.StatusDelayed, past)},
			want:    models.StatusDelayed,
		},
		{
			name:    "computed end date from task deadlines",
			project: models.Project{},
			tasks:   []*models.Task{withStatus(models.StatusPlanned, past)},
			want:    models.StatusDelayed,
		},
		{
			name:    "ended without tasks and not completed is delayed",
			project: models.Project{DateEnd: past},
			want:    models.StatusDelayed,
		},
		{
			name:    "ended without tasks but completed is done",
			project: models.Project{DateEnd: past, Completed: true},
			want:    models.StatusDone,
		},
		{
			name:    "ended with all work done is done",
			project: models.Project{DateEnd: past},
			tasks:   []*models.Task{withStatus(models.StatusDone, past)},
			want:    models.StatusDone,
		},
		{
			name:    "delayed task puts project at risk",
			project: models.Project{DateEnd: future},
			tasks:   []*models.Task{withStatus(models.StatusDelayed, past), withStatus(models.StatusInProgress, future)},
			want:    models.StatusAtRisk,
		},
		{
			name:    "no tasks is done",
			project: models.Project{},
			want:    models.StatusDone,
		},
		{
			name:    "all planned is planned",
			project: models.Project{DateStart: past, DateEnd: future},
			tasks:   []*models.Task{withStatus(models.StatusPlanned, future), withStatus(models.StatusPlanned, time.Time{})},
			want:    models.StatusPlanned,
		},
		{
			name:    "not started yet is planned",
			project: models.Project{DateStart: future},
			tasks:   []*models.Task{withStatus(models.StatusDone, time.Time{}), withStatus(models.StatusPlanned, time.Time{})},
			want:    models.StatusPlanned,
		},
		{
			name:    "started with done and planned work is in progress",
			project: models.Project{DateStart: past},
			tasks:   []*models.Task{withStatus(models.StatusDone, time.Time{}), withStatus(models.StatusPlanned, time.Time{})},
			want:    models.StatusInProgress,
		},
		{
			name:    "active task is in progress",
			project: models.Project{},
			tasks:   []*models.Task{withStatus(models.StatusInProgress, future), withStatus(models.StatusPlanned, future)},
			want:    models.StatusInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Rollup(&tt.project, tt.tasks, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountTasks(t *testing.T) {
	tasks := []*models.Task{
		{Status: models.StatusPlanned},
		{Status: models.StatusInProgress, RawState: "01_in_progress"},
		{Status: models.StatusDelayed, RawState: "03_approved"},
		{Status: models.StatusDone, RawState: "1_done"},
		{Status: models.StatusDone},
	}

	assert.Equal(t, models.Counts{Total: 5, Open: 2, Planned: 1, InProgress: 1, Delayed: 1, Done: 2}, CountTasks(tasks))
	assert.Equal(t, models.Counts{}, CountTasks(nil))
}

func TestEndDate(t *testing.T) {
	tasks := []*models.Task{{Deadline: date(2024, 3, 1)}, {Deadline: date(2024, 5, 1)}, {}}

	assert.Equal(t, date(2024, 5, 1), EndDate(&models.Project{}, tasks))
	assert.Equal(t, date(2024, 1, 1), EndDate(&models.Project{DateEnd: date(2024, 1, 1)}, tasks))
	assert.True(t, EndDate(&models.Project{}, nil).IsZero())
}
