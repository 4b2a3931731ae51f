package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/pdash/internal/models"
)

func sampleSnapshot() models.Snapshot {
	plant := models.Ref{ID: 10, Name: "Plant"}
	office := models.Ref{ID: 20, Name: "Office"}
	return models.Snapshot{
		Projects: []models.RawProject{
			{ID: 10, Name: "Plant", Department: "Civil", DateEnd: date(2024, 12, 31), Active: true},
			{ID: 20, Name: "Office", Department: "Electrical", Active: true},
			{ID: 30, Name: "Empty", Department: "Civil", State: "done", Active: true},
		},
		Tasks: []models.RawTask{
			{ID: 1, Name: "Survey", Project: plant, CreateDate: date(2024, 1, 1), Deadline: date(2024, 1, 10), State: "1_done"},
			{ID: 2, Name: "Design", Project: plant, CreateDate: date(2024, 1, 5), DependsOn: refs(1), State: "01_in_progress", Stage: "In Progress"},
			{ID: 3, Name: "Build", Project: plant, CreateDate: date(2024, 1, 6), DependsOn: refs(2), Stage: "Backlog"},
			{ID: 4, Name: "Footings", Project: plant, Parent: models.Ref{ID: 3, Name: "Build"}, CreateDate: date(2024, 1, 7), Deadline: date(2024, 5, 1), State: "01_in_progress"},
			{ID: 5, Name: "Wiring", Project: office, CreateDate: date(2024, 2, 1), DependsOn: refs(6), Stage: "To Do"},
			{ID: 6, Name: "Permits", Project: office, CreateDate: date(2024, 2, 2), DependsOn: refs(5)},
			{ID: 7, Name: "Orphan", CreateDate: date(2024, 3, 1), DependsOn: refs(999)},
		},
	}
}

func TestRun(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	res := Run(sampleSnapshot(), Options{Now: now})

	require.Len(t, res.Tasks, 7)
	require.Len(t, res.Projects, 3)
	assert.Equal(t, date(2024, 6, 15), res.Now)

	starts := map[int64]time.Time{}
	statuses := map[int64]models.Status{}
	for _, task := range res.Tasks {
		starts[task.ID] = task.CalculatedStart
		statuses[task.ID] = task.Status
	}

	assert.Equal(t, date(2024, 1, 1), starts[1])
	assert.Equal(t, date(2024, 1, 11), starts[2])
	assert.Equal(t, date(2024, 1, 19), starts[3])
	assert.Equal(t, date(2024, 2, 1), starts[5])
	assert.Equal(t, date(2024, 2, 2), starts[6])
	assert.Equal(t, date(2024, 3, 1), starts[7])

	assert.Equal(t, models.StatusDone, statuses[1])
	assert.Equal(t, models.StatusInProgress, statuses[2])
	assert.Equal(t, models.StatusPlanned, statuses[3])
	assert.Equal(t, models.StatusDelayed, statuses[4])

	task4, ok := res.Task(4)
	require.True(t, ok)
	assert.True(t, task4.IsDelayed)
	assert.Equal(t, 1, task4.Depth)

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(res.ByProject[10]))
	assert.Equal(t, []int64{7}, ids(res.ByProject[0]))

	plant := res.Projects[0]
	assert.Equal(t, models.StatusAtRisk, plant.Status)
	assert.Equal(t, models.Counts{Total: 4, Open: 2, Planned: 1, InProgress: 1, Delayed: 1, Done: 1}, plant.Counts)

	office := res.Projects[1]
	assert.Equal(t, models.StatusPlanned, office.Status)

	empty := res.Projects[2]
	assert.True(t, empty.Completed)
	assert.Equal(t, models.StatusDone, empty.Status)
}

func TestRun_EmptySnapshot(t *testing.T) {
	res := Run(models.Snapshot{}, Options{Now: date(2024, 1, 1)})

	assert.Empty(t, res.Tasks)
	assert.Empty(t, res.Projects)
	assert.Empty(t, res.ByProject)
	assert.Empty(t, res.Focus(1))
}

func TestRun_DoesNotMutateSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	res := Run(snap, Options{Now: date(2024, 6, 15)})

	res.Tasks[1].DependsOn[0] = 42
	assert.Equal(t, int64(1), snap.Tasks[1].DependsOn[0].ID)

	again := Run(snap, Options{Now: date(2024, 6, 15)})
	assert.Equal(t, int64(1), again.Tasks[1].DependsOn[0])
}

func TestResult_Focus(t *testing.T) {
	res := Run(sampleSnapshot(), Options{Now: date(2024, 6, 15)})

	focus := res.Focus(2)
	assert.Equal(t, []int64{1, 2, 3}, ids(focus))

	// Focus works on copies and leaves the project layout intact.
	task3, _ := res.Task(3)
	assert.Equal(t, 2, task3.DisplayOrder)
}

func TestResult_Departments(t *testing.T) {
	res := Run(sampleSnapshot(), Options{Now: date(2024, 6, 15)})

	assert.Equal(t, []string{"Civil", "Electrical"}, res.Departments())
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(res.Department("Civil")))
	assert.Equal(t, []int64{5, 6}, ids(res.Department("Electrical")))
	assert.Empty(t, res.Department("Unknown"))
}
