package schedule

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/pdash/internal/models"
)

func TestBuildGraph_Normalizes(t *testing.T) {
	raw := []models.RawTask{
		{
			ID:        1,
			Name:      "Foundation",
			Project:   models.Ref{ID: 10, Name: "Plant"},
			Parent:    models.Ref{},
			DependsOn: []models.Ref{{ID: 2, Name: "Survey"}, {ID: 2}, {ID: 99}, {}},
			State:     "01_in_progress",
			Stage:     "Em andamento",
		},
		{ID: 2, Name: "Survey", Project: models.Ref{ID: 10, Name: "Plant"}, Parent: models.Ref{ID: 1, Name: "Foundation"}},
	}

	g := BuildGraph(raw)
	require.Equal(t, 2, g.Len())

	task, ok := g.Task(1)
	require.True(t, ok)
	assert.Equal(t, int64(10), task.ProjectID)
	assert.Equal(t, "Plant", task.ProjectName)
	assert.False(t, task.HasParent())
	// Duplicates and dangling ids are kept; empty refs are dropped.
	assert.Equal(t, []int64{2, 2, 99}, task.DependsOn)

	child, ok := g.Task(2)
	require.True(t, ok)
	assert.Equal(t, int64(1), child.ParentID)
	assert.Equal(t, "Foundation", child.ParentName)
}

func TestBuildGraph_Empty(t *testing.T) {
	g := BuildGraph(nil)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.IDs())
	assert.Empty(t, g.Roots(1))
	assert.Nil(t, g.Neighborhood(1))
}

func TestBuildGraph_DuplicateIDsFirstWins(t *testing.T) {
	g := BuildGraph([]models.RawTask{
		{ID: 1, Name: "first"},
		{ID: 1, Name: "second"},
		{ID: 2, Name: "other"},
	})

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.Duplicates())
	task, _ := g.Task(1)
	assert.Equal(t, "first", task.Name)
}

func TestBuildGraph_DoesNotAliasInput(t *testing.T) {
	d := 3.0
	raw := []models.RawTask{{ID: 1, ExpectedDurationDays: &d}}
	g := BuildGraph(raw)

	d = 10
	task, _ := g.Task(1)
	require.NotNil(t, task.ExpectedDuration)
	assert.Equal(t, 3.0, *task.ExpectedDuration)
}

func TestGraph_Navigation(t *testing.T) {
	g := BuildGraph([]models.RawTask{
		{ID: 1, Project: models.Ref{ID: 7}},
		{ID: 2, Project: models.Ref{ID: 7}, Parent: models.Ref{ID: 1}, DependsOn: refs(3)},
		{ID: 3, Project: models.Ref{ID: 7}, Parent: models.Ref{ID: 1}},
		{ID: 4, Project: models.Ref{ID: 7}, DependsOn: refs(2, 2, 42)},
		{ID: 5, Project: models.Ref{ID: 8}},
	})

	tests := []struct {
		name string
		got  []int64
		want []int64
	}{
		{"roots of project 7", g.Roots(7), []int64{1, 4}},
		{"roots of project 8", g.Roots(8), []int64{5}},
		{"children of 1", g.Children(1), []int64{2, 3}},
		{"project tasks", g.ProjectTasks(7), []int64{1, 2, 3, 4}},
		{"dependents of 2", g.Dependents(2), []int64{4}},
		{"dependents of 3", g.Dependents(3), []int64{2}},
		{"neighborhood of 2", g.Neighborhood(2), []int64{2, 3, 4}},
		{"neighborhood skips dangling", g.Neighborhood(4), []int64{4, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
