// Package schedule derives start dates, statuses, display order and project
// rollups from a snapshot of ERP tasks and projects.
//
// Everything here is a pure transformation: the graph is built once per
// snapshot and never mutated, and Run returns fresh task and project values.
package schedule

import (
	"github.com/tgienger/pdash/internal/models"
)

// Graph is the dependency graph of one snapshot, keyed by task id.
type Graph struct {
	nodes      map[int64]*models.Task
	order      []int64           // input order, duplicates removed
	byProject  map[int64][]int64 // project id -> task ids in input order
	dependents map[int64][]int64 // task id -> ids of tasks depending on it
	duplicates int
}

// BuildGraph normalizes raw task records into a graph.
//
// Relational fields are reduced to ids with their labels kept alongside.
// Dependency lists are kept as delivered, including duplicates and ids that
// are not part of the snapshot. When two records share an id the first one wins.
func BuildGraph(raw []models.RawTask) *Graph {
	g := &Graph{
		nodes:      make(map[int64]*models.Task, len(raw)),
		order:      make([]int64, 0, len(raw)),
		byProject:  make(map[int64][]int64),
		dependents: make(map[int64][]int64),
	}

	for _, r := range raw {
		if _, exists := g.nodes[r.ID]; exists {
			g.duplicates++
			continue
		}

		t := &models.Task{
			ID:          r.ID,
			Name:        r.Name,
			CreateDate:  r.CreateDate,
			Deadline:    r.Deadline,
			ParentID:    r.Parent.ID,
			ParentName:  r.Parent.Name,
			ProjectID:   r.Project.ID,
			ProjectName: r.Project.Name,
			RawState:    r.State,
			RawStage:    r.Stage,
		}
		if r.ExpectedDurationDays != nil {
			days := *r.ExpectedDurationDays
			t.ExpectedDuration = &days
		}
		for _, dep := range r.DependsOn {
			if dep.IsZero() {
				continue
			}
			t.DependsOn = append(t.DependsOn, dep.ID)
		}

		g.nodes[t.ID] = t
		g.order = append(g.order, t.ID)
		g.byProject[t.ProjectID] = append(g.byProject[t.ProjectID], t.ID)
	}

	for _, id := range g.order {
		seen := make(map[int64]struct{})
		for _, dep := range g.nodes[id].DependsOn {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			g.dependents[dep] = append(g.dependents[dep], id)
		}
	}

	return g
}

// Len returns the number of tasks in the graph
func (g *Graph) Len() int {
	return len(g.order)
}

// Duplicates returns how many records were dropped for repeating an id
func (g *Graph) Duplicates() int {
	return g.duplicates
}

// Task returns the normalized task for an id
func (g *Graph) Task(id int64) (*models.Task, bool) {
	t, ok := g.nodes[id]
	return t, ok
}

// IDs returns all task ids in input order
func (g *Graph) IDs() []int64 {
	return g.order
}

// ProjectTasks returns the ids of a project's tasks in input order
func (g *Graph) ProjectTasks(projectID int64) []int64 {
	return g.byProject[projectID]
}

// Roots returns the ids of a project's tasks that have no parent
func (g *Graph) Roots(projectID int64) []int64 {
	var roots []int64
	for _, id := range g.ProjectTasks(projectID) {
		if !g.nodes[id].HasParent() {
			roots = append(roots, id)
		}
	}
	return roots
}

// Children returns the ids of tasks whose parent is parentID
func (g *Graph) Children(parentID int64) []int64 {
	var children []int64
	for _, id := range g.order {
		if t := g.nodes[id]; t.ParentID == parentID && t.ID != parentID {
			children = append(children, id)
		}
	}
	return children
}

// Dependents returns the ids of tasks that list id in their dependencies
func (g *Graph) Dependents(id int64) []int64 {
	return g.dependents[id]
}

// Neighborhood returns the task itself, its dependencies present in the
// graph, and its dependents, each id once.
func (g *Graph) Neighborhood(id int64) []int64 {
	t, ok := g.nodes[id]
	if !ok {
		return nil
	}

	seen := map[int64]struct{}{id: {}}
	ids := []int64{id}
	add := func(other int64) {
		if _, dup := seen[other]; dup {
			return
		}
		if _, exists := g.nodes[other]; !exists {
			return
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}

	for _, dep := range t.DependsOn {
		add(dep)
	}
	for _, dep := range g.dependents[id] {
		add(dep)
	}
	return ids
}
