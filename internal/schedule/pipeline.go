package schedule

import (
	"slices"
	"strings"
	"time"

	"github.com/tgienger/pdash/internal/models"
)

// Options tune a pipeline run
type Options struct {
	Now      time.Time     // evaluation moment; deadlines are compared against its day start
	Fallback time.Duration // assumed length of undated dependencies, DefaultFallback if zero
}

// Result is the enriched output of one pipeline run
type Result struct {
	Tasks      []*models.Task           // input order
	Projects   []*models.Project        // input order
	ByProject  map[int64][]*models.Task // display order per project id
	Graph      *Graph
	Now        time.Time // day start used for status evaluation
	Duplicates int

	index map[int64]*models.Task
}

// Run builds the graph, resolves start dates, classifies and orders tasks,
// and rolls statuses up to projects. Bad records never abort the run: every
// task in the snapshot is present in the result.
func Run(snap models.Snapshot, opts Options) *Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := StartOfDay(now)

	g := BuildGraph(snap.Tasks)
	resolver := NewResolver(g, opts.Fallback)

	res := &Result{
		Tasks:      make([]*models.Task, 0, g.Len()),
		Projects:   make([]*models.Project, 0, len(snap.Projects)),
		ByProject:  make(map[int64][]*models.Task),
		Graph:      g,
		Now:        today,
		Duplicates: g.Duplicates(),
		index:      make(map[int64]*models.Task, g.Len()),
	}

	scopes := make(map[int64][]*models.Task)
	for _, id := range g.IDs() {
		node, _ := g.Task(id)
		t := *node
		t.DependsOn = slices.Clone(node.DependsOn)
		t.CalculatedStart = resolver.Start(id)
		t.Status = Classify(t.RawState, t.RawStage, t.Deadline, today)
		t.IsDelayed = t.Status == models.StatusDelayed

		res.Tasks = append(res.Tasks, &t)
		res.index[t.ID] = &t
		scopes[t.ProjectID] = append(scopes[t.ProjectID], &t)
	}

	for projectID, tasks := range scopes {
		res.ByProject[projectID] = Order(tasks)
	}

	for _, raw := range snap.Projects {
		p := &models.Project{
			ID:         raw.ID,
			Name:       raw.Name,
			DateStart:  raw.DateStart,
			DateEnd:    raw.DateEnd,
			Department: raw.Department,
			UserID:     raw.User.ID,
			UserName:   raw.User.Name,
			Completed:  strings.EqualFold(raw.State, "done"),
		}
		p.Status, p.Counts = Rollup(p, res.ByProject[p.ID], today)
		res.Projects = append(res.Projects, p)
	}

	return res
}

// Task returns an enriched task by id
func (r *Result) Task(id int64) (*models.Task, bool) {
	t, ok := r.index[id]
	return t, ok
}

// Focus returns the enriched tasks around one task: the task, its
// dependencies and its dependents, ordered for display.
func (r *Result) Focus(id int64) []*models.Task {
	ids := r.Graph.Neighborhood(id)
	if len(ids) == 0 {
		return nil
	}

	tasks := make([]*models.Task, 0, len(ids))
	for _, nid := range ids {
		if t, ok := r.index[nid]; ok {
			c := *t
			tasks = append(tasks, &c)
		}
	}
	return Order(tasks)
}

// Department returns the tasks of every project in a department, ordered as
// one scope. Names match case-insensitively. The returned tasks are copies.
func (r *Result) Department(name string) []*models.Task {
	var tasks []*models.Task
	for _, p := range r.Projects {
		if !strings.EqualFold(p.Department, name) {
			continue
		}
		for _, t := range r.ByProject[p.ID] {
			c := *t
			tasks = append(tasks, &c)
		}
	}
	return Order(tasks)
}

// Departments returns the distinct department names in project order
func (r *Result) Departments() []string {
	var names []string
	for _, p := range r.Projects {
		if p.Department != "" && !slices.Contains(names, p.Department) {
			names = append(names, p.Department)
		}
	}
	return names
}
