package schedule

import (
	"time"

	"github.com/tgienger/pdash/internal/models"
)

const day = 24 * time.Hour

// DefaultFallback is the assumed length of a dependency with no deadline.
const DefaultFallback = 7 * day

// Resolver computes calculated start dates over a graph.
//
// A task with dependencies starts one day after the latest end among them.
// A dependency ends at its deadline, or when it has none, at its own
// calculated start plus a fallback duration. A dependency chain that runs
// into a cycle contributes nothing, and ids outside the graph are skipped;
// a task left with no usable dependency starts at its creation date.
type Resolver struct {
	graph    *Graph
	fallback time.Duration
	memo     map[int64]resolution
}

type resolution struct {
	start time.Time
	// cyclic is set when every dependency that could date the task ran
	// into a task already on the path. Such a start is never used as a
	// dependency end.
	cyclic bool
}

// NewResolver creates a resolver. A non-positive fallback uses DefaultFallback.
func NewResolver(g *Graph, fallback time.Duration) *Resolver {
	if fallback <= 0 {
		fallback = DefaultFallback
	}
	return &Resolver{
		graph:    g,
		fallback: fallback,
		memo:     make(map[int64]resolution),
	}
}

// Start returns the calculated start of a task, or the zero time when no
// date can be derived.
func (r *Resolver) Start(id int64) time.Time {
	res, _, _ := r.resolve(id, make(map[int64]struct{}))
	return res.start
}

// All resolves every task in the graph
func (r *Resolver) All() map[int64]time.Time {
	starts := make(map[int64]time.Time, r.graph.Len())
	for _, id := range r.graph.order {
		starts[id] = r.Start(id)
	}
	return starts
}

// resolve walks the dependencies of id. visited holds the tasks on the
// current path; reaching one of them again is a cycle. The second return
// value reports whether the walk reached the path, the third is false when
// id is not in the graph.
//
// Only resolutions whose walk never reached the path are memoized; the
// others depend on where the walk was entered.
func (r *Resolver) resolve(id int64, visited map[int64]struct{}) (resolution, bool, bool) {
	if _, onPath := visited[id]; onPath {
		return resolution{cyclic: true}, true, true
	}
	task, ok := r.graph.nodes[id]
	if !ok {
		return resolution{}, false, false
	}
	if res, ok := r.memo[id]; ok {
		return res, false, true
	}

	visited[id] = struct{}{}
	res, looped := r.compute(task, visited)
	if !looped {
		r.memo[id] = res
	}
	return res, looped, true
}

func (r *Resolver) compute(task *models.Task, visited map[int64]struct{}) (resolution, bool) {
	if len(task.DependsOn) == 0 {
		return resolution{start: task.CreateDate}, false
	}

	var (
		latest time.Time
		cyclic bool
		looped bool
	)
	for _, depID := range task.DependsOn {
		dep, ok := r.graph.nodes[depID]
		if !ok {
			continue
		}

		end := dep.Deadline
		if end.IsZero() {
			// Each branch gets its own copy so siblings are not mistaken for cycles.
			res, reached, _ := r.resolve(depID, copyVisited(visited))
			looped = looped || reached
			if res.cyclic {
				cyclic = true
				continue
			}
			if !res.start.IsZero() {
				end = res.start.Add(r.durationOf(dep))
			}
		}
		if !end.IsZero() && (latest.IsZero() || end.After(latest)) {
			latest = end
		}
	}

	if latest.IsZero() {
		return resolution{start: task.CreateDate, cyclic: cyclic}, looped
	}
	return resolution{start: latest.Add(day)}, looped
}

// durationOf returns the expected length of a task, at least one day
func (r *Resolver) durationOf(t *models.Task) time.Duration {
	d := r.fallback
	if t.ExpectedDuration != nil {
		d = time.Duration(*t.ExpectedDuration * float64(day))
	}
	if d < day {
		d = day
	}
	return d
}

// ResolveStarts is a convenience wrapper returning every calculated start
func ResolveStarts(g *Graph, fallback time.Duration) map[int64]time.Time {
	return NewResolver(g, fallback).All()
}

func copyVisited(visited map[int64]struct{}) map[int64]struct{} {
	c := make(map[int64]struct{}, len(visited)+1)
	for id := range visited {
		c[id] = struct{}{}
	}
	return c
}
