package schedule

import (
	"slices"

	"github.com/tgienger/pdash/internal/models"
)

// Order lays out one scope of tasks (a project or a department) for display.
//
// The result is a pre-order walk from the root tasks, those without a parent
// inside the scope. Roots and siblings are sorted by calculated start, unknown
// starts last, ties kept in input order. Tasks that can only be reached
// through a parent cycle are appended as further roots so every task appears
// once. Order sets Depth and DisplayOrder on the given tasks.
func Order(tasks []*models.Task) []*models.Task {
	if len(tasks) == 0 {
		return nil
	}

	inScope := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		inScope[t.ID] = true
	}

	var roots []*models.Task
	children := make(map[int64][]*models.Task)
	for _, t := range tasks {
		if t.HasParent() && t.ParentID != t.ID && inScope[t.ParentID] {
			children[t.ParentID] = append(children[t.ParentID], t)
			continue
		}
		roots = append(roots, t)
	}

	sortByStart(roots)
	for _, kids := range children {
		sortByStart(kids)
	}

	ordered := make([]*models.Task, 0, len(tasks))
	placed := make(map[int64]bool, len(tasks))

	var walk func(t *models.Task, depth int)
	walk = func(t *models.Task, depth int) {
		if placed[t.ID] {
			return
		}
		placed[t.ID] = true
		t.Depth = depth
		t.DisplayOrder = len(ordered)
		ordered = append(ordered, t)
		for _, child := range children[t.ID] {
			walk(child, depth+1)
		}
	}

	for _, root := range roots {
		walk(root, 0)
	}

	if len(ordered) < len(tasks) {
		var stranded []*models.Task
		for _, t := range tasks {
			if !placed[t.ID] {
				stranded = append(stranded, t)
			}
		}
		sortByStart(stranded)
		for _, t := range stranded {
			walk(t, 0)
		}
	}

	return ordered
}

// sortByStart sorts tasks by calculated start, zero times last, stable
func sortByStart(tasks []*models.Task) {
	slices.SortStableFunc(tasks, func(a, b *models.Task) int {
		as, bs := a.CalculatedStart, b.CalculatedStart
		switch {
		case as.IsZero() && bs.IsZero():
			return 0
		case as.IsZero():
			return 1
		case bs.IsZero():
			return -1
		default:
			return as.Compare(bs)
		}
	})
}
