package schedule

import (
	"time"

	"github.com/tgienger/pdash/internal/models"
)

// CountTasks tallies classified tasks by status
func CountTasks(tasks []*models.Task) models.Counts {
	c := models.Counts{Total: len(tasks)}
	for _, t := range tasks {
		if IsOpen(t.RawState) {
			c.Open++
		}
		switch t.Status {
		case models.StatusPlanned:
			c.Planned++
		case models.StatusInProgress:
			c.InProgress++
		case models.StatusDelayed:
			c.Delayed++
		case models.StatusDone:
			c.Done++
		}
	}
	return c
}

// EndDate returns the project's explicit end date, or the latest deadline
// among its tasks when none is set.
func EndDate(p *models.Project, tasks []*models.Task) time.Time {
	if !p.DateEnd.IsZero() {
		return p.DateEnd
	}
	var end time.Time
	for _, t := range tasks {
		if t.Deadline.After(end) {
			end = t.Deadline
		}
	}
	return end
}

// Rollup derives a project's status from its classified tasks.
//
// The rules are checked in order:
//  1. Delayed: the end date has passed and work remains.
//  2. AtRisk: some task is delayed.
//  3. Done: every task is done, or there are none.
//  4. Planned: nothing is active and the project has not started yet, or
//     every task is planned.
//  5. InProgress.
func Rollup(p *models.Project, tasks []*models.Task, now time.Time) (models.Status, models.Counts) {
	c := CountTasks(tasks)

	end := EndDate(p, tasks)
	unfinished := c.Done < c.Total || (c.Total == 0 && !p.Completed)
	active := c.InProgress + c.Delayed

	switch {
	case !end.IsZero() && end.Before(now) && unfinished:
		return models.StatusDelayed, c
	case c.Delayed > 0:
		return models.StatusAtRisk, c
	case c.Done == c.Total:
		return models.StatusDone, c
	case active == 0 && (p.DateStart.IsZero() || p.DateStart.After(now) || c.Planned == c.Total):
		return models.StatusPlanned, c
	default:
		return models.StatusInProgress, c
	}
}
