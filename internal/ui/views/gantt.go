package views

import (
	"math"
	"strings"
	"time"

	"github.com/tgienger/pdash/internal/models"
)

const day = 24 * time.Hour

// Bar glyphs
const (
	glyphEmpty   = ' '
	glyphBar     = '█'
	glyphOpenEnd = '▸' // start known, no deadline
	glyphOverrun = '◆' // deadline falls before the calculated start
	glyphToday   = '│'
)

// ganttScale maps dates onto a fixed number of columns
type ganttScale struct {
	start time.Time
	days  int
	width int
}

// barStart is where a task's bar begins: its calculated start, else its
// create date
func barStart(t *models.Task) time.Time {
	if !t.CalculatedStart.IsZero() {
		return t.CalculatedStart
	}
	return t.CreateDate
}

// newGanttScale fits every dated task plus today, with a little padding, into
// width columns. shift moves the window by whole days.
func newGanttScale(tasks []*models.Task, today time.Time, width, shift int) ganttScale {
	width = max(width, 1)
	first, last := today, today
	for _, t := range tasks {
		for _, d := range []time.Time{barStart(t), t.Deadline} {
			if d.IsZero() {
				continue
			}
			if d.Before(first) {
				first = d
			}
			if d.After(last) {
				last = d
			}
		}
	}

	start := first.Truncate(day).Add(-2 * day)
	days := int(last.Sub(start)/day) + 3
	days = max(days, 14)

	return ganttScale{
		start: start.Add(time.Duration(shift) * day),
		days:  days,
		width: width,
	}
}

// col returns the column for t. Values outside [0, width) are off screen.
func (s ganttScale) col(t time.Time) int {
	offset := float64(t.Sub(s.start)) / float64(day)
	return int(math.Floor(offset * float64(s.width) / float64(s.days)))
}

// bar renders one task row as width runes
func (s ganttScale) bar(t *models.Task, today time.Time) string {
	row := make([]rune, s.width)
	for i := range row {
		row[i] = glyphEmpty
	}
	if tc := s.col(today); tc >= 0 && tc < s.width {
		row[tc] = glyphToday
	}

	start := barStart(t)
	switch {
	case start.IsZero():
		// nothing to draw
	case t.Deadline.IsZero():
		s.put(row, s.col(start), glyphOpenEnd)
	case t.Deadline.Before(start):
		s.put(row, s.col(t.Deadline), glyphOverrun)
	default:
		from, to := s.col(start), s.col(t.Deadline)
		for c := max(from, 0); c <= min(to, s.width-1); c++ {
			row[c] = glyphBar
		}
	}
	return string(row)
}

func (s ganttScale) put(row []rune, c int, r rune) {
	if c >= 0 && c < len(row) {
		row[c] = r
	}
}

// axis renders month labels at the column where each month begins
func (s ganttScale) axis() string {
	row := []rune(strings.Repeat(" ", s.width))
	end := s.start.Add(time.Duration(s.days) * day)

	m := time.Date(s.start.Year(), s.start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if m.Before(s.start) {
		m = m.AddDate(0, 1, 0)
	}
	next := 0
	for ; m.Before(end); m = m.AddDate(0, 1, 0) {
		c := s.col(m)
		if c < next || c >= s.width {
			continue
		}
		label := m.Format("Jan")
		if m.Month() == time.January {
			label = m.Format("Jan 06")
		}
		for i, r := range label {
			if c+i < s.width {
				row[c+i] = r
			}
		}
		next = c + len(label) + 1
	}
	return string(row)
}
