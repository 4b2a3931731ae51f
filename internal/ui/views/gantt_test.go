package views

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/pdash/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func spaces(n int) string { return strings.Repeat(" ", n) }

func TestGanttScale_Bar(t *testing.T) {
	today := date(2024, 1, 15)
	dated := &models.Task{CalculatedStart: date(2024, 1, 1), Deadline: date(2024, 1, 10)}

	// 2023-12-30 .. 2024-01-17 on 19 columns: one column per day, today at 16
	scale := newGanttScale([]*models.Task{dated}, today, 19, 0)
	assert.Equal(t, date(2023, 12, 30), scale.start)
	assert.Equal(t, 19, scale.days)

	tests := []struct {
		name string
		task *models.Task
		want string
	}{
		{
			name: "start to deadline",
			task: dated,
			want: spaces(2) + strings.Repeat("█", 10) + spaces(4) + "│" + spaces(2),
		},
		{
			name: "create date stands in for unknown start",
			task: &models.Task{CreateDate: date(2024, 1, 1), Deadline: date(2024, 1, 10)},
			want: spaces(2) + strings.Repeat("█", 10) + spaces(4) + "│" + spaces(2),
		},
		{
			name: "no deadline",
			task: &models.Task{CalculatedStart: date(2024, 1, 5)},
			want: spaces(6) + "▸" + spaces(9) + "│" + spaces(2),
		},
		{
			name: "deadline before start",
			task: &models.Task{CalculatedStart: date(2024, 1, 12), Deadline: date(2024, 1, 8)},
			want: spaces(9) + "◆" + spaces(6) + "│" + spaces(2),
		},
		{
			name: "undated",
			task: &models.Task{},
			want: spaces(16) + "│" + spaces(2),
		},
		{
			name: "bar covers today",
			task: &models.Task{CalculatedStart: date(2024, 1, 14), Deadline: date(2024, 1, 16)},
			want: spaces(15) + "███" + spaces(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scale.bar(tt.task, today)
			assert.Equal(t, tt.want, got)
			assert.Len(t, []rune(got), 19)
		})
	}
}

func TestGanttScale_Shift(t *testing.T) {
	today := date(2024, 1, 15)
	task := &models.Task{CalculatedStart: date(2024, 1, 1), Deadline: date(2024, 1, 10)}

	scale := newGanttScale([]*models.Task{task}, today, 19, 7)

	assert.Equal(t, strings.Repeat("█", 5)+spaces(4)+"│"+spaces(9), scale.bar(task, today))
}

func TestGanttScale_MinimumSpan(t *testing.T) {
	today := date(2024, 1, 15)
	scale := newGanttScale(nil, today, 28, 0)

	assert.Equal(t, 14, scale.days)
	assert.Equal(t, 4, scale.col(today))
}

func TestGanttScale_Axis(t *testing.T) {
	today := date(2024, 1, 15)
	task := &models.Task{CalculatedStart: date(2024, 1, 1), Deadline: date(2024, 1, 10)}
	scale := newGanttScale([]*models.Task{task}, today, 19, 0)

	assert.Equal(t, spaces(2)+"Jan 24"+spaces(11), scale.axis())

	wide := newGanttScale([]*models.Task{{CalculatedStart: date(2024, 2, 20), Deadline: date(2024, 4, 10)}}, date(2024, 3, 1), 60, 0)
	axis := wide.axis()
	assert.Equal(t, 13, strings.Index(axis, "Mar"))
	assert.Contains(t, axis, "Apr")
	assert.Len(t, []rune(axis), 60)
}
