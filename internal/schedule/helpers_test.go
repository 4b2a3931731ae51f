package schedule

import (
	"time"

	"github.com/tgienger/pdash/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func refs(ids ...int64) []models.Ref {
	out := make([]models.Ref, len(ids))
	for i, id := range ids {
		out[i] = models.Ref{ID: id}
	}
	return out
}

func ids(tasks []*models.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func days(n float64) *float64 {
	return &n
}
