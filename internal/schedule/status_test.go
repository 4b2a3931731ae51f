package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/pdash/internal/models"
)

func TestClassify(t *testing.T) {
	now := date(2024, 6, 15)
	past := date(2024, 6, 1)
	future := date(2024, 7, 1)

	tests := []struct {
		name     string
		state    string
		stage    string
		deadline time.Time
		want     models.Status
	}{
		{"done state wins over past deadline", "1_done", "In Progress", past, models.StatusDone},
		{"canceled state", "1_canceled", "", past, models.StatusDone},
		{"done stage", "01_in_progress", "Done", past, models.StatusDone},
		{"portuguese completion stage", "", "Concluído", past, models.StatusDone},
		{"cancelled stage", "", "Cancelada", time.Time{}, models.StatusDone},
		{"past deadline is delayed", "01_in_progress", "In Progress", past, models.StatusDelayed},
		{"past deadline on backlog is delayed", "", "Backlog", past, models.StatusDelayed},
		{"deadline today is not delayed", "01_in_progress", "", now, models.StatusInProgress},
		{"backlog stage", "01_in_progress", "Backlog", future, models.StatusPlanned},
		{"to do stage", "", "To Do", time.Time{}, models.StatusPlanned},
		{"awaiting stage", "", "Aguardando material", future, models.StatusPlanned},
		{"waiting state", "04_waiting_normal", "", future, models.StatusPlanned},
		{"active stage", "", "Em andamento", future, models.StatusInProgress},
		{"review stage", "", "Code Review", time.Time{}, models.StatusInProgress},
		{"open state without stage match", "02_changes_requested", "Site", future, models.StatusInProgress},
		{"approved state", "03_approved", "", time.Time{}, models.StatusInProgress},
		{"unknown falls back to planned", "", "", future, models.StatusPlanned},
		{"unknown without deadline falls back to planned", "", "Misc", time.Time{}, models.StatusPlanned},
		{"keyword must start a word", "", "Undone", future, models.StatusPlanned},
		{"new stage", "01_in_progress", "New", future, models.StatusPlanned},
		{"portuguese new stage", "", "Nova tarefa", future, models.StatusPlanned},
		{"new only as a whole word", "", "Newsletter review", future, models.StatusInProgress},
		{"nov only as a whole word", "01_in_progress", "Novembro", future, models.StatusInProgress},
		{"state is case insensitive", " 1_DONE ", "", past, models.StatusDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.state, tt.stage, tt.deadline, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsOpen(t *testing.T) {
	assert.True(t, IsOpen("01_in_progress"))
	assert.True(t, IsOpen("02_changes_requested"))
	assert.True(t, IsOpen("03_approved"))
	assert.False(t, IsOpen("1_done"))
	assert.False(t, IsOpen("04_waiting_normal"))
	assert.False(t, IsOpen(""))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal("1_done", ""))
	assert.True(t, IsTerminal("", "Finalizado"))
	assert.False(t, IsTerminal("01_in_progress", "Doing"))
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	got := StartOfDay(time.Date(2024, 6, 15, 22, 30, 5, 10, loc))
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, loc), got)
}
