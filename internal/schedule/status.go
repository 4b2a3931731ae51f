package schedule

import (
	"strings"
	"time"
	"unicode"

	"github.com/tgienger/pdash/internal/models"
)

// Raw task states that end a task's lifecycle
var terminalStates = map[string]bool{
	"1_done":     true,
	"1_canceled": true,
	"done":       true,
	"cancelled":  true,
	"canceled":   true,
	"closed":     true,
}

// Raw task states counted as open work
var openStates = map[string]bool{
	"01_in_progress":       true,
	"02_changes_requested": true,
	"03_approved":          true,
}

const waitingState = "04_waiting_normal"

// Stage keywords match at the start of a word, so "cancel" covers
// "cancelled" and "cancelado" but not "uncancel". Stage words must match a
// whole word: "new" is not "newsletter".
var (
	doneKeywords = []string{
		"done", "complet", "closed", "cancel",
		"conclu", "finaliz", "encerrad", "fechad",
	}
	plannedKeywords = []string{
		"backlog", "to do", "todo", "pend", "await", "wait",
		"a fazer", "aguard",
	}
	plannedWords = []string{"new", "novo", "nova"}
	activeKeywords = []string{
		"progress", "doing", "review", "test",
		"andamento", "execu", "revis", "valida",
	}
)

// Classify maps a task's raw lifecycle fields to a status.
//
// Rules, first match wins:
//  1. Done: terminal state, or a completion/cancellation stage.
//  2. Delayed: deadline before now.
//  3. Planned: not-started stage, or the ERP's waiting state.
//  4. InProgress: active stage, or an open state.
//  5. Planned.
func Classify(state, stage string, deadline, now time.Time) models.Status {
	state = strings.ToLower(strings.TrimSpace(state))
	words := normalizeStage(stage)

	switch {
	case terminalStates[state] || hasKeyword(words, doneKeywords):
		return models.StatusDone
	case !deadline.IsZero() && deadline.Before(now):
		return models.StatusDelayed
	case hasKeyword(words, plannedKeywords) || hasWord(words, plannedWords) || state == waitingState:
		return models.StatusPlanned
	case hasKeyword(words, activeKeywords) || openStates[state]:
		return models.StatusInProgress
	default:
		return models.StatusPlanned
	}
}

// IsOpen reports whether the raw state marks a task as open work
func IsOpen(state string) bool {
	return openStates[strings.ToLower(strings.TrimSpace(state))]
}

// IsTerminal reports whether a task's raw fields mark it finished
func IsTerminal(state, stage string) bool {
	return terminalStates[strings.ToLower(strings.TrimSpace(state))] ||
		hasKeyword(normalizeStage(stage), doneKeywords)
}

// normalizeStage lowercases a stage label and reduces it to single-space
// separated words with a leading space.
func normalizeStage(stage string) string {
	fields := strings.FieldsFunc(strings.ToLower(stage), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return ""
	}
	return " " + strings.Join(fields, " ")
}

func hasKeyword(words string, keywords []string) bool {
	if words == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(words, " "+kw) {
			return true
		}
	}
	return false
}

func hasWord(words string, list []string) bool {
	if words == "" {
		return false
	}
	words += " "
	for _, w := range list {
		if strings.Contains(words, " "+w+" ") {
			return true
		}
	}
	return false
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
