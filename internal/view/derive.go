package view

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"ctboard/internal/model"
)

// NoteWidth is the default display cut for notes on cards.
const NoteWidth = 160

type Column struct {
	Status model.Status `json:"status"`
	Tasks  []model.Task `json:"tasks"`
}

// Columns groups tasks into the fixed status columns, each sorted for the
// board. Every status gets a column even when empty.
func (s *Sorter) Columns(tasks []model.Task) []Column {
	by := map[model.Status][]model.Task{}
	for _, t := range tasks {
		by[t.Status] = append(by[t.Status], t)
	}
	out := make([]Column, 0, len(model.Statuses))
	for _, st := range model.Statuses {
		col := append([]model.Task{}, by[st]...)
		s.SortBoard(col)
		out = append(out, Column{Status: st, Tasks: col})
	}
	return out
}

// Archive returns a sorted copy for the archive list.
func (s *Sorter) Archive(tasks []model.Task) []model.Task {
	out := append([]model.Task{}, tasks...)
	s.SortArchive(out)
	return out
}

type Facets struct {
	Workcenters []string `json:"workcenters"`
	Assignees   []string `json:"assignees"`
}

// Facets lists distinct non-empty values over the full collection. Values
// are trimmed, so "WC1" and "WC1 " are one option; Criteria.Matches trims
// the same way.
func (s *Sorter) Facets(all []model.Task) Facets {
	wc := map[string]struct{}{}
	as := map[string]struct{}{}
	for _, t := range all {
		if v := strings.TrimSpace(t.Workcenter); v != "" {
			wc[v] = struct{}{}
		}
		if v := strings.TrimSpace(t.Assignee); v != "" {
			as[v] = struct{}{}
		}
	}
	f := Facets{Workcenters: keys(wc), Assignees: keys(as)}
	s.SortStrings(f.Workcenters)
	s.SortStrings(f.Assignees)
	return f
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// IsOverdue compares calendar days in today's location. Done tasks and
// tasks without a parseable due date are never overdue.
func IsOverdue(t model.Task, today time.Time) bool {
	if t.Status == model.StatusDone {
		return false
	}
	d := strings.TrimSpace(t.DueDate)
	if len(d) < 10 {
		return false
	}
	due, err := time.ParseInLocation("2006-01-02", d[:10], today.Location())
	if err != nil {
		return false
	}
	y, m, day := today.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, today.Location())
	return due.Before(start)
}

// PercentDone is done/planned as a whole percentage clamped to 0..100.
func PercentDone(t model.Task) int {
	if t.PlannedMin <= 0 {
		return 0
	}
	r := float64(t.DoneMin) / float64(t.PlannedMin)
	r = math.Max(0, math.Min(1, r))
	return int(math.Round(100 * r))
}

type Stats struct {
	Count   int `json:"count"`
	Overdue int `json:"overdue"`
	Blocked int `json:"blocked"`
}

// Summarize counts the visible tasks. Overdue and blocked are board
// notions and stay zero in archive mode.
func Summarize(visible []model.Task, mode model.Mode, today time.Time) Stats {
	st := Stats{Count: len(visible)}
	if mode == model.ModeArchive {
		return st
	}
	for _, t := range visible {
		if IsOverdue(t, today) {
			st.Overdue++
		}
		if t.Status == model.StatusBlocked {
			st.Blocked++
		}
	}
	return st
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n-1]), " ") + "…"
}
