package view

import (
	"slices"
	"strings"

	"ctboard/internal/model"
)

// Criteria is the active search/facet selection. Empty fields match all.
type Criteria struct {
	Text       string `json:"text,omitempty"`
	Workcenter string `json:"workcenter,omitempty"`
	Assignee   string `json:"assignee,omitempty"`
}

func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && c.Workcenter == "" && c.Assignee == ""
}

func (c Criteria) Matches(t model.Task) bool {
	if c.Workcenter != "" && strings.TrimSpace(t.Workcenter) != c.Workcenter {
		return false
	}
	if c.Assignee != "" && strings.TrimSpace(t.Assignee) != c.Assignee {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(c.Text))
	if q == "" {
		return true
	}
	return strings.Contains(haystack(t), q)
}

func haystack(t model.Task) string {
	return strings.ToLower(strings.Join([]string{
		t.OrderID, t.Item, t.Operation, t.Workcenter, t.Assignee, t.Note,
	}, " "))
}

// Filter keeps input order. The result never aliases tasks.
func Filter(tasks []model.Task, c Criteria) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Reconcile drops facet selections that are no longer options. A selection
// that is still offered is kept.
func (c Criteria) Reconcile(f Facets) Criteria {
	if c.Workcenter != "" && !slices.Contains(f.Workcenters, c.Workcenter) {
		c.Workcenter = ""
	}
	if c.Assignee != "" && !slices.Contains(f.Assignees, c.Assignee) {
		c.Assignee = ""
	}
	return c
}
