package view

import (
	"reflect"
	"testing"
	"time"

	"ctboard/internal/model"
)

func sample() []model.Task {
	return []model.Task{
		{TaskID: "1", OrderID: "A", Operation: "Резка", Workcenter: "WC1", Assignee: "Иван", Priority: model.PriorityP1, Status: model.StatusQueue},
		{TaskID: "2", OrderID: "B", Operation: "Сварка", Workcenter: "WC2", Assignee: "Пётр", Priority: model.PriorityP2, Status: model.StatusBlocked, Note: "ждём металл"},
		{TaskID: "3", OrderID: "C", Item: "Bracket", Workcenter: "WC1", Priority: model.PriorityP3, Status: model.StatusDone},
	}
}

func ids(ts []model.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.TaskID)
	}
	return out
}

func TestFilter_TextAndFacets(t *testing.T) {
	all := sample()
	cases := []struct {
		c    Criteria
		want []string
	}{
		{Criteria{}, []string{"1", "2", "3"}},
		{Criteria{Text: "  МЕТАЛЛ "}, []string{"2"}},
		{Criteria{Text: "bracket"}, []string{"3"}},
		{Criteria{Workcenter: "WC1"}, []string{"1", "3"}},
		{Criteria{Workcenter: "WC1", Assignee: "Иван"}, []string{"1"}},
		{Criteria{Text: "wc2"}, []string{"2"}},
		{Criteria{Text: "zzz"}, []string{}},
	}
	for _, tc := range cases {
		got := ids(Filter(all, tc.c))
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%+v: got %v want %v", tc.c, got, tc.want)
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	c := Criteria{Text: "c", Workcenter: "WC1"}
	once := Filter(sample(), c)
	twice := Filter(once, c)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestReconcile_KeepsValidSelections(t *testing.T) {
	f := DefaultSorter().Facets(sample())
	c := Criteria{Workcenter: "WC2", Assignee: "Мария"}.Reconcile(f)
	if c.Workcenter != "WC2" {
		t.Fatalf("valid workcenter cleared")
	}
	if c.Assignee != "" {
		t.Fatalf("stale assignee kept: %q", c.Assignee)
	}
}

func TestFacets_FromFullCollectionCollated(t *testing.T) {
	all := append(sample(), model.Task{TaskID: "4", Workcenter: "  ", Assignee: "Анна"})
	f := DefaultSorter().Facets(all)
	if !reflect.DeepEqual(f.Workcenters, []string{"WC1", "WC2"}) {
		t.Fatalf("workcenters = %v", f.Workcenters)
	}
	if !reflect.DeepEqual(f.Assignees, []string{"Анна", "Иван", "Пётр"}) {
		t.Fatalf("assignees = %v", f.Assignees)
	}
}

func TestSortBoard_PriorityBeatsDueDate(t *testing.T) {
	tasks := []model.Task{
		{TaskID: "2", OrderID: "B", Priority: model.PriorityP2, DueDate: "2024-01-05"},
		{TaskID: "1", OrderID: "A", Priority: model.PriorityP1, DueDate: "2024-01-10"},
	}
	DefaultSorter().SortBoard(tasks)
	if got := ids(tasks); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestSortBoard_DueThenOrderThenStable(t *testing.T) {
	tasks := []model.Task{
		{TaskID: "nodue", OrderID: "A", Priority: model.PriorityP2},
		{TaskID: "late", OrderID: "A", Priority: model.PriorityP2, DueDate: "2024-03-01"},
		{TaskID: "early-b", OrderID: "Б", Priority: model.PriorityP2, DueDate: "2024-02-01"},
		{TaskID: "early-a", OrderID: "А", Priority: model.PriorityP2, DueDate: "2024-02-01"},
		{TaskID: "dup1", OrderID: "X", Priority: model.PriorityP3},
		{TaskID: "dup2", OrderID: "X", Priority: model.PriorityP3},
	}
	DefaultSorter().SortBoard(tasks)
	want := []string{"early-a", "early-b", "late", "nodue", "dup1", "dup2"}
	if got := ids(tasks); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v want %v", got, want)
	}
}

func TestSortArchive_UpdatedDescEmptyLast(t *testing.T) {
	tasks := []model.Task{
		{TaskID: "empty", OrderID: "A"},
		{TaskID: "old", OrderID: "A", UpdatedAt: "2024-01-01T10:00:00Z"},
		{TaskID: "new-b", OrderID: "B", UpdatedAt: "2024-05-01T10:00:00Z"},
		{TaskID: "new-a", OrderID: "A", UpdatedAt: "2024-05-01T10:00:00Z"},
	}
	DefaultSorter().SortArchive(tasks)
	want := []string{"new-a", "new-b", "old", "empty"}
	if got := ids(tasks); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v want %v", got, want)
	}
}

func TestColumns_AllStatusesPresent(t *testing.T) {
	cols := DefaultSorter().Columns(sample())
	if len(cols) != len(model.Statuses) {
		t.Fatalf("got %d columns", len(cols))
	}
	for i, c := range cols {
		if c.Status != model.Statuses[i] {
			t.Fatalf("column %d is %s", i, c.Status)
		}
	}
	if len(cols[0].Tasks) != 1 || len(cols[2].Tasks) != 0 || len(cols[3].Tasks) != 1 {
		t.Fatalf("unexpected grouping: %+v", cols)
	}
}

func TestIsOverdue(t *testing.T) {
	today := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		task model.Task
		want bool
	}{
		{model.Task{DueDate: "2024-03-09"}, true},
		{model.Task{DueDate: "2024-03-10"}, false},
		{model.Task{DueDate: "2024-03-11"}, false},
		{model.Task{DueDate: ""}, false},
		{model.Task{DueDate: "garbage-date"}, false},
		{model.Task{DueDate: "2024-03-01", Status: model.StatusDone}, false},
		{model.Task{DueDate: "2024-03-09T23:59:00Z"}, true},
	}
	for _, tc := range cases {
		if got := IsOverdue(tc.task, today); got != tc.want {
			t.Fatalf("%+v: got %v", tc.task, got)
		}
	}
}

func TestPercentDone(t *testing.T) {
	cases := []struct {
		planned, done, want int
	}{
		{100, 150, 100},
		{0, 50, 0},
		{3, 1, 33},
		{200, 0, 0},
		{8, 5, 63},
	}
	for _, tc := range cases {
		got := PercentDone(model.Task{PlannedMin: tc.planned, DoneMin: tc.done})
		if got != tc.want {
			t.Fatalf("planned=%d done=%d: got %d want %d", tc.planned, tc.done, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{Status: model.StatusBlocked, DueDate: "2024-03-01"},
		{Status: model.StatusQueue},
	}
	if got := Summarize(tasks, model.ModeBoard, today); got != (Stats{Count: 2, Overdue: 1, Blocked: 1}) {
		t.Fatalf("board stats = %+v", got)
	}
	if got := Summarize(tasks, model.ModeArchive, today); got != (Stats{Count: 2}) {
		t.Fatalf("archive stats = %+v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("короткая", 160); got != "короткая" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("абвгдеж", 4); got != "абв…" {
		t.Fatalf("got %q", got)
	}
}

func TestFacets_TrimmedValuesAreOneOption(t *testing.T) {
	all := []model.Task{
		{TaskID: "1", Workcenter: "WC1", Assignee: "Иван"},
		{TaskID: "2", Workcenter: "WC1 ", Assignee: " Иван"},
	}
	f := DefaultSorter().Facets(all)
	if !reflect.DeepEqual(f.Workcenters, []string{"WC1"}) || !reflect.DeepEqual(f.Assignees, []string{"Иван"}) {
		t.Fatalf("facets = %+v", f)
	}
	got := Filter(all, Criteria{Workcenter: "WC1", Assignee: "Иван"})
	if len(got) != 2 {
		t.Fatalf("filter by trimmed facet matched %d tasks", len(got))
	}
}
