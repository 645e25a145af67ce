package mutate

import (
	"strconv"
	"strings"
	"time"

	"ctboard/internal/model"
)

// Form is the edit surface's raw text, one string per task field.
type Form struct {
	TaskID     string `json:"task_id"`
	OrderID    string `json:"order_id"`
	Item       string `json:"item"`
	Operation  string `json:"operation"`
	Workcenter string `json:"workcenter"`
	Status     string `json:"status"`
	Assignee   string `json:"assignee"`
	Priority   string `json:"priority"`
	DueDate    string `json:"due_date"`
	PlannedMin string `json:"planned_min"`
	DoneMin    string `json:"done_min"`
	Note       string `json:"note"`
}

// NewForm is the blank form for a new task.
func NewForm() Form {
	return Form{Status: string(model.StatusQueue), Priority: string(model.PriorityP2)}
}

func FormFromTask(t model.Task) Form {
	return Form{
		TaskID:     t.TaskID,
		OrderID:    t.OrderID,
		Item:       t.Item,
		Operation:  t.Operation,
		Workcenter: t.Workcenter,
		Status:     string(t.Status),
		Assignee:   t.Assignee,
		Priority:   string(t.Priority),
		DueDate:    t.DueDate,
		PlannedMin: strconv.Itoa(t.PlannedMin),
		DoneMin:    strconv.Itoa(t.DoneMin),
		Note:       t.Note,
	}
}

func (f Form) Trimmed() Form {
	return Form{
		TaskID:     strings.TrimSpace(f.TaskID),
		OrderID:    strings.TrimSpace(f.OrderID),
		Item:       strings.TrimSpace(f.Item),
		Operation:  strings.TrimSpace(f.Operation),
		Workcenter: strings.TrimSpace(f.Workcenter),
		Status:     strings.TrimSpace(f.Status),
		Assignee:   strings.TrimSpace(f.Assignee),
		Priority:   strings.TrimSpace(f.Priority),
		DueDate:    strings.TrimSpace(f.DueDate),
		PlannedMin: strings.TrimSpace(f.PlannedMin),
		DoneMin:    strings.TrimSpace(f.DoneMin),
		Note:       strings.TrimSpace(f.Note),
	}
}

// Validate checks a trimmed form.
func (f Form) Validate() error {
	var ve ValidationError
	if f.OrderID == "" {
		ve.Fields = append(ve.Fields, "order_id")
	}
	if f.Operation == "" {
		ve.Fields = append(ve.Fields, "operation")
	}
	if f.Workcenter == "" {
		ve.Fields = append(ve.Fields, "workcenter")
	}
	if f.DueDate != "" {
		if _, err := time.Parse("2006-01-02", f.DueDate); err != nil {
			ve.Problems = append(ve.Problems, "due_date must be yyyy-mm-dd")
		}
	}
	for _, n := range []struct{ name, v string }{{"planned_min", f.PlannedMin}, {"done_min", f.DoneMin}} {
		if n.v == "" {
			continue
		}
		x, err := strconv.ParseFloat(n.v, 64)
		if err != nil || x < 0 {
			ve.Problems = append(ve.Problems, n.name+" must be a non-negative number")
		}
	}
	if len(ve.Fields) > 0 || len(ve.Problems) > 0 {
		return &ve
	}
	return nil
}

// Task runs the form through the normalizer so the payload obeys the same
// rules as anything read from the backend.
func (f Form) Task(n *model.Normalizer) model.Task {
	if n == nil {
		n = model.NewNormalizer(nil)
	}
	return n.Normalize(model.RawTask{
		"task_id":     f.TaskID,
		"order_id":    f.OrderID,
		"item":        f.Item,
		"operation":   f.Operation,
		"workcenter":  f.Workcenter,
		"status":      f.Status,
		"assignee":    f.Assignee,
		"priority":    f.Priority,
		"due_date":    f.DueDate,
		"planned_min": f.PlannedMin,
		"done_min":    f.DoneMin,
		"note":        f.Note,
	})
}
