package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ctboard/internal/model"
	"ctboard/internal/view"
)

type topicList struct {
	Topics []string `json:"topics"`
}

func (t topicList) WriteText(w io.Writer) error {
	for _, s := range t.Topics {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}

type docPage struct {
	Topic    string `json:"topic"`
	Markdown string `json:"markdown"`
}

func (d docPage) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, d.Markdown)
	return err
}

type configView struct {
	Path          string `json:"path"`
	APIURL        string `json:"api_url"`
	Token         string `json:"token,omitempty"`
	Configured    bool   `json:"configured"`
	URLOverridden bool   `json:"url_overridden,omitempty"`
	Locale        string `json:"locale"`
}

func (c configView) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	url := c.APIURL
	if url == "" {
		url = "(not set)"
	} else if c.URLOverridden {
		url += " (override)"
	}
	fmt.Fprintf(tw, "settings\t%s\n", c.Path)
	fmt.Fprintf(tw, "api_url\t%s\n", url)
	fmt.Fprintf(tw, "token\t%s\n", orDash(c.Token))
	fmt.Fprintf(tw, "locale\t%s\n", c.Locale)
	return tw.Flush()
}

// taskList is the payload of `tasks list`. labels and width only shape the
// text table.
type taskList struct {
	Mode   model.Mode   `json:"mode"`
	Tasks  []model.Task `json:"tasks"`
	Stats  view.Stats   `json:"stats"`
	labels func(model.Status) string
	width  int
}

func (l taskList) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORDER\tOPERATION\tWORKCENTER\tSTATUS\tPRI\tDUE\tASSIGNEE\tDONE\tNOTE")
	for _, t := range l.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d%%\t%s\n",
			t.TaskID, t.OrderID, t.Operation, t.Workcenter,
			l.label(t.Status), t.Priority, orDash(t.DueDate), orDash(t.Assignee),
			view.PercentDone(t), view.Truncate(oneLine(t.Note), l.width))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if l.Mode == model.ModeArchive {
		_, err := fmt.Fprintf(w, "\n%d archived\n", l.Stats.Count)
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d tasks, %d overdue, %d blocked\n", l.Stats.Count, l.Stats.Overdue, l.Stats.Blocked)
	return err
}

func (l taskList) label(s model.Status) string {
	if l.labels == nil {
		return string(s)
	}
	return l.labels(s)
}

type taskDetail struct {
	Task   model.Task `json:"task"`
	Notice string     `json:"notice,omitempty"`
	labels func(model.Status) string
}

func (d taskDetail) WriteText(w io.Writer) error {
	if d.Notice != "" {
		if _, err := fmt.Fprintln(w, d.Notice); err != nil {
			return err
		}
	}
	t := d.Task
	status := string(t.Status)
	if d.labels != nil {
		status = d.labels(t.Status)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "task_id\t%s\n", t.TaskID)
	fmt.Fprintf(tw, "order_id\t%s\n", t.OrderID)
	fmt.Fprintf(tw, "item\t%s\n", orDash(t.Item))
	fmt.Fprintf(tw, "operation\t%s\n", t.Operation)
	fmt.Fprintf(tw, "workcenter\t%s\n", t.Workcenter)
	fmt.Fprintf(tw, "status\t%s\n", status)
	fmt.Fprintf(tw, "priority\t%s\n", t.Priority)
	fmt.Fprintf(tw, "assignee\t%s\n", orDash(t.Assignee))
	fmt.Fprintf(tw, "due_date\t%s\n", orDash(t.DueDate))
	fmt.Fprintf(tw, "minutes\t%d / %d (%d%%)\n", t.DoneMin, t.PlannedMin, view.PercentDone(t))
	fmt.Fprintf(tw, "updated_at\t%s\n", orDash(t.UpdatedAt))
	if err := tw.Flush(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Note) != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", t.Note)
		return err
	}
	return nil
}

// mutationResult reports a write that carries no task body.
type mutationResult struct {
	Action string `json:"action"`
	TaskID string `json:"task_id"`
	Notice string `json:"notice"`
}

func (m mutationResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, m.Notice)
	return err
}

type facetsView struct {
	Mode        model.Mode `json:"mode"`
	Workcenters []string   `json:"workcenters"`
	Assignees   []string   `json:"assignees"`
}

func (f facetsView) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "workcenters\t%s\n", orDash(strings.Join(f.Workcenters, ", ")))
	fmt.Fprintf(tw, "assignees\t%s\n", orDash(strings.Join(f.Assignees, ", ")))
	return tw.Flush()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
