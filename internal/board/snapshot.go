package board

import (
	"ctboard/internal/model"
	"ctboard/internal/view"
)

// View is a detached copy of everything a presenter draws. Mutating it
// never reaches the controller.
type View struct {
	Mode        model.Mode    `json:"mode"`
	Conn        string        `json:"connection"`
	Hint        string        `json:"hint,omitempty"`
	Criteria    view.Criteria `json:"criteria"`
	Workcenters []string      `json:"workcenters"`
	Assignees   []string      `json:"assignees"`
	Columns     []view.Column `json:"columns,omitempty"`
	Archive     []model.Task  `json:"archive,omitempty"`
	Stats       view.Stats    `json:"stats"`
	DraggingID  string        `json:"dragging_id,omitempty"`
	Busy        []string      `json:"busy,omitempty"`
}

// Snapshot derives the current view. Board mode fills Columns, archive
// mode fills Archive.
func (c *Controller) Snapshot() View {
	v := View{
		Mode:        c.board.Mode,
		Conn:        c.conn.String(),
		Hint:        c.hint,
		Criteria:    c.criteria,
		Workcenters: append([]string{}, c.facets.Workcenters...),
		Assignees:   append([]string{}, c.facets.Assignees...),
		Stats:       view.Summarize(c.filtered, c.board.Mode, c.now()),
		DraggingID:  c.board.DraggingID,
	}
	if c.board.Mode == model.ModeArchive {
		v.Archive = c.sorter.Archive(c.filtered)
	} else {
		v.Columns = c.sorter.Columns(c.filtered)
	}
	for _, t := range c.board.Tasks {
		if t.TaskID != "" && c.engine.Busy(t.TaskID) {
			v.Busy = append(v.Busy, t.TaskID)
		}
	}
	return v
}

// Visible returns the filtered tasks in display order, flattened.
func (v View) Visible() []model.Task {
	if v.Mode == model.ModeArchive {
		return append([]model.Task{}, v.Archive...)
	}
	var out []model.Task
	for _, col := range v.Columns {
		out = append(out, col.Tasks...)
	}
	return out
}

// Column returns the column for status, or an empty one.
func (v View) Column(st model.Status) view.Column {
	for _, col := range v.Columns {
		if col.Status == st {
			return col
		}
	}
	return view.Column{Status: st}
}

func (v View) IsBusy(id string) bool {
	for _, b := range v.Busy {
		if b == id {
			return true
		}
	}
	return false
}
