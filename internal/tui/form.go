package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ctboard/internal/model"
	"ctboard/internal/mutate"
)

type formField int

const (
	fieldOrder formField = iota
	fieldItem
	fieldOperation
	fieldWorkcenter
	fieldStatus
	fieldAssignee
	fieldPriority
	fieldDue
	fieldPlanned
	fieldDone
	fieldNote
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldOrder:      "Order *",
	fieldItem:       "Item",
	fieldOperation:  "Operation *",
	fieldWorkcenter: "Workcenter *",
	fieldStatus:     "Status",
	fieldAssignee:   "Assignee",
	fieldPriority:   "Priority",
	fieldDue:        "Due (yyyy-mm-dd)",
	fieldPlanned:    "Planned, min",
	fieldDone:       "Done, min",
	fieldNote:       "Note",
}

// formModel is the create/edit dialog. Text fields are textinputs, the note
// is a textarea, and status/priority cycle with ←/→.
type formModel struct {
	taskID   string
	inputs   map[formField]*textinput.Model
	note     textarea.Model
	status   int
	priority int
	focus    formField
	// pendingOp is the save in flight; the dialog closes when it commits.
	pendingOp string
}

func newFormModel(f mutate.Form, noteLimit int) formModel {
	fm := formModel{taskID: f.TaskID, inputs: map[formField]*textinput.Model{}}
	add := func(field formField, value, placeholder string, limit int) {
		ti := newInput(placeholder, limit)
		ti.Prompt = ""
		ti.SetValue(value)
		fm.inputs[field] = &ti
	}
	add(fieldOrder, f.OrderID, "A-1024", 64)
	add(fieldItem, f.Item, "", 120)
	add(fieldOperation, f.Operation, "", 120)
	add(fieldWorkcenter, f.Workcenter, "", 64)
	add(fieldAssignee, f.Assignee, "", 64)
	add(fieldDue, f.DueDate, "2026-01-31", 10)
	add(fieldPlanned, blankZero(f.PlannedMin), "0", 8)
	add(fieldDone, blankZero(f.DoneMin), "0", 8)

	fm.note = textarea.New()
	fm.note.Placeholder = "Write…"
	fm.note.ShowLineNumbers = false
	fm.note.CharLimit = noteLimit * 8
	fm.note.SetWidth(56)
	fm.note.SetHeight(4)
	fm.note.Cursor.SetMode(cursor.CursorStatic)
	fm.note.SetValue(f.Note)

	fm.status = statusIndex(model.Status(f.Status))
	fm.priority = priorityIndex(model.Priority(f.Priority))
	fm.setFocus(fieldOrder)
	return fm
}

func blankZero(s string) string {
	if s == "0" {
		return ""
	}
	return s
}

func statusIndex(s model.Status) int {
	for i, st := range model.Statuses {
		if st == s {
			return i
		}
	}
	return 0
}

func priorityIndex(p model.Priority) int {
	for i, pr := range model.Priorities {
		if pr == p {
			return i
		}
	}
	return 1
}

func (f *formModel) setFocus(field formField) {
	for k, in := range f.inputs {
		if k == field {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	if field == fieldNote {
		f.note.Focus()
	} else {
		f.note.Blur()
	}
	f.focus = field
}

func (f *formModel) step(delta int) {
	next := (int(f.focus) + delta + int(fieldCount)) % int(fieldCount)
	f.setFocus(formField(next))
}

// Form collects the dialog into the engine's form. Values are not trimmed
// here; the engine does that before validating.
func (f formModel) Form() mutate.Form {
	val := func(field formField) string { return f.inputs[field].Value() }
	return mutate.Form{
		TaskID:     f.taskID,
		OrderID:    val(fieldOrder),
		Item:       val(fieldItem),
		Operation:  val(fieldOperation),
		Workcenter: val(fieldWorkcenter),
		Status:     string(model.Statuses[f.status]),
		Assignee:   val(fieldAssignee),
		Priority:   string(model.Priorities[f.priority]),
		DueDate:    val(fieldDue),
		PlannedMin: val(fieldPlanned),
		DoneMin:    val(fieldDone),
		Note:       f.note.Value(),
	}
}

// update handles keys inside the dialog. The caller owns tab, ctrl+s and esc.
func (f formModel) update(msg tea.KeyMsg) (formModel, tea.Cmd) {
	switch f.focus {
	case fieldStatus:
		switch msg.String() {
		case "left", "h":
			f.status = (f.status + len(model.Statuses) - 1) % len(model.Statuses)
		case "right", "l", " ":
			f.status = (f.status + 1) % len(model.Statuses)
		}
		return f, nil
	case fieldPriority:
		switch msg.String() {
		case "left", "h":
			f.priority = (f.priority + len(model.Priorities) - 1) % len(model.Priorities)
		case "right", "l", " ":
			f.priority = (f.priority + 1) % len(model.Priorities)
		}
		return f, nil
	case fieldNote:
		var cmd tea.Cmd
		f.note, cmd = f.note.Update(msg)
		return f, cmd
	}
	if in, ok := f.inputs[f.focus]; ok {
		next, cmd := in.Update(msg)
		*in = next
		return f, cmd
	}
	return f, nil
}

func (f formModel) view(width int, vocab *model.Vocabulary) string {
	title := "New task"
	if f.taskID != "" {
		title = fmt.Sprintf("Edit task %s", f.taskID)
	}
	bodyW := modalBodyWidth(width)
	labelW := 18
	label := lipgloss.NewStyle().Width(labelW).Foreground(colorMuted)
	active := label.Foreground(colorAccent).Bold(true)

	var rows []string
	for field := formField(0); field < fieldCount; field++ {
		ls := label
		if field == f.focus {
			ls = active
		}
		var value string
		switch field {
		case fieldStatus:
			st := model.Statuses[f.status]
			value = "‹ " + lipgloss.NewStyle().Foreground(statusColor(st)).Render(vocab.Label(st)) + " ›"
		case fieldPriority:
			p := model.Priorities[f.priority]
			value = "‹ " + lipgloss.NewStyle().Foreground(priorityColor(p)).Render(string(p)) + " ›"
		case fieldNote:
			f.note.SetWidth(max(20, bodyW-2))
			rows = append(rows, ls.Render(fieldLabels[field]), f.note.View())
			continue
		default:
			in := f.inputs[field]
			in.Width = max(10, bodyW-labelW-2)
			value = in.View()
		}
		rows = append(rows, ls.Render(fieldLabels[field])+value)
	}
	help := styleMuted().Width(bodyW).Render("tab/shift+tab: field   ←/→: status, priority   ctrl+s: save   esc: close")
	return renderModalBox(width, title, strings.Join(rows, "\n")+"\n\n"+help)
}
