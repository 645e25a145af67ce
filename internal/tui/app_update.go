package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"ctboard/internal/model"
	"ctboard/internal/mutate"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if flash := next.flashCmd(); flash != nil {
		cmd = tea.Batch(cmd, flash)
	}
	return next, cmd
}

func (m appModel) update(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case fetchedMsg:
		if err := m.ctrl.ApplyFetch(msg.mode, msg.raws, msg.err); err != nil {
			m.log.WithError(err).Debug("tui.reload")
		}
		return m, nil

	case opDoneMsg:
		return m.finish(msg.op, msg.err)

	case configChangedMsg:
		m.log.Debug("settings.watch")
		return m, tea.Batch(m.reloadSettingsCmd(), m.watchCmd())

	case settingsLoadedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("tui.settings.reload")
			return m, nil
		}
		if !msg.changed {
			return m, nil
		}
		m.log.Info("settings.changed")
		return m, m.reloadCmd()

	case flashDoneMsg:
		m.opts.Notices.Clear(msg.seq)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.overlay {
		case overlaySearch:
			return m.updateSearch(msg)
		case overlayForm:
			return m.updateForm(msg)
		case overlayConfirm:
			return m.updateConfirm(msg)
		case overlayHelp:
			switch msg.String() {
			case "esc", "?", "q", "enter":
				m.overlay = overlayNone
			}
			return m, nil
		case overlayDetail:
			return m.updateDetail(msg)
		}
		if m.ctrl.DraggingID() != "" {
			return m.updateDrag(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m appModel) updateBoard(msg tea.KeyMsg) (appModel, tea.Cmd) {
	v := m.snapshot()
	sel, hasSel := m.selectedTask(v)
	archive := v.Mode == model.ModeArchive

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.overlay = overlayHelp
	case "r":
		return m, m.reloadCmd()
	case "tab":
		m.ctrl.SetMode(otherMode(v.Mode))
		m.persistState()
		return m, m.reloadCmd()
	case "/":
		m.overlay = overlaySearch
		m.search.SetValue(v.Criteria.Text)
		m.search.CursorEnd()
		m.search.Focus()
	case "w":
		cr := m.criteria()
		cr.Workcenter = cycle(v.Workcenters, cr.Workcenter)
		m.ctrl.SetCriteria(cr)
		m.persistState()
	case "u":
		cr := m.criteria()
		cr.Assignee = cycle(v.Assignees, cr.Assignee)
		m.ctrl.SetCriteria(cr)
		m.persistState()
	case "left", "h":
		if !archive && m.col > 0 {
			m.col--
		}
	case "right", "l":
		if !archive && m.col < len(model.Statuses)-1 {
			m.col++
		}
	case "up", "k":
		m.moveSelection(v, -1)
	case "down", "j":
		m.moveSelection(v, 1)
	case "home", "g":
		m.moveSelection(v, -len(v.Visible()))
	case "end", "G":
		m.moveSelection(v, len(v.Visible()))
	case " ":
		if hasSel && m.ctrl.StartDrag(sel.TaskID) {
			m.dropCol = m.col
		}
	case "v":
		if hasSel {
			m.overlay = overlayDetail
		}
	case "y":
		if hasSel {
			m.copyOrderID(sel)
		}
	case "enter", "e":
		if archive {
			if hasSel {
				m.overlay = overlayDetail
			}
			return m, nil
		}
		if hasSel {
			m.openForm(mutate.FormFromTask(sel))
		}
	case "n":
		if !archive {
			f := mutate.NewForm()
			f.Status = string(model.Statuses[m.col])
			cr := m.criteria()
			f.Workcenter = cr.Workcenter
			f.Assignee = cr.Assignee
			m.openForm(f)
		}
	case "a":
		if !archive && hasSel {
			m.openConfirm(mutate.ArchiveTask{TaskID: sel.TaskID})
		}
	case "R":
		if archive && hasSel {
			m.openConfirm(mutate.RestoreTask{TaskID: sel.TaskID})
		}
	case "D":
		if hasSel {
			m.openConfirm(mutate.DeleteTask{TaskID: sel.TaskID, Origin: v.Mode.Origin()})
		}
	}
	return m, nil
}

func (m appModel) updateDrag(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		if m.dropCol > 0 {
			m.dropCol--
		}
	case "right", "l":
		if m.dropCol < len(model.Statuses)-1 {
			m.dropCol++
		}
	case "enter", " ":
		id := m.ctrl.DraggingID()
		st := model.Statuses[m.dropCol]
		op, err := m.ctrl.BeginDrop(st)
		m.follow(id, st)
		if err != nil || op == nil {
			if err != nil {
				m.log.WithError(err).Debug("tui.drop")
			}
			return m, nil
		}
		return m, m.callCmd(op)
	case "esc", "q":
		m.ctrl.EndDrag()
	}
	return m, nil
}

func (m appModel) updateSearch(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.overlay = overlayNone
		m.setSearchText("")
		return m, nil
	case "enter":
		m.search.Blur()
		m.overlay = overlayNone
		m.persistState()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setSearchText(m.search.Value())
	return m, cmd
}

func (m *appModel) setSearchText(s string) {
	cr := m.criteria()
	cr.Text = s
	m.ctrl.SetCriteria(cr)
}

func (m appModel) updateForm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = overlayNone
		return m, nil
	case "tab", "down":
		if msg.String() == "down" && m.form.focus == fieldNote {
			break
		}
		m.form.step(1)
		return m, nil
	case "shift+tab", "up":
		if msg.String() == "up" && m.form.focus == fieldNote {
			break
		}
		m.form.step(-1)
		return m, nil
	case "ctrl+s":
		op, err := m.ctrl.Begin(mutate.SaveTask{Form: m.form.Form()})
		if err != nil {
			// Validation and busy errors already produced a notice; the
			// form stays open with its values.
			m.log.WithError(err).Debug("tui.save")
			return m, nil
		}
		m.form.pendingOp = op.ID
		return m, m.callCmd(op)
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	key := msg.String()
	switch {
	case key == "esc" || (!m.confirm.destructive() && key == "n"):
		m.overlay = overlayNone
		return m, nil
	case key == "enter" || (!m.confirm.destructive() && key == "y"):
		if !m.confirm.accepted() {
			return m, nil
		}
		m.overlay = overlayNone
		op, err := m.ctrl.Begin(m.confirm.confirmed())
		if err != nil {
			m.log.WithError(err).Debug("tui.confirm")
			return m, nil
		}
		return m, m.callCmd(op)
	}
	var cmd tea.Cmd
	m.confirm, cmd = m.confirm.update(msg)
	return m, cmd
}

func (m appModel) updateDetail(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "v", "q":
		m.overlay = overlayNone
	case "e":
		v := m.snapshot()
		if sel, ok := m.selectedTask(v); ok && v.Mode == model.ModeBoard {
			m.openForm(mutate.FormFromTask(sel))
		}
	}
	return m, nil
}

// finish reconciles a completed network call and schedules the reload.
func (m appModel) finish(op *mutate.Op, callErr error) (appModel, tea.Cmd) {
	out := m.ctrl.Finish(op, callErr)
	m.log.WithFields(logrus.Fields{
		"op_id": op.ID,
		"phase": out.Phase.String(),
	}).Debug("tui.op.done")

	if m.overlay == overlayForm && m.form.pendingOp == op.ID {
		m.form.pendingOp = ""
		if out.CloseForm {
			m.overlay = overlayNone
		}
	}
	if out.Reload {
		return m, m.reloadCmd()
	}
	return m, nil
}

func (m *appModel) openForm(f mutate.Form) {
	m.form = newFormModel(f, m.opts.NoteWidth)
	m.overlay = overlayForm
}

func (m *appModel) openConfirm(intent mutate.Intent) {
	m.confirm = newConfirmModel(intent, m.ctrl.Prompt(intent))
	m.overlay = overlayConfirm
}

func otherMode(mode model.Mode) model.Mode {
	if mode == model.ModeArchive {
		return model.ModeBoard
	}
	return model.ModeArchive
}

// cycle steps through "" (all) and then each option in order.
func cycle(options []string, cur string) string {
	if len(options) == 0 {
		return ""
	}
	if cur == "" {
		return options[0]
	}
	for i, o := range options {
		if o == cur {
			if i+1 < len(options) {
				return options[i+1]
			}
			return ""
		}
	}
	return ""
}
