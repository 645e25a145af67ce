package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ctboard/internal/board"
	"ctboard/internal/docs"
	"ctboard/internal/model"
	"ctboard/internal/mutate"
	"ctboard/internal/view"
)

func (m appModel) View() string {
	w, h := m.width, m.height
	if w <= 0 {
		w = 120
	}
	if h <= 0 {
		h = 40
	}
	v := m.snapshot()

	header := m.renderHeader(v, w)
	footer := m.renderFooter(v, w)
	bodyH := h - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyH < 3 {
		bodyH = 3
	}

	var body string
	switch {
	case v.Hint != "":
		body = normalizePane("\n  "+v.Hint, w, bodyH)
	case v.Mode == model.ModeArchive:
		body = m.renderArchive(v, w, bodyH)
	default:
		body = m.renderColumns(v, w, bodyH)
	}

	switch m.overlay {
	case overlayForm:
		body = placeCentered(w, bodyH, m.form.view(w, m.vocabulary()))
	case overlayConfirm:
		body = placeCentered(w, bodyH, m.confirm.view(w))
	case overlayHelp:
		help, _ := docs.Get("keys")
		body = placeCentered(w, bodyH, renderModalBox(w, "Keys", renderMarkdown(help, modalBodyWidth(w))))
	case overlayDetail:
		if t, ok := m.selectedTask(v); ok {
			body = placeCentered(w, bodyH, renderModalBox(w, detailTitle(t), m.renderDetail(t, modalBodyWidth(w))))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func detailTitle(t model.Task) string {
	if t.Operation == "" {
		return t.OrderID
	}
	return t.OrderID + glyphSep() + t.Operation
}

func (m appModel) renderDetail(t model.Task, width int) string {
	vocab := m.vocabulary()
	label := lipgloss.NewStyle().Width(14).Foreground(colorMuted)
	row := func(k, v string) string {
		if strings.TrimSpace(v) == "" {
			v = glyphEmpty()
		}
		return label.Render(k) + v
	}
	lines := []string{
		row("Task", t.TaskID),
		row("Item", t.Item),
		row("Workcenter", t.Workcenter),
		row("Status", lipgloss.NewStyle().Foreground(statusColor(t.Status)).Render(vocab.Label(t.Status))),
		row("Assignee", t.Assignee),
		row("Priority", string(t.Priority)),
		row("Due", t.DueDate),
		row("Minutes", fmt.Sprintf("%d / %d (%d%%)", t.DoneMin, t.PlannedMin, view.PercentDone(t))),
		row("Updated", t.UpdatedAt),
	}
	out := strings.Join(lines, "\n")
	if note := renderMarkdown(t.Note, width); note != "" {
		out += "\n\n" + note
	}
	return out + "\n\n" + styleMuted().Render("e: edit   esc: close")
}

func (m appModel) renderHeader(v board.View, width int) string {
	title := "Board"
	if v.Mode == model.ModeArchive {
		title = "Archive"
	}
	left := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("ctboard") + " " +
		lipgloss.NewStyle().Bold(true).Render(title)

	var stats string
	if v.Mode == model.ModeArchive {
		stats = fmt.Sprintf("%d archived", v.Stats.Count)
	} else {
		stats = fmt.Sprintf("%d tasks", v.Stats.Count)
		if v.Stats.Overdue > 0 {
			stats += "  " + lipgloss.NewStyle().Foreground(colorDanger).Render(fmt.Sprintf("%d overdue", v.Stats.Overdue))
		}
		if v.Stats.Blocked > 0 {
			stats += "  " + lipgloss.NewStyle().Foreground(colorWarn).Render(fmt.Sprintf("%d blocked", v.Stats.Blocked))
		}
	}
	right := connBadge(v.Conn) + "  " + stats

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	top := left + strings.Repeat(" ", gap) + right
	return fitLine(top, width) + "\n" + fitLine(m.renderFilterBar(v), width)
}

func connBadge(conn string) string {
	switch conn {
	case board.ConnOK.String():
		return lipgloss.NewStyle().Foreground(colorSuccess).Render(glyphOnline() + " online")
	case board.ConnConnecting.String():
		return lipgloss.NewStyle().Foreground(colorWarn).Render(glyphOnline() + " loading")
	case board.ConnError.String():
		return lipgloss.NewStyle().Foreground(colorDanger).Render(glyphOnline() + " error")
	default:
		return styleMuted().Render(glyphOffline() + " not configured")
	}
}

func (m appModel) renderFilterBar(v board.View) string {
	var parts []string
	if m.overlay == overlaySearch {
		parts = append(parts, m.search.View())
	} else if v.Criteria.Text != "" {
		parts = append(parts, "/ "+v.Criteria.Text)
	}
	facet := func(key, name, val string) string {
		if val == "" {
			val = "all"
		}
		return styleMuted().Render(key+" "+name+":") + " " + val
	}
	parts = append(parts,
		facet("w", "workcenter", v.Criteria.Workcenter),
		facet("u", "assignee", v.Criteria.Assignee),
	)
	return strings.Join(parts, "   ")
}

func (m appModel) renderFooter(v board.View, width int) string {
	if n, _ := m.opts.Notices.Current(); n.Message != "" {
		return fitLine(noticeStyle(n.Level).Render(n.Message), width)
	}
	var hint string
	switch {
	case v.DraggingID != "":
		hint = "←/→: choose column   enter: drop   esc: cancel"
	case v.Mode == model.ModeArchive:
		hint = "↑/↓: select   enter: details   R: restore   D: delete   tab: board   /: search   ?: help   q: quit"
	default:
		hint = "space: move   n: new   e: edit   a: archive   D: delete   tab: archive   /: search   r: reload   ?: help   q: quit"
	}
	return fitLine(styleMuted().Render(hint), width)
}

func noticeStyle(l mutate.Level) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	switch l {
	case mutate.LevelSuccess:
		return st.Foreground(colorSuccess)
	case mutate.LevelWarn:
		return st.Foreground(colorWarn)
	case mutate.LevelError:
		return st.Foreground(colorDanger)
	default:
		return st.Foreground(colorAccent)
	}
}
