package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"ctboard/internal/board"
	"ctboard/internal/model"
	"ctboard/internal/view"
)

const columnGap = 1

type cardState struct {
	selected bool
	dragging bool
	busy     bool
	today    time.Time
}

// renderCard draws one task at width cells including the border.
func renderCard(t model.Task, width, noteWidth int, st cardState) string {
	inner := width - 2
	if inner < 4 {
		inner = 4
	}
	title := t.OrderID
	if t.Operation != "" {
		title += glyphSep() + t.Operation
	}
	pri := lipgloss.NewStyle().Foreground(priorityColor(t.Priority)).Bold(t.Priority == model.PriorityP1).Render(string(t.Priority))
	lines := []string{
		xansi.Truncate(lipgloss.NewStyle().Bold(true).Render(title), inner-3, glyphEllipsis()) + " " + pri,
	}

	meta := lipgloss.NewStyle().Foreground(colorCardMetaFg)
	if t.Item != "" {
		lines = append(lines, meta.Render(xansi.Truncate(t.Item, inner, glyphEllipsis())))
	}
	who := t.Workcenter
	if t.Assignee != "" {
		who += glyphSep() + t.Assignee
	}
	lines = append(lines, meta.Render(xansi.Truncate(who, inner, glyphEllipsis())))

	var tail []string
	if t.DueDate != "" {
		due := "due " + t.DueDate
		if view.IsOverdue(t, st.today) {
			due = lipgloss.NewStyle().Foreground(colorDanger).Bold(true).Render("overdue " + t.DueDate)
		}
		tail = append(tail, due)
	}
	if t.PlannedMin > 0 {
		tail = append(tail, fmt.Sprintf("%d%%", view.PercentDone(t)))
	}
	if st.busy {
		tail = append(tail, lipgloss.NewStyle().Foreground(colorWarn).Render("saving" + glyphEllipsis()))
	}
	if len(tail) > 0 {
		lines = append(lines, xansi.Truncate(strings.Join(tail, "  "), inner, glyphEllipsis()))
	}
	if note := strings.Join(strings.Fields(t.Note), " "); note != "" {
		lines = append(lines, styleMuted().Render(xansi.Truncate(view.Truncate(note, noteWidth), inner, glyphEllipsis())))
	}

	border := colorCardBorder
	switch {
	case st.dragging:
		border = colorAccent
	case st.selected:
		border = colorSelectedBorder
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(inner)
	if st.dragging {
		box = box.BorderStyle(lipgloss.DoubleBorder())
	}
	return box.Render(strings.Join(lines, "\n"))
}

// renderColumns draws the five status columns into width x height.
func (m appModel) renderColumns(v board.View, width, height int) string {
	widths := columnWidths(width, len(model.Statuses), columnGap)
	vocab := m.vocabulary()
	today := time.Now()

	cols := make([]string, 0, len(model.Statuses)*2)
	for i, st := range model.Statuses {
		col := v.Column(st)
		w := widths[i]

		head := fmt.Sprintf("%s %d", vocab.Label(st), len(col.Tasks))
		hs := lipgloss.NewStyle().Bold(true).Foreground(statusColor(st))
		if i == m.col {
			hs = hs.Underline(true)
		}
		if v.DraggingID != "" && i == m.dropCol {
			hs = hs.Reverse(true)
			head = glyphArrow() + " " + head
		}

		sel, _ := m.selectedTask(v)
		cards := make([]string, 0, len(col.Tasks))
		selIdx := -1
		for j, t := range col.Tasks {
			cs := cardState{
				selected: i == m.col && t.TaskID == sel.TaskID,
				dragging: t.TaskID == v.DraggingID,
				busy:     v.IsBusy(t.TaskID),
				today:    today,
			}
			if cs.selected {
				selIdx = j
			}
			cards = append(cards, renderCard(t, w, m.opts.NoteWidth, cs))
		}
		body := scrollCards(cards, selIdx, height-2)
		pane := xansi.Truncate(hs.Render(head), w, glyphEllipsis()) + "\n\n" + body
		cols = append(cols, normalizePane(pane, w, height))
		if i < len(model.Statuses)-1 {
			cols = append(cols, strings.Repeat(" \n", height-1)+" ")
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// scrollCards stacks cards and drops leading ones until the selected card
// fits in height lines.
func scrollCards(cards []string, selected, height int) string {
	if len(cards) == 0 {
		return styleMuted().Render(glyphEmpty())
	}
	start := 0
	if selected > 0 {
		for start < selected {
			used := 0
			for _, c := range cards[start : selected+1] {
				used += lipgloss.Height(c)
			}
			if used <= height {
				break
			}
			start++
		}
	}
	out := strings.Join(cards[start:], "\n")
	if start > 0 {
		out = styleMuted().Render(fmt.Sprintf("%s %d more", glyphMore(), start)) + "\n" + out
	}
	return out
}

// renderArchive draws the archive as a list, newest first.
func (m appModel) renderArchive(v board.View, width, height int) string {
	if len(v.Archive) == 0 {
		return normalizePane(styleMuted().Render("Archive is empty."), width, height)
	}
	sel, _ := m.selectedTask(v)
	vocab := m.vocabulary()
	rows := make([]string, 0, len(v.Archive))
	selIdx := 0
	for i, t := range v.Archive {
		line := fmt.Sprintf("%-6s %-14s %-18s %-10s %-12s %s",
			t.TaskID, t.OrderID, t.Operation, t.Workcenter, vocab.Label(t.Status), t.UpdatedAt)
		if note := strings.Join(strings.Fields(t.Note), " "); note != "" {
			line += "  " + view.Truncate(note, m.opts.NoteWidth)
		}
		line = fitLine(line, width)
		if t.TaskID == sel.TaskID {
			selIdx = i
			line = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true).Render(line)
		}
		if v.IsBusy(t.TaskID) {
			line = lipgloss.NewStyle().Foreground(colorWarn).Render(line)
		}
		rows = append(rows, line)
	}
	start := 0
	if selIdx >= height {
		start = selIdx - height + 1
	}
	return normalizePane(strings.Join(rows[start:], "\n"), width, height)
}
