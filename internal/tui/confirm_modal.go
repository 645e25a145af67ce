package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ctboard/internal/mutate"
)

// confirmModel asks before archive, restore or delete. A destructive prompt
// only accepts once the expected text has been typed.
type confirmModel struct {
	intent mutate.Intent
	prompt mutate.Prompt
	input  textinput.Model
}

func newConfirmModel(intent mutate.Intent, p mutate.Prompt) confirmModel {
	c := confirmModel{intent: intent, prompt: p}
	if p.Level == mutate.ConfirmDestructive {
		c.input = newInput(p.Expect, 64)
		c.input.Prompt = "> "
		c.input.Focus()
	}
	return c
}

func (c confirmModel) destructive() bool { return c.prompt.Level == mutate.ConfirmDestructive }

// accepted reports whether enter should proceed.
func (c confirmModel) accepted() bool {
	if !c.destructive() {
		return true
	}
	return strings.TrimSpace(c.input.Value()) == c.prompt.Expect
}

// confirmed returns the intent with the collected confirmation attached.
func (c confirmModel) confirmed() mutate.Intent {
	switch in := c.intent.(type) {
	case mutate.ArchiveTask:
		in.Confirm = mutate.ConfirmStandard
		return in
	case mutate.RestoreTask:
		in.Confirm = mutate.ConfirmStandard
		return in
	case mutate.DeleteTask:
		in.Confirm = mutate.ConfirmDestructive
		return in
	default:
		return c.intent
	}
}

func (c confirmModel) update(msg tea.KeyMsg) (confirmModel, tea.Cmd) {
	if !c.destructive() {
		return c, nil
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c confirmModel) view(width int) string {
	bodyW := modalBodyWidth(width)
	btn := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
	btnActive := btn.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)

	confirmLabel := "Confirm"
	if c.destructive() {
		confirmLabel = "Delete"
	}
	confirm := btn.Render(confirmLabel)
	if c.accepted() {
		confirm = btnActive.Render(confirmLabel)
	}
	sep := lipgloss.NewStyle().Background(colorControlBg).Render(" ")
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, sep, btn.Render("Cancel"))

	parts := []string{lipgloss.NewStyle().Width(bodyW).Render(c.prompt.Body)}
	help := "y/enter: confirm   esc/n: cancel"
	if c.destructive() {
		parts = append(parts, "", styleMuted().Render("Type "+c.prompt.Expect+" to confirm:"), c.input.View())
		help = "enter: delete   esc: cancel"
	}
	parts = append(parts, "", controls, "", styleMuted().Width(bodyW).Render(help))
	return renderModalBox(width, c.prompt.Title, strings.Join(parts, "\n"))
}
