package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"ctboard/internal/board"
	"ctboard/internal/model"
	"ctboard/internal/mutate"
	"ctboard/internal/store"
	"ctboard/internal/view"
)

type appModel struct {
	ctx  context.Context
	ctrl *board.Controller
	opts Options
	log  logrus.FieldLogger

	width  int
	height int

	overlay overlay

	// Board selection: column index and the selected task id per column.
	col      int
	selected map[model.Status]string
	// Archive selection.
	archiveID string
	// dropCol is the target column while a card is picked up.
	dropCol int

	search  textinput.Model
	form    formModel
	confirm confirmModel

	flashSeq int
}

func newAppModel(ctx context.Context, opts Options) appModel {
	opts.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	m := appModel{
		ctx:      ctx,
		ctrl:     opts.Controller,
		opts:     opts,
		log:      opts.Logger,
		selected: map[model.Status]string{},
	}

	m.search = newInput("order, item, operation, note…", 80)
	m.search.Prompt = "/ "

	if st := opts.State; st != nil {
		m.ctrl.SetMode(st.Mode)
		m.ctrl.SetCriteria(st.Criteria)
		m.search.SetValue(st.Criteria.Text)
	}
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.reloadCmd(), m.watchCmd())
}

// reloadCmd flips the indicator and fetches the current mode off the
// update loop. ApplyFetch drops the result if the mode changed meanwhile.
func (m appModel) reloadCmd() tea.Cmd {
	m.ctrl.MarkConnecting()
	ctrl, ctx, mode := m.ctrl, m.ctx, m.ctrl.Mode()
	return func() tea.Msg {
		raws, err := ctrl.Fetch(ctx, mode)
		return fetchedMsg{mode: mode, raws: raws, err: err}
	}
}

// callCmd runs the network half of op.
func (m appModel) callCmd(op *mutate.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: op.Call(ctx)}
	}
}

func (m appModel) watchCmd() tea.Cmd {
	ch := m.opts.Watch
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}

func (m appModel) reloadSettingsCmd() tea.Cmd {
	fn, ctx := m.opts.ReloadSettings, m.ctx
	if fn == nil {
		return func() tea.Msg { return settingsLoadedMsg{changed: true} }
	}
	return func() tea.Msg {
		changed, err := fn(ctx)
		return settingsLoadedMsg{changed: changed, err: err}
	}
}

// flashCmd schedules the current notice to disappear, once per notice.
func (m *appModel) flashCmd() tea.Cmd {
	n, seq := m.opts.Notices.Current()
	if seq == m.flashSeq || n.Message == "" {
		return nil
	}
	m.flashSeq = seq
	return tea.Tick(m.opts.FlashFor, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m appModel) persistState() {
	if m.opts.SaveState == nil {
		return
	}
	st := &store.TUIState{Version: 1, Mode: m.ctrl.Mode(), Criteria: m.ctrl.Criteria()}
	if err := m.opts.SaveState(st); err != nil {
		m.log.WithError(err).Warn("tui.state.save")
	}
}

func (m appModel) snapshot() board.View { return m.ctrl.Snapshot() }

func (m appModel) vocabulary() *model.Vocabulary { return m.ctrl.Normalizer().Vocabulary() }

// selectedTask resolves the highlighted task against the current view,
// falling back to the first card of the column.
func (m appModel) selectedTask(v board.View) (model.Task, bool) {
	if v.Mode == model.ModeArchive {
		return pick(v.Archive, m.archiveID)
	}
	if m.col < 0 || m.col >= len(model.Statuses) {
		return model.Task{}, false
	}
	st := model.Statuses[m.col]
	return pick(v.Column(st).Tasks, m.selected[st])
}

func pick(tasks []model.Task, id string) (model.Task, bool) {
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	if i := indexOf(tasks, id); i >= 0 {
		return tasks[i], true
	}
	return tasks[0], true
}

func indexOf(tasks []model.Task, id string) int {
	if id == "" {
		return -1
	}
	for i, t := range tasks {
		if t.TaskID == id {
			return i
		}
	}
	return -1
}

// moveSelection steps the highlight by delta cards in the active list.
func (m *appModel) moveSelection(v board.View, delta int) {
	tasks := v.Archive
	if v.Mode == model.ModeBoard {
		tasks = v.Column(model.Statuses[m.col]).Tasks
	}
	if len(tasks) == 0 {
		return
	}
	cur, _ := m.selectedTask(v)
	i := indexOf(tasks, cur.TaskID)
	if i < 0 {
		i = 0
	}
	i = clamp(i+delta, 0, len(tasks)-1)
	if v.Mode == model.ModeArchive {
		m.archiveID = tasks[i].TaskID
		return
	}
	m.selected[model.Statuses[m.col]] = tasks[i].TaskID
}

// follow keeps the highlight on id after it changes column.
func (m *appModel) follow(id string, st model.Status) {
	for i, s := range model.Statuses {
		if s == st {
			m.col = i
			m.selected[s] = id
			return
		}
	}
}

func (m appModel) criteria() view.Criteria { return m.ctrl.Criteria() }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
