package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctboard/internal/board"
	"ctboard/internal/model"
	"ctboard/internal/mutate"
	"ctboard/internal/remote"
	"ctboard/internal/remote/remotetest"
	"ctboard/internal/store"
	"ctboard/internal/view"
)

type harness struct {
	t       *testing.T
	backend *remotetest.Backend
	notices *NoticeBox
	saved   []*store.TUIState
	m       appModel
}

func newHarness(t *testing.T, state *store.TUIState) *harness {
	t.Helper()
	h := &harness{t: t, backend: remotetest.New(), notices: &NoticeBox{}}
	t.Cleanup(h.backend.Close)
	ctrl := board.New(board.Config{
		Backend:  remote.New(remote.StaticSource{URL: h.backend.URL()}),
		Notifier: h.notices,
		Now:      func() time.Time { return time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC) },
	})
	h.m = newAppModel(context.Background(), Options{
		Controller: ctrl,
		Notices:    h.notices,
		State:      state,
		SaveState: func(st *store.TUIState) error {
			h.saved = append(h.saved, st)
			return nil
		},
		FlashFor: time.Millisecond,
	})
	h.m.width, h.m.height = 140, 40
	return h
}

func (h *harness) start() {
	h.t.Helper()
	h.drive(h.m.Init())
}

// drive runs cmd and everything it produces, feeding messages back into
// the model. Notice timeouts are skipped so tests can read the notice.
func (h *harness) drive(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(h.t, steps, 200, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, tea.QuitMsg, flashDoneMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, more := h.m.Update(msg)
			h.m = next.(appModel)
			queue = append(queue, more)
		}
	}
}

// press sends keys one at a time and settles after each.
func (h *harness) press(keys ...tea.KeyMsg) {
	h.t.Helper()
	for _, k := range keys {
		next, cmd := h.m.Update(k)
		h.m = next.(appModel)
		h.drive(cmd)
	}
}

// pressOnly sends one key without running the resulting commands.
func (h *harness) pressOnly(k tea.KeyMsg) tea.Cmd {
	next, cmd := h.m.Update(k)
	h.m = next.(appModel)
	return cmd
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.press(runes(string(r)))
	}
}

func (h *harness) notice() string {
	n, _ := h.notices.Current()
	return n.Message
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func seedTwo(b *remotetest.Backend) {
	b.Seed(
		map[string]any{"task_id": "1", "order_id": "A-1", "operation": "Cut", "workcenter": "WC1", "status": "Queue", "priority": "P1"},
		map[string]any{"task_id": "2", "order_id": "B-2", "operation": "Weld", "workcenter": "WC2", "status": "Queue", "priority": "P2", "due_date": "2024-01-01"},
	)
}

func TestInit_LoadsBoard(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	out := h.m.View()
	assert.Contains(t, out, "A-1 · Cut")
	assert.Contains(t, out, "B-2 · Weld")
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "1 overdue")
}

func TestInit_NeedsConfigShowsHint(t *testing.T) {
	h := newHarness(t, nil)
	h.m.ctrl = board.New(board.Config{Backend: remote.New(remote.StaticSource{}), Notifier: h.notices})
	h.start()

	out := h.m.View()
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, board.HintNeedsConfig)
}

func TestDrag_OptimisticThenCommitted(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(keySpace, keyRight, keyRight)
	require.Equal(t, "1", h.m.ctrl.DraggingID())
	call := h.pressOnly(keyEnter)

	// Moved locally before the request runs.
	task, _ := h.m.ctrl.Task("1")
	assert.Equal(t, model.StatusInProgress, task.Status)
	assert.True(t, h.m.snapshot().IsBusy("1"))
	assert.Empty(t, h.m.ctrl.DraggingID())

	h.drive(call)
	row, _ := h.backend.Task("1")
	assert.Equal(t, "Делаем", row["status"])
	assert.Equal(t, "Status: Очередь → Делаем", h.notice())
	assert.Equal(t, 2, h.m.col)
	sel, _ := h.m.selectedTask(h.m.snapshot())
	assert.Equal(t, "1", sel.TaskID)
}

func TestDrag_FailureRollsBack(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()
	h.backend.FailAPI("upsert", "")

	h.press(keySpace, keyRight, keyEnter)

	task, _ := h.m.ctrl.Task("1")
	assert.Equal(t, model.StatusQueue, task.Status)
	assert.Equal(t, "Could not update status", h.notice())
	assert.Equal(t, 1, h.backend.CallCount("tasks"), "no reload after a failed write")
}

func TestDrag_EscCancels(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(keySpace, keyRight, keyEsc)
	assert.Empty(t, h.m.ctrl.DraggingID())
	assert.Equal(t, 0, h.backend.CallCount("upsert"))
}

func TestForm_ValidationKeepsDialogOpen(t *testing.T) {
	h := newHarness(t, nil)
	h.start()

	h.press(runes("n"))
	require.Equal(t, overlayForm, h.m.overlay)
	h.press(keyCtrlS)

	assert.Equal(t, overlayForm, h.m.overlay)
	assert.Equal(t, "Required: order_id, operation, workcenter", h.notice())
	assert.Equal(t, 0, h.backend.CallCount("upsert"))
}

func TestForm_CreateClosesOnCommit(t *testing.T) {
	h := newHarness(t, nil)
	h.start()

	h.press(runes("n"))
	h.typeText("A-9")
	h.press(keyTab, keyTab)
	h.typeText("Drill")
	h.press(keyTab)
	h.typeText("WC3")
	h.press(keyTab, keyRight) // status → Готово к запуску
	h.press(keyCtrlS)

	assert.Equal(t, overlayNone, h.m.overlay)
	assert.Equal(t, "Saved", h.notice())
	row, ok := h.backend.Task("101")
	require.True(t, ok)
	assert.Equal(t, "A-9", row["order_id"])
	assert.Equal(t, "Готово к запуску", row["status"])
	assert.Contains(t, h.m.View(), "A-9 · Drill")
}

func TestForm_EditPrefills(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(keyEnter)
	require.Equal(t, overlayForm, h.m.overlay)
	f := h.m.form.Form()
	assert.Equal(t, "1", f.TaskID)
	assert.Equal(t, "A-1", f.OrderID)
	assert.Equal(t, "P1", f.Priority)

	h.press(keyEsc)
	assert.Equal(t, overlayNone, h.m.overlay)
	assert.Equal(t, 0, h.backend.CallCount("upsert"))
}

func TestArchive_ConfirmThenModeSwitch(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(runes("a"))
	require.Equal(t, overlayConfirm, h.m.overlay)
	h.press(runes("n"))
	assert.Equal(t, overlayNone, h.m.overlay)
	assert.Equal(t, 0, h.backend.CallCount("archive"))

	h.press(runes("a"), runes("y"))
	assert.Equal(t, "Archived", h.notice())
	_, ok := h.backend.Archived("1")
	require.True(t, ok)

	h.press(keyTab)
	v := h.m.snapshot()
	assert.Equal(t, model.ModeArchive, v.Mode)
	require.Len(t, v.Archive, 1)
	assert.Equal(t, "1", v.Archive[0].TaskID)
	require.NotEmpty(t, h.saved)
	assert.Equal(t, model.ModeArchive, h.saved[len(h.saved)-1].Mode)
}

func TestDelete_RequiresTypedOrderID(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(runes("D"))
	require.Equal(t, overlayConfirm, h.m.overlay)
	require.Equal(t, mutate.ConfirmDestructive, h.m.confirm.prompt.Level)

	h.press(runes("y"), keyEnter)
	assert.Equal(t, overlayConfirm, h.m.overlay, "wrong text keeps the prompt open")
	assert.Equal(t, 0, h.backend.CallCount("delete"))

	h.m.confirm.input.SetValue("")
	h.typeText("A-1")
	h.press(keyEnter)
	assert.Equal(t, overlayNone, h.m.overlay)
	assert.Equal(t, "Deleted", h.notice())
	_, ok := h.backend.Task("1")
	assert.False(t, ok)
}

func TestSearch_FiltersAndEscClears(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(runes("/"))
	h.typeText("weld")
	assert.Len(t, h.m.snapshot().Visible(), 1)

	h.press(keyEsc)
	assert.Len(t, h.m.snapshot().Visible(), 2)
	assert.Equal(t, "", h.m.ctrl.Criteria().Text)
}

func TestFacetCycle(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(runes("w"))
	assert.Equal(t, "WC1", h.m.ctrl.Criteria().Workcenter)
	h.press(runes("w"))
	assert.Equal(t, "WC2", h.m.ctrl.Criteria().Workcenter)
	h.press(runes("w"))
	assert.Equal(t, "", h.m.ctrl.Criteria().Workcenter)
}

func TestRestoredStateApplies(t *testing.T) {
	h := newHarness(t, &store.TUIState{Version: 1, Mode: model.ModeArchive, Criteria: view.Criteria{Text: "x"}})
	h.backend.SeedArchive(map[string]any{"task_id": "9", "order_id": "x-9"})
	h.start()

	v := h.m.snapshot()
	assert.Equal(t, model.ModeArchive, v.Mode)
	assert.Len(t, v.Archive, 1)
	assert.Equal(t, 1, h.backend.CallCount("archive_tasks"))
	assert.Equal(t, 0, h.backend.CallCount("tasks"))
}

func TestNoticeExpires(t *testing.T) {
	h := newHarness(t, nil)
	h.notices.Notify(mutate.Notice{Level: mutate.LevelInfo, Message: "hello"})
	_, seq := h.notices.Current()

	next, _ := h.m.Update(flashDoneMsg{seq: seq - 1})
	h.m = next.(appModel)
	assert.Equal(t, "hello", h.notice())

	next, _ = h.m.Update(flashDoneMsg{seq: seq})
	h.m = next.(appModel)
	assert.Equal(t, "", h.notice())
}

func TestConfigChangeReloads(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	loads := 0
	h.m.opts.ReloadSettings = func(context.Context) (bool, error) { loads++; return true, nil }
	h.start()
	before := h.backend.CallCount("tasks")

	next, cmd := h.m.Update(configChangedMsg{})
	h.m = next.(appModel)
	h.drive(cmd)
	assert.Equal(t, 1, loads)
	assert.Equal(t, before+1, h.backend.CallCount("tasks"))
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t, nil)
	h.start()
	h.press(runes("?"))
	assert.Equal(t, overlayHelp, h.m.overlay)
	assert.True(t, strings.Contains(h.m.View(), "Keys"))
	h.press(keyEsc)
	assert.Equal(t, overlayNone, h.m.overlay)
}

func TestSelectionMovesWithinColumn(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	sel, _ := h.m.selectedTask(h.m.snapshot())
	assert.Equal(t, "1", sel.TaskID)
	h.press(keyDown)
	sel, _ = h.m.selectedTask(h.m.snapshot())
	assert.Equal(t, "2", sel.TaskID)
	h.press(keyDown)
	sel, _ = h.m.selectedTask(h.m.snapshot())
	assert.Equal(t, "2", sel.TaskID)
}

func TestCopyOrderID(t *testing.T) {
	var copied []string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	h := newHarness(t, nil)
	seedTwo(h.backend)
	h.start()

	h.press(runes("y"))
	assert.Equal(t, []string{"A-1"}, copied)
	assert.Equal(t, "Copied A-1", h.notice())
}

func TestConfigChangeWithoutNewSettingsSettles(t *testing.T) {
	h := newHarness(t, nil)
	seedTwo(h.backend)
	watch := make(chan struct{})
	close(watch)
	h.m.opts.Watch = watch
	loads := 0
	h.m.opts.ReloadSettings = func(context.Context) (bool, error) { loads++; return false, nil }
	h.start()
	before := h.backend.CallCount("tasks")

	next, cmd := h.m.Update(configChangedMsg{})
	h.m = next.(appModel)
	h.drive(cmd)
	assert.Equal(t, 1, loads)
	assert.Equal(t, before, h.backend.CallCount("tasks"))
	assert.Equal(t, board.ConnOK, h.m.ctrl.Conn())
}
