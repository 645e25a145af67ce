package board

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctboard/internal/model"
	"ctboard/internal/mutate"
	"ctboard/internal/remote"
	"ctboard/internal/remote/remotetest"
	"ctboard/internal/view"
)

type fixture struct {
	backend *remotetest.Backend
	ctrl    *Controller
	notices []mutate.Notice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{backend: remotetest.New()}
	t.Cleanup(f.backend.Close)
	client := remote.New(remote.StaticSource{URL: f.backend.URL(), Token: "t"})
	f.ctrl = New(Config{
		Backend:  client,
		Notifier: mutate.NotifierFunc(func(n mutate.Notice) { f.notices = append(f.notices, n) }),
		Now:      func() time.Time { return time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC) },
	})
	return f
}

func columnIDs(v View, st model.Status) []string {
	var out []string
	for _, t := range v.Column(st).Tasks {
		out = append(out, t.TaskID)
	}
	return out
}

func TestReload_PriorityWinsOverDueDate(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(
		map[string]any{"task_id": "1", "order_id": "A", "priority": "P1", "due_date": "2024-01-10", "status": "Queue"},
		map[string]any{"task_id": "2", "order_id": "B", "priority": "P2", "due_date": "2024-01-05", "status": "Queue"},
	)
	require.NoError(t, f.ctrl.Reload(context.Background()))

	v := f.ctrl.Snapshot()
	assert.Equal(t, "ok", v.Conn)
	assert.Equal(t, []string{"1", "2"}, columnIDs(v, model.StatusQueue))
	assert.Equal(t, view.Stats{Count: 2, Overdue: 1}, v.Stats)
}

func TestReload_NeedsConfigSkipsNetwork(t *testing.T) {
	ctrl := New(Config{Backend: remote.New(remote.StaticSource{})})
	err := ctrl.Reload(context.Background())
	require.ErrorIs(t, err, remote.ErrConfigMissing)
	v := ctrl.Snapshot()
	assert.Equal(t, "needs_config", v.Conn)
	assert.Equal(t, HintNeedsConfig, v.Hint)
	assert.Empty(t, v.Visible())
}

func TestReload_TransportErrorRendersEmptyBoard(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A"})
	require.NoError(t, f.ctrl.Reload(context.Background()))

	f.backend.FailHTTP("tasks", http.StatusServiceUnavailable)
	err := f.ctrl.Reload(context.Background())
	require.True(t, remote.IsTransport(err))

	v := f.ctrl.Snapshot()
	assert.Equal(t, "error", v.Conn)
	assert.Equal(t, HintLoadFailed, v.Hint)
	assert.Empty(t, v.Visible())
	_, kept := f.ctrl.Task("1")
	assert.True(t, kept, "previous collection stays in memory")

	require.NoError(t, f.ctrl.Reload(context.Background()))
	assert.Len(t, f.ctrl.Snapshot().Visible(), 1)
}

func TestSave_EmptyOrderIDDoesNotCallRemote(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A", "operation": "op", "workcenter": "W"})
	require.NoError(t, f.ctrl.Reload(context.Background()))
	before := f.ctrl.Snapshot()
	calls := f.backend.CallCount("")

	form := mutate.NewForm()
	form.Operation, form.Workcenter = "cut", "WC1"
	_, err := f.ctrl.Save(context.Background(), form)

	var ve *mutate.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, calls, f.backend.CallCount(""))
	assert.Equal(t, before, f.ctrl.Snapshot())
}

func TestArchiveThenModeSwitch(t *testing.T) {
	f := newFixture(t)
	clock := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	f.backend.SetClock(func() time.Time { return clock })
	f.backend.Seed(
		map[string]any{"task_id": "1", "order_id": "A"},
		map[string]any{"task_id": "2", "order_id": "B"},
	)
	f.backend.SeedArchive(map[string]any{"task_id": "0", "order_id": "Z", "updated_at": "2024-01-01T00:00:00Z"})
	ctx := context.Background()
	require.NoError(t, f.ctrl.Reload(ctx))

	out, err := f.ctrl.Archive(ctx, "1", mutate.ConfirmStandard)
	require.NoError(t, err)
	require.NoError(t, out.ReloadErr)
	for _, task := range f.ctrl.Snapshot().Visible() {
		assert.NotEqual(t, "1", task.TaskID)
	}

	require.NoError(t, f.ctrl.ToggleMode(ctx))
	v := f.ctrl.Snapshot()
	require.Equal(t, model.ModeArchive, v.Mode)
	require.Len(t, v.Archive, 2)
	assert.Equal(t, "1", v.Archive[0].TaskID, "most recently archived first")
	assert.Equal(t, "0", v.Archive[1].TaskID)
	assert.Equal(t, view.Stats{Count: 2}, v.Stats)
}

func TestDrop_OptimisticThenAuthoritative(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A", "status": "Очередь"})
	ctx := context.Background()
	require.NoError(t, f.ctrl.Reload(ctx))

	require.True(t, f.ctrl.StartDrag("1"))
	op, err := f.ctrl.BeginDrop(model.StatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Empty(t, f.ctrl.DraggingID())
	v := f.ctrl.Snapshot()
	assert.Equal(t, []string{"1"}, columnIDs(v, model.StatusInProgress))
	assert.True(t, v.IsBusy("1"))

	out := f.ctrl.Finish(op, op.Call(ctx))
	require.True(t, out.Reload)
	require.NoError(t, f.ctrl.Reload(ctx))
	row, _ := f.backend.Task("1")
	assert.Equal(t, "Делаем", row["status"])
	assert.Equal(t, []string{"1"}, columnIDs(f.ctrl.Snapshot(), model.StatusInProgress))
}

func TestDrop_FailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A", "status": "Queue"})
	ctx := context.Background()
	require.NoError(t, f.ctrl.Reload(ctx))

	f.backend.FailAPI("upsert", "")
	f.ctrl.StartDrag("1")
	_, err := f.ctrl.Drop(ctx, model.StatusDone)
	var ae *remote.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []string{"1"}, columnIDs(f.ctrl.Snapshot(), model.StatusQueue))
	assert.Equal(t, 1, f.backend.CallCount("tasks"), "rollback must not reload")
	require.NotEmpty(t, f.notices)
	assert.Equal(t, "Could not update status", f.notices[len(f.notices)-1].Message)
}

func TestDrop_EndsDragEvenOnNoop(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A"})
	require.NoError(t, f.ctrl.Reload(context.Background()))
	f.ctrl.StartDrag("1")
	out, err := f.ctrl.Drop(context.Background(), model.StatusQueue)
	require.NoError(t, err)
	assert.True(t, out.Noop)
	assert.Empty(t, f.ctrl.DraggingID())
}

func TestApplyFetch_DropsResultForOtherMode(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A"})
	require.NoError(t, f.ctrl.Reload(context.Background()))

	raws, err := f.ctrl.Fetch(context.Background(), model.ModeBoard)
	require.NoError(t, err)
	f.ctrl.SetMode(model.ModeArchive)
	require.NoError(t, f.ctrl.ApplyFetch(model.ModeBoard, raws, nil))
	assert.Empty(t, f.ctrl.Snapshot().Archive)
}

func TestCriteria_ReconciledAgainstFacets(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(
		map[string]any{"task_id": "1", "order_id": "A", "workcenter": "WC1", "assignee": "Иван"},
		map[string]any{"task_id": "2", "order_id": "B", "workcenter": "WC2"},
	)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Reload(ctx))
	f.ctrl.SetCriteria(view.Criteria{Workcenter: "WC2", Assignee: "Иван"})
	assert.Empty(t, f.ctrl.Snapshot().Visible())

	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A", "workcenter": "WC1", "assignee": "Пётр"})
	require.NoError(t, f.ctrl.Reload(ctx))
	got := f.ctrl.Criteria()
	assert.Equal(t, "WC2", got.Workcenter)
	assert.Empty(t, got.Assignee)
	assert.Len(t, f.ctrl.Snapshot().Visible(), 1)
}

func TestSnapshot_IsDetached(t *testing.T) {
	f := newFixture(t)
	f.backend.Seed(map[string]any{"task_id": "1", "order_id": "A"})
	require.NoError(t, f.ctrl.Reload(context.Background()))
	v := f.ctrl.Snapshot()
	v.Columns[0].Tasks[0].OrderID = "mutated"
	v.Workcenters = append(v.Workcenters, "x")
	task, _ := f.ctrl.Task("1")
	assert.Equal(t, "A", task.OrderID)
}

func TestMove_RefusedInArchive(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(model.ModeArchive)
	_, err := f.ctrl.Move(context.Background(), "1", model.StatusDone)
	assert.True(t, errors.Is(err, ErrArchiveMove))
}
