// Package board owns the task collection and wires gestures to the
// mutation engine and the view derivation.
package board

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"ctboard/internal/model"
	"ctboard/internal/mutate"
	"ctboard/internal/remote"
	"ctboard/internal/store"
	"ctboard/internal/view"
)

// Backend is everything the controller needs from the remote client.
type Backend interface {
	mutate.Backend
	List(ctx context.Context, mode model.Mode) ([]model.RawTask, error)
}

type ConnState int

const (
	ConnNeedsConfig ConnState = iota
	ConnConnecting
	ConnOK
	ConnError
)

func (c ConnState) String() string {
	switch c {
	case ConnConnecting:
		return "connecting"
	case ConnOK:
		return "ok"
	case ConnError:
		return "error"
	default:
		return "needs_config"
	}
}

const (
	HintNeedsConfig = "Configure the API: run `ctboard config set-url <url>`."
	HintLoadFailed  = "Could not load tasks. Check the API URL/access."
)

// ErrArchiveMove rejects status moves while the archive is shown.
var ErrArchiveMove = errors.New("archived tasks cannot change status")

type Config struct {
	Backend    Backend
	Normalizer *model.Normalizer
	Sorter     *view.Sorter
	Notifier   mutate.Notifier
	Logger     logrus.FieldLogger
	// Now defaults to time.Now; tests pin it for overdue counts.
	Now func() time.Time
}

// Controller holds all board state. It is not safe for concurrent use; the
// TUI calls it from Update and the CLI from the command goroutine.
type Controller struct {
	backend Backend
	norm    *model.Normalizer
	sorter  *view.Sorter
	log     logrus.FieldLogger
	now     func() time.Time

	board    *store.Board
	engine   *mutate.Engine
	criteria view.Criteria
	facets   view.Facets
	filtered []model.Task
	conn     ConnState
	hint     string
	loaded   bool
}

func New(cfg Config) *Controller {
	c := &Controller{
		backend: cfg.Backend,
		norm:    cfg.Normalizer,
		sorter:  cfg.Sorter,
		log:     cfg.Logger,
		now:     cfg.Now,
		board:   store.NewBoard(),
		conn:    ConnNeedsConfig,
	}
	if c.norm == nil {
		c.norm = model.NewNormalizer(nil)
	}
	if c.sorter == nil {
		c.sorter = view.DefaultSorter()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}
	c.engine = mutate.New(mutate.Config{
		Board:      c.board,
		Backend:    cfg.Backend,
		Normalizer: c.norm,
		Notifier:   cfg.Notifier,
		Logger:     c.log,
		Reload:     c.Reload,
	})
	return c
}

func (c *Controller) Mode() model.Mode { return c.board.Mode }

func (c *Controller) Criteria() view.Criteria { return c.criteria }

func (c *Controller) Conn() ConnState { return c.conn }

func (c *Controller) Engine() *mutate.Engine { return c.engine }

func (c *Controller) Normalizer() *model.Normalizer { return c.norm }

// Task returns a copy of the task with id from the current collection.
func (c *Controller) Task(id string) (model.Task, bool) {
	t := c.board.FindTask(id)
	if t == nil {
		return model.Task{}, false
	}
	return *t, true
}

// Reload fetches the current mode's collection and applies it.
func (c *Controller) Reload(ctx context.Context) error {
	mode := c.board.Mode
	c.MarkConnecting()
	raws, err := c.Fetch(ctx, mode)
	return c.ApplyFetch(mode, raws, err)
}

// MarkConnecting flips the indicator before an asynchronous Fetch.
func (c *Controller) MarkConnecting() { c.conn = ConnConnecting }

// Fetch only talks to the network; it may run off the owner goroutine.
func (c *Controller) Fetch(ctx context.Context, mode model.Mode) ([]model.RawTask, error) {
	if c.backend == nil {
		return nil, remote.ErrConfigMissing
	}
	return c.backend.List(ctx, mode)
}

// ApplyFetch installs a Fetch result. A result for a mode the board has
// since left is dropped.
func (c *Controller) ApplyFetch(mode model.Mode, raws []model.RawTask, err error) error {
	if mode != c.board.Mode {
		c.log.WithFields(logrus.Fields{"mode": mode, "current": c.board.Mode}).Debug("board.reload.stale")
		return nil
	}
	fields := logrus.Fields{"mode": mode}
	switch {
	case errors.Is(err, remote.ErrConfigMissing):
		c.conn = ConnNeedsConfig
		c.hint = HintNeedsConfig
		c.loaded = false
		c.refilter()
		c.log.WithFields(fields).Info("board.reload.needs_config")
		return err
	case err != nil:
		c.conn = ConnError
		c.hint = HintLoadFailed
		c.loaded = false
		c.refilter()
		fields["error"] = err.Error()
		c.log.WithFields(fields).Warn("board.reload")
		return err
	}
	tasks := make([]model.Task, 0, len(raws))
	for _, r := range raws {
		tasks = append(tasks, c.norm.Normalize(r))
	}
	c.board.ReplaceTasks(tasks)
	c.conn = ConnOK
	c.hint = ""
	c.loaded = true
	c.refilter()
	fields["count"] = len(c.board.Tasks)
	c.log.WithFields(fields).Info("board.reload")
	return nil
}

// refilter recomputes facets and the filtered slice. After a failed load
// the previous tasks stay in memory but nothing is shown.
func (c *Controller) refilter() {
	if !c.loaded {
		c.facets = view.Facets{}
		c.filtered = nil
		return
	}
	c.facets = c.sorter.Facets(c.board.Tasks)
	c.criteria = c.criteria.Reconcile(c.facets)
	c.filtered = view.Filter(c.board.Tasks, c.criteria)
}

// SetMode switches collections. The caller reloads (Reload or an async
// Fetch/ApplyFetch pair); until then the board shows nothing stale.
func (c *Controller) SetMode(mode model.Mode) bool {
	if mode != model.ModeArchive {
		mode = model.ModeBoard
	}
	if mode == c.board.Mode {
		return false
	}
	c.board.Mode = mode
	c.board.DraggingID = ""
	c.loaded = false
	c.refilter()
	return true
}

// ToggleMode switches collections and reloads from the matching endpoint.
func (c *Controller) ToggleMode(ctx context.Context) error {
	next := model.ModeArchive
	if c.board.Mode == model.ModeArchive {
		next = model.ModeBoard
	}
	c.SetMode(next)
	return c.Reload(ctx)
}

func (c *Controller) SetCriteria(cr view.Criteria) {
	c.criteria = cr
	if c.loaded {
		c.criteria = c.criteria.Reconcile(c.facets)
	}
	c.refilter()
}

// StartDrag marks id as picked up. Only board-mode tasks can be dragged.
func (c *Controller) StartDrag(id string) bool {
	if c.board.Mode != model.ModeBoard || c.board.FindTask(id) == nil {
		return false
	}
	c.board.DraggingID = id
	return true
}

func (c *Controller) EndDrag() { c.board.DraggingID = "" }

func (c *Controller) DraggingID() string { return c.board.DraggingID }

// BeginDrop starts the optimistic move of the dragged card. The drag ends
// whatever the result.
func (c *Controller) BeginDrop(status model.Status) (*mutate.Op, error) {
	id := c.board.DraggingID
	c.board.DraggingID = ""
	if id == "" {
		return nil, nil
	}
	op, err := c.engine.Begin(mutate.DropOnColumn{TaskID: id, Status: status})
	c.refilter()
	return op, err
}

// Drop is BeginDrop plus the round trip and the follow-up reload.
func (c *Controller) Drop(ctx context.Context, status model.Status) (mutate.Outcome, error) {
	op, err := c.BeginDrop(status)
	if err != nil {
		return mutate.Outcome{Err: err}, err
	}
	if op == nil {
		return mutate.Outcome{Noop: true}, nil
	}
	return c.complete(ctx, op)
}

// Move drops id onto status without a prior StartDrag.
func (c *Controller) Move(ctx context.Context, id string, status model.Status) (mutate.Outcome, error) {
	if c.board.Mode != model.ModeBoard {
		return mutate.Outcome{Err: ErrArchiveMove}, ErrArchiveMove
	}
	return c.dispatch(ctx, mutate.DropOnColumn{TaskID: id, Status: status})
}

func (c *Controller) Save(ctx context.Context, f mutate.Form) (mutate.Outcome, error) {
	return c.dispatch(ctx, mutate.SaveTask{Form: f})
}

func (c *Controller) Archive(ctx context.Context, id string, confirm mutate.Confirmation) (mutate.Outcome, error) {
	return c.dispatch(ctx, mutate.ArchiveTask{TaskID: id, Confirm: confirm})
}

func (c *Controller) Restore(ctx context.Context, id string, confirm mutate.Confirmation) (mutate.Outcome, error) {
	return c.dispatch(ctx, mutate.RestoreTask{TaskID: id, Confirm: confirm})
}

func (c *Controller) Delete(ctx context.Context, id string, origin model.Origin, confirm mutate.Confirmation) (mutate.Outcome, error) {
	return c.dispatch(ctx, mutate.DeleteTask{TaskID: id, Origin: origin, Confirm: confirm})
}

func (c *Controller) dispatch(ctx context.Context, intent mutate.Intent) (mutate.Outcome, error) {
	op, err := c.Begin(intent)
	if err != nil {
		return mutate.Outcome{Err: err}, err
	}
	if op == nil {
		return mutate.Outcome{Noop: true}, nil
	}
	return c.complete(ctx, op)
}

func (c *Controller) complete(ctx context.Context, op *mutate.Op) (mutate.Outcome, error) {
	out := c.Finish(op, op.Call(ctx))
	if out.Reload {
		out.ReloadErr = c.Reload(ctx)
	}
	return out, out.Err
}

// Begin and Finish expose the engine's two-step API to presenters that run
// Op.Call asynchronously.
func (c *Controller) Begin(intent mutate.Intent) (*mutate.Op, error) {
	op, err := c.engine.Begin(intent)
	c.refilter()
	return op, err
}

func (c *Controller) Finish(op *mutate.Op, callErr error) mutate.Outcome {
	out := c.engine.Finish(op, callErr)
	c.refilter()
	return out
}

func (c *Controller) Prompt(intent mutate.Intent) mutate.Prompt { return c.engine.Prompt(intent) }
