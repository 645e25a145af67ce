package mutate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ctboard/internal/model"
	"ctboard/internal/remote"
	"ctboard/internal/store"
)

// Backend is the slice of the remote client the engine writes through.
type Backend interface {
	Upsert(ctx context.Context, t model.Task) (model.Task, error)
	Archive(ctx context.Context, taskID string) error
	Restore(ctx context.Context, taskID string) error
	Remove(ctx context.Context, taskID string, from model.Origin) error
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseApplying
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseApplying:
		return "applying"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

type Notice struct {
	Level   Level
	Message string
	OpID    string
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// newTaskKey marks an in-flight create; only one may run at a time.
const newTaskKey = "(new)"

// Op is one mutation between Begin and Finish. Call is the only method
// that may run off the owner goroutine.
type Op struct {
	ID     string
	Intent Intent

	phase     Phase
	key       string
	snapshot  *model.Task
	tentative model.Status
	payload   model.Task
	origin    model.Origin

	backend Backend
	result  model.Task
}

func (o *Op) Phase() Phase { return o.phase }

// TaskID is the task the op targets; empty for a create.
func (o *Op) TaskID() string {
	if o.key == newTaskKey {
		return ""
	}
	return o.key
}

// Call performs the single remote round trip. It touches no board state.
func (o *Op) Call(ctx context.Context) error {
	ctx = remote.WithRequestID(ctx, o.ID)
	switch in := o.Intent.(type) {
	case DropOnColumn, SaveTask:
		t, err := o.backend.Upsert(ctx, o.payload)
		if err != nil {
			return err
		}
		o.result = t
		return nil
	case ArchiveTask:
		return o.backend.Archive(ctx, in.TaskID)
	case RestoreTask:
		return o.backend.Restore(ctx, in.TaskID)
	case DeleteTask:
		return o.backend.Remove(ctx, in.TaskID, o.origin)
	default:
		return fmt.Errorf("unknown intent %T", o.Intent)
	}
}

// Outcome tells the presenter what to do after Finish.
type Outcome struct {
	Phase Phase
	Err   error
	// Reload is set after a commit; the board is authoritative only after
	// the following reload.
	Reload bool
	// CloseForm is set when a save committed.
	CloseForm bool
	// Noop means Begin found nothing to do.
	Noop bool
	// Task is the row the backend returned for an upsert.
	Task model.Task
	// ReloadErr is the reload failure, when Dispatch ran one.
	ReloadErr error
}

type Config struct {
	Board      *store.Board
	Backend    Backend
	Normalizer *model.Normalizer
	Notifier   Notifier
	Logger     logrus.FieldLogger
	// Reload runs after a committed Dispatch.
	Reload func(ctx context.Context) error
}

// Engine applies intents to a board it borrows from its owner. It is not
// safe for concurrent use; only Op.Call may leave the owner goroutine.
type Engine struct {
	board    *store.Board
	backend  Backend
	norm     *model.Normalizer
	notify   Notifier
	log      logrus.FieldLogger
	reload   func(ctx context.Context) error
	inflight map[string]string
}

func New(cfg Config) *Engine {
	e := &Engine{
		board:    cfg.Board,
		backend:  cfg.Backend,
		norm:     cfg.Normalizer,
		notify:   cfg.Notifier,
		log:      cfg.Logger,
		reload:   cfg.Reload,
		inflight: map[string]string{},
	}
	if e.board == nil {
		e.board = store.NewBoard()
	}
	if e.norm == nil {
		e.norm = model.NewNormalizer(nil)
	}
	if e.notify == nil {
		e.notify = NotifierFunc(func(Notice) {})
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	return e
}

// SetReload replaces the function Dispatch runs after a commit.
func (e *Engine) SetReload(fn func(ctx context.Context) error) { e.reload = fn }

// Busy reports whether a mutation on taskID is in flight. An empty id asks
// about creates.
func (e *Engine) Busy(taskID string) bool {
	if taskID == "" {
		taskID = newTaskKey
	}
	_, ok := e.inflight[taskID]
	return ok
}

// InFlight counts mutations between Begin and Finish.
func (e *Engine) InFlight() int { return len(e.inflight) }

func (e *Engine) emit(level Level, msg, opID string) {
	e.notify.Notify(Notice{Level: level, Message: msg, OpID: opID})
}

// Begin validates intent and applies its tentative local change. A nil op
// with a nil error means there is nothing to do.
func (e *Engine) Begin(intent Intent) (*Op, error) {
	if intent == nil {
		return nil, errors.New("nil intent")
	}
	if given(intent) < Required(intent) {
		return nil, ErrNotConfirmed
	}
	op := &Op{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Intent:  intent,
		backend: e.backend,
	}

	switch in := intent.(type) {
	case DropOnColumn:
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		t := e.board.FindTask(in.TaskID)
		if t == nil {
			return nil, NotFoundError{Kind: "task", ID: in.TaskID}
		}
		if t.Status == in.Status {
			return nil, nil
		}
		op.key = in.TaskID
		if err := e.claim(op); err != nil {
			return nil, err
		}
		snap := *t
		op.snapshot = &snap
		op.tentative = in.Status
		t.Status = in.Status
		op.payload = *t

	case SaveTask:
		f := in.Form.Trimmed()
		if err := f.Validate(); err != nil {
			e.emit(LevelError, validationMessage(err), op.ID)
			return nil, err
		}
		op.key = f.TaskID
		if op.key == "" {
			op.key = newTaskKey
		}
		if err := e.claim(op); err != nil {
			return nil, err
		}
		op.payload = f.Task(e.norm)

	case ArchiveTask:
		if err := e.claimID(op, in.TaskID); err != nil {
			return nil, err
		}
	case RestoreTask:
		if err := e.claimID(op, in.TaskID); err != nil {
			return nil, err
		}
	case DeleteTask:
		op.origin = in.Origin
		if op.origin == "" {
			op.origin = e.board.Mode.Origin()
		}
		if !op.origin.Valid() {
			return nil, fmt.Errorf("delete: unknown origin %q", op.origin)
		}
		if err := e.claimID(op, in.TaskID); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown intent %T", intent)
	}

	op.phase = PhaseApplying
	e.log.WithFields(logrus.Fields{
		"op_id":   op.ID,
		"kind":    intent.Kind(),
		"task_id": op.TaskID(),
	}).Debug("mutation.begin")
	return op, nil
}

func (e *Engine) claimID(op *Op, id string) error {
	if id == "" {
		return ErrUnsaved
	}
	op.key = id
	return e.claim(op)
}

func (e *Engine) claim(op *Op) error {
	if _, busy := e.inflight[op.key]; busy {
		e.emit(LevelWarn, "Still saving the previous change", op.ID)
		return ErrBusy
	}
	e.inflight[op.key] = op.ID
	return nil
}

// Finish reconciles op with the result of its Call.
func (e *Engine) Finish(op *Op, callErr error) Outcome {
	if op == nil {
		return Outcome{Phase: PhaseIdle, Noop: true}
	}
	if e.inflight[op.key] == op.ID {
		delete(e.inflight, op.key)
	}
	fields := logrus.Fields{
		"op_id":   op.ID,
		"kind":    op.Intent.Kind(),
		"task_id": op.TaskID(),
	}

	if callErr == nil {
		op.phase = PhaseCommitted
		e.log.WithFields(fields).Info("mutation.commit")
		e.emit(LevelSuccess, e.successMessage(op), op.ID)
		_, isSave := op.Intent.(SaveTask)
		return Outcome{Phase: PhaseCommitted, Reload: true, CloseForm: isSave, Task: op.result}
	}

	op.phase = PhaseRolledBack
	restored := false
	if op.snapshot != nil {
		// A reload that landed meanwhile already carries the backend's
		// truth; only undo our own tentative value.
		if cur := e.board.FindTask(op.snapshot.TaskID); cur != nil && cur.Status == op.tentative {
			restored = e.board.RestoreTask(*op.snapshot)
		}
	}
	fields["error"] = callErr.Error()
	fields["restored"] = restored
	e.log.WithFields(fields).Warn("mutation.rollback")
	e.emit(LevelError, failureMessage(op, callErr), op.ID)
	return Outcome{Phase: PhaseRolledBack, Err: callErr}
}

// Dispatch runs Begin, Call and Finish in turn and reloads after a commit.
// It blocks on the network; presenters with an event loop use Begin/Finish.
func (e *Engine) Dispatch(ctx context.Context, intent Intent) (Outcome, error) {
	op, err := e.Begin(intent)
	if err != nil {
		return Outcome{Phase: PhaseIdle, Err: err}, err
	}
	if op == nil {
		return Outcome{Phase: PhaseIdle, Noop: true}, nil
	}
	out := e.Finish(op, op.Call(ctx))
	if out.Reload && e.reload != nil {
		out.ReloadErr = e.reload(ctx)
	}
	return out, out.Err
}

func (e *Engine) successMessage(op *Op) string {
	switch in := op.Intent.(type) {
	case DropOnColumn:
		vocab := e.norm.Vocabulary()
		return fmt.Sprintf("Status: %s → %s", vocab.Label(op.snapshot.Status), vocab.Label(in.Status))
	case SaveTask:
		return "Saved"
	case ArchiveTask:
		return "Archived"
	case RestoreTask:
		return "Returned to the board"
	case DeleteTask:
		return "Deleted"
	default:
		return "Done"
	}
}

func failureMessage(op *Op, err error) string {
	if errors.Is(err, remote.ErrConfigMissing) {
		return "Configure the API first"
	}
	if msg, ok := remote.APIMessage(err); ok {
		return msg
	}
	switch op.Intent.(type) {
	case DropOnColumn:
		return "Could not update status"
	case SaveTask:
		return "Could not save (check API/access)"
	case ArchiveTask:
		return "Could not archive"
	case RestoreTask:
		return "Could not restore"
	case DeleteTask:
		return "Could not delete"
	default:
		return "Request failed"
	}
}

func validationMessage(err error) string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	if len(ve.Fields) > 0 {
		return "Required: " + strings.Join(ve.Fields, ", ")
	}
	return ve.Error()
}
