package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ctboard/internal/format"
	"ctboard/internal/model"
	"ctboard/internal/mutate"
	"ctboard/internal/view"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and change tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksSaveCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksArchiveCmd(app))
	cmd.AddCommand(newTasksRestoreCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var archive bool
	var crit view.Criteria

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, sessionOptions{})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			if err := s.load(cmd.Context(), modeFor(archive)); err != nil {
				return writeErr(cmd, err)
			}
			s.ctrl.SetCriteria(crit)
			v := s.ctrl.Snapshot()
			return writeOut(cmd, app, format.Envelope{Data: taskList{
				Mode:   v.Mode,
				Tasks:  v.Visible(),
				Stats:  v.Stats,
				labels: s.norm.Vocabulary().Label,
				width:  s.profile.NoteLimit(),
			}})
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "List the archive instead of the board")
	cmd.Flags().StringVar(&crit.Text, "q", "", "Search order, item, operation, workcenter, assignee and note")
	cmd.Flags().StringVar(&crit.Workcenter, "workcenter", "", "Only this workcenter (exact)")
	cmd.Flags().StringVar(&crit.Assignee, "assignee", "", "Only this assignee (exact)")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, sessionOptions{})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			if err := s.load(cmd.Context(), modeFor(archive)); err != nil {
				return writeErr(cmd, err)
			}
			t, ok := s.ctrl.Task(strings.TrimSpace(args[0]))
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, format.Envelope{Data: taskDetail{Task: t, labels: s.norm.Vocabulary().Label}})
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "Look in the archive")
	return cmd
}

func newTasksSaveCmd(app *App) *cobra.Command {
	var f mutate.Form

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create a task, or edit one with --task-id",
		Long: strings.TrimSpace(`
Without --task-id a new task is created; order, operation and workcenter are
required. With --task-id only the flags you pass change; the rest keeps the
current values.`),
		Example: strings.TrimSpace(`
  ctboard tasks save --order-id A-17 --operation Milling --workcenter WC1 --priority P1
  ctboard tasks save --task-id 42 --done 30 --note "second shift"`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, sessionOptions{})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			form := mutate.NewForm()
			id := strings.TrimSpace(f.TaskID)
			if id != "" {
				if err := s.load(cmd.Context(), model.ModeBoard); err != nil {
					return writeErr(cmd, err)
				}
				t, ok := s.ctrl.Task(id)
				if !ok {
					return writeErr(cmd, errNotFound("task", id))
				}
				form = mutate.FormFromTask(t)
			}
			applyFormFlags(cmd, &form, f)

			if cmd.Flags().Changed("status") {
				st, ok := s.norm.Vocabulary().Parse(f.Status)
				if !ok {
					return writeErr(cmd, fmt.Errorf("%w: %q", mutate.ErrInvalidStatus, f.Status))
				}
				form.Status = string(st)
			}
			if cmd.Flags().Changed("priority") {
				p := model.Priority(strings.ToUpper(strings.TrimSpace(f.Priority)))
				if !p.Valid() {
					return writeErr(cmd, fmt.Errorf("invalid priority: %q (want P1, P2 or P3)", f.Priority))
				}
				form.Priority = string(p)
			}

			out, err := s.ctrl.Save(cmd.Context(), form)
			if err != nil {
				return writeErr(cmd, withNotice(s.lastNotice(), err))
			}
			saved := out.Task
			if saved.TaskID != "" {
				if t, ok := s.ctrl.Task(saved.TaskID); ok {
					saved = t
				}
			}
			return writeOut(cmd, app, format.Envelope{Data: taskDetail{
				Task:   saved,
				Notice: s.lastNotice(),
				labels: s.norm.Vocabulary().Label,
			}})
		},
	}

	cmd.Flags().StringVar(&f.TaskID, "task-id", "", "Task to edit (omit to create)")
	cmd.Flags().StringVar(&f.OrderID, "order-id", "", "Production order")
	cmd.Flags().StringVar(&f.Item, "item", "", "Item / part")
	cmd.Flags().StringVar(&f.Operation, "operation", "", "Operation")
	cmd.Flags().StringVar(&f.Workcenter, "workcenter", "", "Workcenter")
	cmd.Flags().StringVar(&f.Status, "status", "", "Status (code or label)")
	cmd.Flags().StringVar(&f.Assignee, "assignee", "", "Assignee")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "Priority: P1, P2 or P3")
	cmd.Flags().StringVar(&f.DueDate, "due", "", "Due date (yyyy-mm-dd, empty clears)")
	cmd.Flags().StringVar(&f.PlannedMin, "planned", "", "Planned minutes")
	cmd.Flags().StringVar(&f.DoneMin, "done", "", "Minutes done")
	cmd.Flags().StringVar(&f.Note, "note", "", "Note")
	return cmd
}

// applyFormFlags copies the flags the user actually passed onto form.
func applyFormFlags(cmd *cobra.Command, form *mutate.Form, f mutate.Form) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("order-id", &form.OrderID, f.OrderID)
	set("item", &form.Item, f.Item)
	set("operation", &form.Operation, f.Operation)
	set("workcenter", &form.Workcenter, f.Workcenter)
	set("assignee", &form.Assignee, f.Assignee)
	set("due", &form.DueDate, f.DueDate)
	set("planned", &form.PlannedMin, f.PlannedMin)
	set("done", &form.DoneMin, f.DoneMin)
	set("note", &form.Note, f.Note)
}

func newTasksMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Change a task's status (board only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, sessionOptions{})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			st, ok := s.norm.Vocabulary().Parse(args[1])
			if !ok {
				return writeErr(cmd, fmt.Errorf("%w: %q", mutate.ErrInvalidStatus, args[1]))
			}
			if err := s.load(cmd.Context(), model.ModeBoard); err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			out, err := s.ctrl.Move(cmd.Context(), id, st)
			if err != nil {
				var nf mutate.NotFoundError
				if errors.As(err, &nf) {
					return writeErr(cmd, errNotFound(nf.Kind, nf.ID))
				}
				return writeErr(cmd, withNotice(s.lastNotice(), err))
			}
			t, _ := s.ctrl.Task(id)
			notice := s.lastNotice()
			if out.Noop {
				notice = "Already " + s.norm.Vocabulary().Label(st)
			}
			return writeOut(cmd, app, format.Envelope{Data: taskDetail{Task: t, Notice: notice, labels: s.norm.Vocabulary().Label}})
		},
	}
}

func newTasksArchiveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "archive <task-id>",
		Short: "Move a task to the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return runConfirmed(cmd, app, model.ModeBoard, mutate.ArchiveTask{TaskID: id, Confirm: confirmIf(yes)})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	return cmd
}

func newTasksRestoreCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <task-id>",
		Short: "Return an archived task to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return runConfirmed(cmd, app, model.ModeArchive, mutate.RestoreTask{TaskID: id, Confirm: confirmIf(yes)})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	var archive bool
	var yes bool
	var confirmID string

	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task permanently",
		Long: strings.TrimSpace(`
Deletion cannot be undone. Pass --yes and repeat the task's order id with
--confirm-id (the task id when the order is empty).`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := modeFor(archive)
			intent := mutate.DeleteTask{
				TaskID: strings.TrimSpace(args[0]),
				Origin: mode.Origin(),
			}
			return runConfirmedWith(cmd, app, mode, intent, func(p mutate.Prompt) mutate.Intent {
				if yes && strings.TrimSpace(confirmID) == p.Expect {
					intent.Confirm = mutate.ConfirmDestructive
				}
				return intent
			})
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "Delete from the archive")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	cmd.Flags().StringVar(&confirmID, "confirm-id", "", "Order id of the task, typed back")
	return cmd
}

func confirmIf(yes bool) mutate.Confirmation {
	if yes {
		return mutate.ConfirmStandard
	}
	return mutate.ConfirmNone
}

func runConfirmed(cmd *cobra.Command, app *App, mode model.Mode, intent mutate.Intent) error {
	return runConfirmedWith(cmd, app, mode, intent, func(mutate.Prompt) mutate.Intent { return intent })
}

// runConfirmedWith loads mode so the prompt can name the task, lets confirm
// decide the final intent, then dispatches it.
func runConfirmedWith(cmd *cobra.Command, app *App, mode model.Mode, intent mutate.Intent, confirm func(mutate.Prompt) mutate.Intent) error {
	s, err := openSession(cmd, app, sessionOptions{})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()
	if err := s.load(cmd.Context(), mode); err != nil {
		return writeErr(cmd, err)
	}

	prompt := s.ctrl.Prompt(intent)
	op, err := s.ctrl.Begin(confirm(prompt))
	if errors.Is(err, mutate.ErrNotConfirmed) {
		msg := prompt.Body + " Pass --yes to confirm."
		if prompt.Level == mutate.ConfirmDestructive {
			msg = fmt.Sprintf("%s Pass --yes --confirm-id %s to confirm.", prompt.Body, prompt.Expect)
		}
		return writeErr(cmd, fmt.Errorf("%w: %s", err, msg))
	}
	if err != nil {
		return writeErr(cmd, withNotice(s.lastNotice(), err))
	}
	out := s.ctrl.Finish(op, op.Call(cmd.Context()))
	if out.Err != nil {
		return writeErr(cmd, withNotice(s.lastNotice(), out.Err))
	}
	notice := s.lastNotice()
	if rerr := s.ctrl.Reload(cmd.Context()); rerr != nil {
		s.log.WithError(rerr).Warn("tasks.reload_after_write")
	}
	return writeOut(cmd, app, format.Envelope{Data: mutationResult{
		Action: intent.Kind(),
		TaskID: op.TaskID(),
		Notice: notice,
	}})
}
