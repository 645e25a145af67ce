package mutate

import (
	"fmt"

	"ctboard/internal/model"
)

// Intent is a user gesture the engine knows how to apply.
type Intent interface {
	Kind() string
	isIntent()
}

// DropOnColumn moves a card to another status column.
type DropOnColumn struct {
	TaskID string
	Status model.Status
}

// SaveTask creates (empty TaskID) or edits a task from the form.
type SaveTask struct {
	Form Form
}

type ArchiveTask struct {
	TaskID  string
	Confirm Confirmation
}

type RestoreTask struct {
	TaskID  string
	Confirm Confirmation
}

// DeleteTask removes a task for good. An empty Origin means the collection
// currently on the board.
type DeleteTask struct {
	TaskID  string
	Origin  model.Origin
	Confirm Confirmation
}

func (DropOnColumn) Kind() string { return "move" }
func (SaveTask) Kind() string     { return "save" }
func (ArchiveTask) Kind() string  { return "archive" }
func (RestoreTask) Kind() string  { return "restore" }
func (DeleteTask) Kind() string   { return "delete" }

func (DropOnColumn) isIntent() {}
func (SaveTask) isIntent()     {}
func (ArchiveTask) isIntent()  {}
func (RestoreTask) isIntent()  {}
func (DeleteTask) isIntent()   {}

// Confirmation is how strongly the user agreed to an intent.
type Confirmation int

const (
	ConfirmNone Confirmation = iota
	ConfirmStandard
	// ConfirmDestructive also requires the user to retype the task's order
	// id (or its id when the order is empty).
	ConfirmDestructive
)

func (c Confirmation) String() string {
	switch c {
	case ConfirmStandard:
		return "standard"
	case ConfirmDestructive:
		return "destructive"
	default:
		return "none"
	}
}

// Required reports the confirmation level intent needs before any request.
func Required(intent Intent) Confirmation {
	switch intent.(type) {
	case ArchiveTask, RestoreTask:
		return ConfirmStandard
	case DeleteTask:
		return ConfirmDestructive
	default:
		return ConfirmNone
	}
}

func given(intent Intent) Confirmation {
	switch in := intent.(type) {
	case ArchiveTask:
		return in.Confirm
	case RestoreTask:
		return in.Confirm
	case DeleteTask:
		return in.Confirm
	default:
		return ConfirmNone
	}
}

// Prompt describes the confirmation a presenter must collect.
type Prompt struct {
	Level Confirmation
	Title string
	Body  string
	// Expect is the text a destructive prompt must have typed back.
	Expect string
}

// Prompt builds the question for intent. Intents that need no confirmation
// get a zero Prompt.
func (e *Engine) Prompt(intent Intent) Prompt {
	level := Required(intent)
	if level == ConfirmNone {
		return Prompt{}
	}
	var id string
	switch in := intent.(type) {
	case ArchiveTask:
		id = in.TaskID
	case RestoreTask:
		id = in.TaskID
	case DeleteTask:
		id = in.TaskID
	}
	name := id
	expect := id
	if t := e.board.FindTask(id); t != nil && t.OrderID != "" {
		name = t.OrderID
		if t.Operation != "" {
			name = fmt.Sprintf("%s · %s", t.OrderID, t.Operation)
		}
		expect = t.OrderID
	}
	switch intent.(type) {
	case ArchiveTask:
		return Prompt{Level: level, Title: "Archive task?", Body: fmt.Sprintf("%s will move to the archive.", name)}
	case RestoreTask:
		return Prompt{Level: level, Title: "Restore task?", Body: fmt.Sprintf("%s will return to the board.", name)}
	default:
		return Prompt{
			Level:  level,
			Title:  "Delete task permanently?",
			Body:   fmt.Sprintf("%s will be deleted. This cannot be undone.", name),
			Expect: expect,
		}
	}
}
