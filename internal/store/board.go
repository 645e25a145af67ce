package store

import "ctboard/internal/model"

// Board is the single in-memory task collection plus the mode feeding it
// and the card being dragged. It holds no locks: one goroutine owns it.
type Board struct {
	Tasks      []model.Task
	Mode       model.Mode
	DraggingID string
}

func NewBoard() *Board {
	return &Board{Mode: model.ModeBoard}
}

// FindTask returns a pointer into Tasks, valid until the next ReplaceTasks.
func (b *Board) FindTask(id string) *model.Task {
	if id == "" {
		return nil
	}
	for i := range b.Tasks {
		if b.Tasks[i].TaskID == id {
			return &b.Tasks[i]
		}
	}
	return nil
}

// ReplaceTasks swaps the collection wholesale. Later rows with an id already
// seen are dropped so persisted ids stay unique.
func (b *Board) ReplaceTasks(tasks []model.Task) {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.TaskID != "" {
			if _, dup := seen[t.TaskID]; dup {
				continue
			}
			seen[t.TaskID] = struct{}{}
		}
		out = append(out, t)
	}
	b.Tasks = out
}

// RestoreTask writes snap back over the task with the same id. It reports
// false when the task is no longer in the collection.
func (b *Board) RestoreTask(snap model.Task) bool {
	t := b.FindTask(snap.TaskID)
	if t == nil {
		return false
	}
	*t = snap
	return true
}

// Clone deep-copies the collection.
func (b *Board) Clone() []model.Task {
	return append([]model.Task(nil), b.Tasks...)
}
