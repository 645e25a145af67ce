package model

type Status string

const (
	StatusQueue        Status = "Queue"
	StatusReadyToStart Status = "ReadyToStart"
	StatusInProgress   Status = "InProgress"
	StatusBlocked      Status = "Blocked"
	StatusDone         Status = "Done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{
	StatusQueue,
	StatusReadyToStart,
	StatusInProgress,
	StatusBlocked,
	StatusDone,
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

var Priorities = []Priority{PriorityP1, PriorityP2, PriorityP3}

func (p Priority) Valid() bool {
	return p == PriorityP1 || p == PriorityP2 || p == PriorityP3
}

// Rank orders priorities for the board: P1=1, P2=2, anything else 3.
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	default:
		return 3
	}
}

// Mode selects which backend collection feeds the board.
type Mode string

const (
	ModeBoard   Mode = "board"
	ModeArchive Mode = "archive"
)

func (m Mode) Origin() Origin {
	if m == ModeArchive {
		return OriginArchived
	}
	return OriginActive
}

// Origin names the backend collection a task lives in. The values are the
// `from` field of the delete action.
type Origin string

const (
	OriginActive   Origin = "tasks"
	OriginArchived Origin = "archive"
)

func (o Origin) Valid() bool {
	return o == OriginActive || o == OriginArchived
}

type Task struct {
	TaskID     string   `json:"task_id"`
	OrderID    string   `json:"order_id"`
	Item       string   `json:"item"`
	Operation  string   `json:"operation"`
	Workcenter string   `json:"workcenter"`
	Status     Status   `json:"status"`
	Assignee   string   `json:"assignee"`
	Priority   Priority `json:"priority"`
	DueDate    string   `json:"due_date"` // yyyy-mm-dd, empty = no deadline
	PlannedMin int      `json:"planned_min"`
	DoneMin    int      `json:"done_min"`
	Note       string   `json:"note"`
	UpdatedAt  string   `json:"updated_at"`
}

// Persisted reports whether the backend has assigned an id.
func (t Task) Persisted() bool { return t.TaskID != "" }

// RawTask is an untyped backend record. It must go through a Normalizer
// before use.
type RawTask map[string]any
