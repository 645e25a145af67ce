package model

import "strings"

// Normalizer turns raw backend records into Tasks and back. The zero value
// is not usable; build one with NewNormalizer.
type Normalizer struct {
	vocab *Vocabulary
}

func NewNormalizer(vocab *Vocabulary) *Normalizer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Normalizer{vocab: vocab}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize uses the default status vocabulary.
func Normalize(raw RawTask) Task { return defaultNormalizer.Normalize(raw) }

// Encode uses the default status vocabulary.
func Encode(t Task) RawTask { return defaultNormalizer.Encode(t) }

func (n *Normalizer) Vocabulary() *Vocabulary { return n.vocab }

// Normalize never fails: unknown statuses become Queue, unknown priorities
// P2, bad numbers 0.
func (n *Normalizer) Normalize(raw RawTask) Task {
	str := func(k string) string { return coerceString(raw[k]) }
	return Task{
		TaskID:     str("task_id"),
		OrderID:    str("order_id"),
		Item:       str("item"),
		Operation:  str("operation"),
		Workcenter: str("workcenter"),
		Status:     n.ParseStatus(str("status")),
		Assignee:   str("assignee"),
		Priority:   ParsePriority(str("priority")),
		DueDate:    str("due_date"),
		PlannedMin: coerceMinutes(raw["planned_min"]),
		DoneMin:    coerceMinutes(raw["done_min"]),
		Note:       str("note"),
		UpdatedAt:  str("updated_at"),
	}
}

// ParseStatus falls back to Queue.
func (n *Normalizer) ParseStatus(s string) Status {
	if st, ok := n.vocab.Parse(s); ok {
		return st
	}
	return StatusQueue
}

// ParsePriority falls back to P2.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return PriorityP2
}

// Encode produces the wire record sent with an upsert. updated_at is owned
// by the backend and never sent.
func (n *Normalizer) Encode(t Task) RawTask {
	raw := RawTask{
		"order_id":    t.OrderID,
		"item":        t.Item,
		"operation":   t.Operation,
		"workcenter":  t.Workcenter,
		"status":      n.vocab.Wire(t.Status),
		"assignee":    t.Assignee,
		"priority":    string(t.Priority),
		"due_date":    t.DueDate,
		"planned_min": t.PlannedMin,
		"done_min":    t.DoneMin,
		"note":        t.Note,
	}
	if t.TaskID != "" {
		raw["task_id"] = t.TaskID
	}
	return raw
}
