package view

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ctboard/internal/model"
)

// DefaultLocale matches the labels shipped with the default status
// vocabulary.
const DefaultLocale = "ru"

// noDueDate sorts after every real yyyy-mm-dd date.
const noDueDate = "9999-99-99"

// Sorter orders tasks with a locale-aware collator. A collate.Collator is
// not safe for concurrent use, so neither is a Sorter.
type Sorter struct {
	col *collate.Collator
}

func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{col: collate.New(tag)}
}

// ParseLocale falls back to DefaultLocale on an empty or unknown tag.
func ParseLocale(s string) language.Tag {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultLocale
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.MustParse(DefaultLocale)
	}
	return tag
}

func DefaultSorter() *Sorter { return NewSorter(language.MustParse(DefaultLocale)) }

func (s *Sorter) Compare(a, b string) int {
	return s.col.CompareString(a, b)
}

func dueKey(t model.Task) string {
	if strings.TrimSpace(t.DueDate) == "" {
		return noDueDate
	}
	return t.DueDate
}

// SortBoard orders a column: priority, then due date (none last), then
// order id. Stable.
func (s *Sorter) SortBoard(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if d := a.Priority.Rank() - b.Priority.Rank(); d != 0 {
			return d
		}
		if d := strings.Compare(dueKey(a), dueKey(b)); d != 0 {
			return d
		}
		return s.Compare(a.OrderID, b.OrderID)
	})
}

// SortArchive puts the most recently touched first; tasks without
// updated_at go last. Stable.
func (s *Sorter) SortArchive(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		switch {
		case a.UpdatedAt == "" && b.UpdatedAt != "":
			return 1
		case a.UpdatedAt != "" && b.UpdatedAt == "":
			return -1
		}
		if d := strings.Compare(b.UpdatedAt, a.UpdatedAt); d != 0 {
			return d
		}
		return s.Compare(a.OrderID, b.OrderID)
	})
}

// SortStrings sorts in place with the collator.
func (s *Sorter) SortStrings(xs []string) {
	slices.SortStableFunc(xs, s.Compare)
}
