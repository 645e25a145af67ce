package model

import "strings"

// StatusDef describes how one status is labeled on screen and written to the
// backend. Aliases are extra spellings accepted when reading.
type StatusDef struct {
	Status  Status
	Label   string
	Wire    string
	Aliases []string
}

// DefaultStatusDefs reproduces the labels used by the production sheet. The
// sheet stores the labels themselves in the status cell, so they double as
// wire values.
func DefaultStatusDefs() []StatusDef {
	return []StatusDef{
		{Status: StatusQueue, Label: "Очередь", Wire: "Очередь"},
		{Status: StatusReadyToStart, Label: "Готово к запуску", Wire: "Готово к запуску"},
		{Status: StatusInProgress, Label: "Делаем", Wire: "Делаем"},
		{Status: StatusBlocked, Label: "На стопе", Wire: "На стопе"},
		{Status: StatusDone, Label: "Готово", Wire: "Готово"},
	}
}

// Vocabulary resolves status spellings in both directions.
type Vocabulary struct {
	defs   map[Status]StatusDef
	lookup map[string]Status
}

// NewVocabulary builds a vocabulary from defs. Statuses missing from defs
// fall back to the defaults; empty labels and wire values fall back to the
// canonical code.
func NewVocabulary(defs []StatusDef) *Vocabulary {
	v := &Vocabulary{
		defs:   map[Status]StatusDef{},
		lookup: map[string]Status{},
	}
	for _, d := range DefaultStatusDefs() {
		v.defs[d.Status] = d
	}
	for _, d := range defs {
		if !d.Status.Valid() {
			continue
		}
		base := v.defs[d.Status]
		if strings.TrimSpace(d.Label) != "" {
			base.Label = strings.TrimSpace(d.Label)
		}
		if strings.TrimSpace(d.Wire) != "" {
			base.Wire = strings.TrimSpace(d.Wire)
		}
		base.Aliases = append(append([]string(nil), base.Aliases...), d.Aliases...)
		v.defs[d.Status] = base
	}
	for _, st := range Statuses {
		d := v.defs[st]
		if d.Label == "" {
			d.Label = string(st)
		}
		if d.Wire == "" {
			d.Wire = string(st)
		}
		v.defs[st] = d
		for _, s := range append([]string{string(st), d.Label, d.Wire}, d.Aliases...) {
			k := lookupKey(s)
			if k == "" {
				continue
			}
			if _, taken := v.lookup[k]; !taken {
				v.lookup[k] = st
			}
		}
	}
	return v
}

var defaultVocabulary = NewVocabulary(nil)

func DefaultVocabulary() *Vocabulary { return defaultVocabulary }

func lookupKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parse resolves a code, label, wire value or alias.
func (v *Vocabulary) Parse(s string) (Status, bool) {
	st, ok := v.lookup[lookupKey(s)]
	return st, ok
}

func (v *Vocabulary) Label(s Status) string {
	if d, ok := v.defs[s]; ok {
		return d.Label
	}
	return string(s)
}

func (v *Vocabulary) Wire(s Status) string {
	if d, ok := v.defs[s]; ok {
		return d.Wire
	}
	return string(s)
}

// Defs returns the definitions in column order.
func (v *Vocabulary) Defs() []StatusDef {
	out := make([]StatusDef, 0, len(Statuses))
	for _, st := range Statuses {
		d := v.defs[st]
		d.Aliases = append([]string(nil), d.Aliases...)
		out = append(out, d)
	}
	return out
}
