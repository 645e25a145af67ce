package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"ctboard/internal/model"
	"ctboard/internal/view"
)

// Profile is the optional board.yaml describing how the board reads and
// writes statuses and how it sorts.
type Profile struct {
	Locale    string          `yaml:"locale,omitempty"`
	NoteWidth int             `yaml:"note_width,omitempty"`
	Statuses  []StatusProfile `yaml:"statuses,omitempty"`
}

type StatusProfile struct {
	Status  string   `yaml:"status"`
	Label   string   `yaml:"label,omitempty"`
	Wire    string   `yaml:"wire,omitempty"`
	Aliases []string `yaml:"aliases,omitempty"`
}

func DefaultProfile() *Profile {
	p := &Profile{Locale: view.DefaultLocale, NoteWidth: view.NoteWidth}
	for _, d := range model.DefaultStatusDefs() {
		p.Statuses = append(p.Statuses, StatusProfile{
			Status: string(d.Status),
			Label:  d.Label,
			Wire:   d.Wire,
		})
	}
	return p
}

// LoadProfile returns the defaults when board.yaml does not exist.
func LoadProfile() (*Profile, error) {
	path, err := ProfilePath()
	if err != nil {
		return nil, err
	}
	return LoadProfileFrom(path)
}

func LoadProfileFrom(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultProfile(), nil
		}
		return nil, err
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

func (p *Profile) validate() error {
	seen := map[model.Status]bool{}
	for i, sp := range p.Statuses {
		st := model.Status(strings.TrimSpace(sp.Status))
		if !st.Valid() {
			return fmt.Errorf("statuses[%d]: unknown status %q", i, sp.Status)
		}
		if seen[st] {
			return fmt.Errorf("statuses[%d]: duplicate status %q", i, sp.Status)
		}
		seen[st] = true
	}
	if p.NoteWidth < 0 {
		return fmt.Errorf("note_width must not be negative")
	}
	if strings.TrimSpace(p.Locale) != "" {
		if _, err := language.Parse(p.Locale); err != nil {
			return fmt.Errorf("locale: %w", err)
		}
	}
	return nil
}

func (p *Profile) Vocabulary() *model.Vocabulary {
	defs := make([]model.StatusDef, 0, len(p.Statuses))
	for _, sp := range p.Statuses {
		defs = append(defs, model.StatusDef{
			Status:  model.Status(strings.TrimSpace(sp.Status)),
			Label:   sp.Label,
			Wire:    sp.Wire,
			Aliases: sp.Aliases,
		})
	}
	return model.NewVocabulary(defs)
}

func (p *Profile) LanguageTag() language.Tag { return view.ParseLocale(p.Locale) }

func (p *Profile) NoteLimit() int {
	if p.NoteWidth <= 0 {
		return view.NoteWidth
	}
	return p.NoteWidth
}

// SaveProfile writes board.yaml atomically.
func SaveProfile(p *Profile) error {
	path, err := ProfilePath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "board.yaml.*.tmp", path, b, 0o644)
}
