// Package tui is the interactive board: five status columns, an archive
// list, a filter bar and modal edit/confirm dialogs, all driven through a
// board.Controller.
package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"ctboard/internal/board"
	"ctboard/internal/store"
	"ctboard/internal/view"
)

const defaultFlash = 2200 * time.Millisecond

type Options struct {
	Controller *board.Controller
	// Notices must be the notifier the controller was built with.
	Notices *NoticeBox
	// ReloadSettings re-reads the endpoint after Watch fires and reports
	// whether the stored values changed.
	ReloadSettings func(ctx context.Context) (bool, error)
	Watch          <-chan struct{}
	State          *store.TUIState
	SaveState      func(*store.TUIState) error
	NoteWidth      int
	Logger         logrus.FieldLogger
	// FlashFor is how long a notice stays in the status bar.
	FlashFor time.Duration
}

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()
	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(appModel); ok {
		fm.persistState()
	}
	return err
}

func (o *Options) withDefaults() {
	if o.Notices == nil {
		o.Notices = &NoticeBox{}
	}
	if o.NoteWidth <= 0 {
		o.NoteWidth = view.NoteWidth
	}
	if o.FlashFor <= 0 {
		o.FlashFor = defaultFlash
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
}
