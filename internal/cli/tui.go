package cli

import (
	"context"

	"github.com/spf13/cobra"

	"ctboard/internal/store"
	"ctboard/internal/tui"
)

func runTUI(cmd *cobra.Command, app *App) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The alt screen owns the terminal; logs go to a file.
	logPath, err := store.LogPath()
	if err != nil {
		return writeErr(cmd, err)
	}
	notices := &tui.NoticeBox{}
	s, err := openSession(cmd, app, sessionOptions{logFile: logPath, notifier: notices})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()

	watch, err := store.WatchConfig(ctx)
	if err != nil {
		s.log.WithError(err).Warn("tui.watch")
		watch = nil
	}
	state, err := store.LoadTUIState()
	if err != nil {
		s.log.WithError(err).Warn("tui.state.load")
		state = nil
	}

	s.log.WithField("settings", s.settings.Path()).Info("tui.start")
	return tui.Run(ctx, tui.Options{
		Controller:     s.ctrl,
		Notices:        notices,
		ReloadSettings: s.settings.Refresh,
		Watch:          watch,
		State:          state,
		SaveState:      store.SaveTUIState,
		NoteWidth:      s.profile.NoteLimit(),
		Logger:         s.log,
	})
}
