package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctboard/internal/board"
	"ctboard/internal/logging"
	"ctboard/internal/model"
	"ctboard/internal/mutate"
	"ctboard/internal/remote"
	"ctboard/internal/store"
	"ctboard/internal/view"
)

// session is everything one command invocation needs: settings, profile,
// logger, remote client and a board controller over them.
type session struct {
	settings *store.Settings
	profile  *store.Profile
	norm     *model.Normalizer
	client   *remote.Client
	ctrl     *board.Controller
	log      *logrus.Logger
	closeLog func() error

	notices []mutate.Notice
}

type sessionOptions struct {
	// logFile forces a file sink; the TUI passes its default path.
	logFile  string
	notifier mutate.Notifier
}

func openSession(cmd *cobra.Command, app *App, opts sessionOptions) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logFile := app.LogFile
	if logFile == "" {
		logFile = opts.logFile
	}
	logger, closeLog, err := logging.New(logging.Options{
		Debug: app.Debug,
		File:  logFile,
		Out:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	settings, err := store.OpenSettings(ctx)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	settings.OverrideFromEnv()
	settings.Override(store.KeyAPIURL, app.APIURL)
	settings.Override(store.KeyAPIToken, app.APIToken)

	profile, err := store.LoadProfile()
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	s := &session{
		settings: settings,
		profile:  profile,
		norm:     model.NewNormalizer(profile.Vocabulary()),
		log:      logger,
		closeLog: closeLog,
	}
	s.client = remote.New(settings,
		remote.WithLogger(logger),
		remote.WithNormalizer(s.norm),
	)
	notifier := opts.notifier
	if notifier == nil {
		notifier = mutate.NotifierFunc(func(n mutate.Notice) { s.notices = append(s.notices, n) })
	}
	s.ctrl = board.New(board.Config{
		Backend:    s.client,
		Normalizer: s.norm,
		Sorter:     view.NewSorter(profile.LanguageTag()),
		Notifier:   notifier,
		Logger:     logger,
	})
	return s, nil
}

func (s *session) Close() error {
	if s.closeLog != nil {
		return s.closeLog()
	}
	return nil
}

// lastNotice is the message of the most recent notice, if any.
func (s *session) lastNotice() string {
	if len(s.notices) == 0 {
		return ""
	}
	return s.notices[len(s.notices)-1].Message
}

// load switches to mode and reloads.
func (s *session) load(ctx context.Context, mode model.Mode) error {
	s.ctrl.SetMode(mode)
	if err := s.ctrl.Reload(ctx); err != nil {
		return describeLoadError(err)
	}
	return nil
}

func describeLoadError(err error) error {
	switch {
	case err == nil:
		return nil
	case isConfigMissing(err):
		return fmt.Errorf("%w; run `ctboard config set-url <url>` or pass --api-url", err)
	default:
		return fmt.Errorf("load tasks: %w", err)
	}
}

func modeFor(archive bool) model.Mode {
	if archive {
		return model.ModeArchive
	}
	return model.ModeBoard
}
