package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"ctboard/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the task API endpoint",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetURLCmd(app))
	cmd.AddCommand(newConfigSetTokenCmd(app))
	cmd.AddCommand(newConfigClearCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective endpoint (token masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, sessionOptions{})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			return writeOut(cmd, app, configReport(s.settings, s.profile))
		},
	}
}

func newConfigSetURLCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-url <url>",
		Short: "Save the task API URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(args[0])
			if err := validateAPIURL(raw); err != nil {
				return writeErr(cmd, err)
			}
			return setSetting(cmd, app, store.KeyAPIURL, raw)
		},
	}
}

func newConfigSetTokenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-token [token]",
		Short: "Save the access token (no argument clears it)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = strings.TrimSpace(args[0])
			}
			return setSetting(cmd, app, store.KeyAPIToken, token)
		},
	}
}

func newConfigClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved URL and token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, sessionOptions{})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			if err := s.settings.Clear(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, configReport(s.settings, s.profile))
		},
	}
}

func setSetting(cmd *cobra.Command, app *App, key, value string) error {
	s, err := openSession(cmd, app, sessionOptions{})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()
	if err := s.settings.Set(cmd.Context(), key, value); err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, configReport(s.settings, s.profile))
}

func validateAPIURL(raw string) error {
	if raw == "" {
		return errors.New("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}

func maskToken(tok string) string {
	if tok == "" {
		return ""
	}
	r := []rune(tok)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

func configReport(s *store.Settings, p *store.Profile) configView {
	ep := s.Endpoint()
	return configView{
		Path:          s.Path(),
		APIURL:        ep.URL,
		Token:         maskToken(ep.Token),
		Configured:    ep.Configured(),
		URLOverridden: s.Overridden(store.KeyAPIURL),
		Locale:        p.Locale,
	}
}
