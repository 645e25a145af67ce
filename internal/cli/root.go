package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ctboard/internal/format"
	"ctboard/internal/logging"
	"ctboard/internal/store"
)

type App struct {
	APIURL     string
	APIToken   string
	PrettyJSON bool
	Format     string
	Debug      bool
	LogFile    string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "ctboard",
		Short:        "Production task board for the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Point the board at the task API once
  ctboard config set-url https://script.google.com/macros/s/.../exec

  # Start the interactive board
  ctboard

  # Scriptable commands
  ctboard tasks list --workcenter WC1 --format text
  ctboard tasks move 42 InProgress
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive board.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Task API URL for this run (overrides "+store.EnvAPIURL+" and saved settings)")
	cmd.PersistentFlags().StringVar(&app.APIToken, "api-token", "", "Access token for this run (overrides "+store.EnvAPIToken+" and saved settings)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CTBOARD_FORMAT", format.JSON), "Output format (json|edn|text)")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", logging.DebugFromEnv(), "Verbose logging")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("CTBOARD_LOG_FILE", ""), "Log file (default: ~/.ctboard/ctboard.log for the board, stderr for commands)")

	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newFacetsCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
