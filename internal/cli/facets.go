package cli

import (
	"github.com/spf13/cobra"

	"ctboard/internal/format"
)

func newFacetsCmd(app *App) *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "List the workcenters and assignees present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, sessionOptions{})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			if err := s.load(cmd.Context(), modeFor(archive)); err != nil {
				return writeErr(cmd, err)
			}
			v := s.ctrl.Snapshot()
			return writeOut(cmd, app, format.Envelope{Data: facetsView{
				Mode:        v.Mode,
				Workcenters: v.Workcenters,
				Assignees:   v.Assignees,
			}})
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "Facets of the archive")
	return cmd
}
