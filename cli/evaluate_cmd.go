package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEvaluateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Judge every addition against the snapshot's staff roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.load()
			if err != nil {
				return err
			}
			a, err := app.assess(cmd.Context(), ws)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), app.formatter().FormatAssessment(ws.snapshot.Profile, a))
			return nil
		},
	}
}
