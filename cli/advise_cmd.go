package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdviseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advise",
		Short: "Suggest additions to acquire, upgrade, claim, or protect",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.load()
			if err != nil {
				return err
			}
			a, err := app.assess(cmd.Context(), ws)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), app.formatter().FormatSuggestions(a.Suggestions))
			return nil
		},
	}
}
