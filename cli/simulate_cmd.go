package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/addition-engine/revenue"
)

func newSimulateCmd(app *App) *cobra.Command {
	var children int
	var days float64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate monthly revenue with the additions the facility qualifies for",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.load()
			if err != nil {
				return err
			}

			// Flags override the snapshot's census.
			p := ws.snapshot.Profile
			census := ws.snapshot.Census
			if census == nil {
				census = &revenue.Census{RegionGrade: p.RegionGrade, BaseUnits: p.BaseUnits}
			}
			if cmd.Flags().Changed("children") {
				census.ChildCount = children
			}
			if cmd.Flags().Changed("days") {
				census.AvgUsageDays = decimal.NewFromFloat(days)
			}
			if census.ChildCount <= 0 || !census.AvgUsageDays.IsPositive() {
				return fmt.Errorf("no census: add one to the snapshot or pass --children and --days")
			}
			ws.snapshot.Census = census

			a, err := app.assess(cmd.Context(), ws)
			if err != nil {
				return err
			}
			f := app.formatter()
			out := cmd.OutOrStdout()
			fmt.Fprint(out, f.FormatSimulation(*a.Simulation))
			fmt.Fprintf(out, "\nAdditions: %d units/day, %s%%\n", a.Additions.Units, a.Additions.Percent.String())
			for _, c := range a.Additions.Codes {
				fmt.Fprintf(out, "  %s\n", c)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&children, "children", 0, "number of enrolled children (overrides the snapshot census)")
	cmd.Flags().Float64Var(&days, "days", 0, "average usage days per child per month (overrides the snapshot census)")
	return cmd
}
