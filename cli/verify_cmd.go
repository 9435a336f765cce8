package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/addition-engine/generic"
)

// ErrSubmissionBlocked is returned by verify when the month has
// Error-severity findings, so scripts can gate on the exit code.
var ErrSubmissionBlocked = errors.New("submission blocked")

func newVerifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check a month's usage records and co-payment upper limits before billing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.load()
			if err != nil {
				return err
			}
			month, err := app.targetMonth(ws.snapshot)
			if err != nil {
				return err
			}

			report := ws.verifier.VerifyMonth(cmd.Context(), ws.snapshot.Profile.ID, month)
			fmt.Fprint(cmd.OutOrStdout(), app.formatter().FormatReport(report))

			if report.BlocksSubmission() {
				return fmt.Errorf("%w: %d errors", ErrSubmissionBlocked,
					report.Validations().Count(generic.SeverityError))
			}
			return nil
		},
	}
}
