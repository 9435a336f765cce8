/*
Package cli implements the kasan command line tool.

PURPOSE:
  Runs the engine offline over a facility snapshot file: no server and no
  database. The snapshot is imported into an in-memory store so the same
  Assessor and verification Service used by the HTTP API do the work.

COMMANDS:
  kasan evaluate --snapshot f.json           Eligibility of every addition
  kasan simulate --snapshot f.json           Monthly revenue breakdown
  kasan advise   --snapshot f.json           Ranked suggestions
  kasan verify   --snapshot f.json --month   Usage and upper-limit checks

  verify exits non-zero when an Error-severity finding blocks submission.

SEE ALSO:
  - factory/snapshot.go: Snapshot file format
  - formatter.go: Terminal rendering
*/
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/factory"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/store/memory"
	"github.com/warp/addition-engine/verification"
)

// App holds what every command needs. Color is the default for the
// --no-color flag.
type App struct {
	Snapshots *factory.SnapshotFactory
	Color     bool
	Today     func() generic.TimePoint

	snapshotPath string
	month        string
	noColor      bool
}

func NewApp(color bool) *App {
	return &App{
		Snapshots: factory.NewSnapshotFactory(),
		Color:     color,
		Today:     generic.Today,
	}
}

// NewRootCmd creates the top-level "kasan" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "kasan",
		Short:         "Addition eligibility and billing verification for child-development support facilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.snapshotPath, "snapshot", "", "facility snapshot JSON file")
	root.PersistentFlags().StringVar(&app.month, "month", "", "target month YYYY-MM (default: latest month in the snapshot)")
	root.PersistentFlags().BoolVar(&app.noColor, "no-color", !app.Color, "disable colored output")

	root.AddCommand(
		newEvaluateCmd(app),
		newSimulateCmd(app),
		newAdviseCmd(app),
		newVerifyCmd(app),
	)
	return root
}

// workspace is a snapshot loaded into an in-memory store.
type workspace struct {
	snapshot *factory.Snapshot
	assessor *facility.Assessor
	verifier *verification.Service
}

func (app *App) load() (*workspace, error) {
	if app.snapshotPath == "" {
		return nil, fmt.Errorf("--snapshot is required")
	}
	s, err := app.Snapshots.LoadFile(app.snapshotPath)
	if err != nil {
		return nil, err
	}

	store := memory.New()
	store.Import(s)
	return &workspace{
		snapshot: s,
		assessor: facility.NewAssessor(store),
		verifier: verification.NewService(store, store),
	}, nil
}

func (app *App) assess(ctx context.Context, ws *workspace) (facility.Assessment, error) {
	return ws.assessor.Assess(ctx, ws.snapshot.Profile, ws.snapshot.Census)
}

func (app *App) formatter() Formatter {
	return Formatter{Plain: app.noColor}
}

// targetMonth returns --month if given, otherwise the latest month the
// snapshot has usage or billing for, otherwise the previous month.
func (app *App) targetMonth(s *factory.Snapshot) (generic.YearMonth, error) {
	if app.month != "" {
		ym, err := generic.ParseYearMonth(app.month)
		if err != nil {
			return generic.YearMonth{}, fmt.Errorf("--month: %w", err)
		}
		return ym, nil
	}

	var latest generic.YearMonth
	later := func(ym generic.YearMonth) {
		if latest.IsZero() || ym.Start().After(latest.Start()) {
			latest = ym
		}
	}
	for _, u := range s.Usage {
		later(generic.YearMonthOf(u.Date))
	}
	for _, b := range s.Billing {
		later(b.YearMonth)
	}
	if latest.IsZero() {
		return generic.YearMonthOf(app.Today()).Previous(), nil
	}
	return latest, nil
}
