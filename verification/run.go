package verification

import (
	"time"

	"github.com/warp/addition-engine/generic"
)

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run records one monthly verification of a facility. A run is completed
// when both checks executed, even if they raised errors; it is failed when
// a source could not be loaded.
type Run struct {
	ID               string
	FacilityID       generic.FacilityID
	YearMonth        generic.YearMonth
	Status           RunStatus
	Errors           int
	Warnings         int
	Infos            int
	BlocksSubmission bool
	Error            string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
}

// Finish copies the outcome of a report into the run.
func (r *Run) Finish(report MonthReport, at time.Time) {
	v := report.Validations()
	r.Errors = v.Count(generic.SeverityError)
	r.Warnings = v.Count(generic.SeverityWarning)
	r.Infos = v.Count(generic.SeverityInfo)
	r.BlocksSubmission = report.BlocksSubmission()
	r.CompletedAt = &at

	if err := report.Err(); err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunCompleted
	r.Error = ""
}
