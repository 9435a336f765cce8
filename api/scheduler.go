/*
scheduler.go - Automated monthly verification scheduler

PURPOSE:
  Periodically verifies the previous month of every facility (usage
  records and co-payment upper limits) so problems are visible before the
  billing deadline on the 10th.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Targets the month before the current one
  - Skips facilities whose month already has a completed run
  - Failed runs (a source could not be loaded) are retried on the next tick
  - Records verification runs for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewVerificationScheduler(store, verifier)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: On-demand verification endpoints
  - verification/service.go: Fail-closed verification
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/verification"
)

// RunStore is what the scheduler needs from persistence. Both
// store/sqlite and store/memory implement it.
type RunStore interface {
	ListFacilities(ctx context.Context) ([]facility.Profile, error)
	IsVerificationComplete(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) (bool, error)
	SaveVerificationRun(ctx context.Context, r verification.Run) error
}

// VerificationScheduler handles automated monthly verification.
type VerificationScheduler struct {
	Store         RunStore
	Verifier      *verification.Service
	CheckInterval time.Duration
	Enabled       bool
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewVerificationScheduler creates a new scheduler.
func NewVerificationScheduler(store RunStore, verifier *verification.Service) *VerificationScheduler {
	return &VerificationScheduler{
		Store:         store,
		Verifier:      verifier,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
	}
}

// Start begins the scheduler.
func (vs *VerificationScheduler) Start() {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if !vs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if vs.ticker != nil {
		return
	}

	vs.ticker = time.NewTicker(vs.CheckInterval)
	vs.stop = make(chan bool)
	vs.wg.Add(1)

	go vs.run(vs.ticker, vs.stop)

	log.Printf("[Scheduler] Started with check interval: %v", vs.CheckInterval)
}

// Stop stops the scheduler.
func (vs *VerificationScheduler) Stop() {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.ticker != nil {
		vs.ticker.Stop()
		close(vs.stop)
		vs.wg.Wait()
		vs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (vs *VerificationScheduler) run(ticker *time.Ticker, stop <-chan bool) {
	defer vs.wg.Done()

	// Run immediately on start
	vs.checkAndProcess(context.Background())

	for {
		select {
		case <-ticker.C:
			vs.checkAndProcess(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow triggers an immediate check and returns how many facilities were
// verified.
func (vs *VerificationScheduler) RunNow(ctx context.Context) int {
	return vs.checkAndProcess(ctx)
}

// NextRunTime returns when the next scheduled check will occur.
func (vs *VerificationScheduler) NextRunTime() time.Time {
	return vs.Now().Add(vs.CheckInterval)
}

func (vs *VerificationScheduler) checkAndProcess(ctx context.Context) int {
	now := vs.Now()
	month := generic.YearMonthOf(generic.TimePoint{Time: now}).Previous()

	log.Printf("[Scheduler] Checking verifications for %s at %v", month, now)

	facilities, err := vs.Store.ListFacilities(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing facilities: %v", err)
		return 0
	}

	processed, skipped := 0, 0
	for _, f := range facilities {
		done, err := vs.Store.IsVerificationComplete(ctx, f.ID, month)
		if err != nil {
			log.Printf("[Scheduler] Error checking verification status of %s: %v", f.ID, err)
			continue
		}
		if done {
			skipped++
			continue
		}

		if err := vs.processVerification(ctx, f.ID, month); err != nil {
			log.Printf("[Scheduler] Error verifying %s/%s: %v", f.ID, month, err)
			continue
		}
		processed++
	}

	if processed > 0 || skipped > 0 {
		log.Printf("[Scheduler] Completed: %d verified, %d skipped (already done)", processed, skipped)
	}
	return processed
}

func (vs *VerificationScheduler) processVerification(ctx context.Context, facilityID generic.FacilityID, month generic.YearMonth) error {
	start := vs.Now()
	run := verification.Run{
		ID:         uuid.NewString(),
		FacilityID: facilityID,
		YearMonth:  month,
		Status:     verification.RunRunning,
		StartedAt:  &start,
		CreatedAt:  start,
	}
	if err := vs.Store.SaveVerificationRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}

	report := vs.Verifier.VerifyMonth(ctx, facilityID, month)
	run.Finish(report, vs.Now())

	if err := vs.Store.SaveVerificationRun(ctx, run); err != nil {
		return fmt.Errorf("failed to update run record: %w", err)
	}

	log.Printf("[Scheduler] Verified %s/%s: status=%s errors=%d warnings=%d",
		facilityID, month, run.Status, run.Errors, run.Warnings)

	if run.Status == verification.RunFailed {
		return fmt.Errorf("verification unavailable: %s", run.Error)
	}
	return nil
}
