package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/store/memory"
	"github.com/warp/addition-engine/verification"
)

func newScheduler(t *testing.T, now time.Time) (*VerificationScheduler, *memory.Memory) {
	t.Helper()
	store := memory.New()
	month := generic.YearMonthOf(generic.TimePoint{Time: now}).Previous()
	store.Import(billingIssuesScenario(month))
	store.Import(wellStaffedScenario(month))

	vs := NewVerificationScheduler(store, verification.NewService(store, store))
	vs.Now = func() time.Time { return now }
	return vs, store
}

func TestScheduler_VerifiesPreviousMonthOnce(t *testing.T) {
	// GIVEN: Two facilities with data for June
	now := time.Date(2025, time.July, 3, 9, 0, 0, 0, time.UTC)
	vs, store := newScheduler(t, now)
	ctx := context.Background()

	// WHEN: The scheduler runs twice
	first := vs.RunNow(ctx)
	second := vs.RunNow(ctx)

	// THEN: Both facilities are verified once, for June
	assert.Equal(t, 2, first)
	assert.Equal(t, 0, second)

	runs, err := store.ListVerificationRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, generic.NewYearMonth(2025, time.June), r.YearMonth)
		assert.Equal(t, verification.RunCompleted, r.Status)
		assert.NotEmpty(t, r.ID)
	}

	byFacility := map[generic.FacilityID]verification.Run{}
	for _, r := range runs {
		byFacility[r.FacilityID] = r
	}
	assert.True(t, byFacility["kodama"].BlocksSubmission)
	assert.False(t, byFacility["himawari"].BlocksSubmission)
}

func TestScheduler_FailedRunIsRetried(t *testing.T) {
	now := time.Date(2025, time.July, 3, 9, 0, 0, 0, time.UTC)
	vs, store := newScheduler(t, now)
	ctx := context.Background()

	// GIVEN: The billing source is down
	store.Fail("billing", errors.New("connection refused"))

	// WHEN: The scheduler runs
	assert.Equal(t, 0, vs.RunNow(ctx))

	// THEN: Both runs are recorded as failed
	failed, err := store.ListVerificationRuns(ctx, verification.RunFailed)
	require.NoError(t, err)
	assert.Len(t, failed, 2)
	assert.Contains(t, failed[0].Error, "connection refused")

	// AND: Once the source recovers, the next tick completes them
	store.Fail("billing", nil)
	assert.Equal(t, 2, vs.RunNow(ctx))
	completed, _ := store.ListVerificationRuns(ctx, verification.RunCompleted)
	assert.Len(t, completed, 2)
}

func TestScheduler_StartStop(t *testing.T) {
	vs, _ := newScheduler(t, time.Now())
	vs.CheckInterval = time.Hour

	vs.Start()
	vs.Stop()
	vs.Stop() // idempotent

	disabled, _ := newScheduler(t, time.Now())
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}

func TestScheduler_Restart(t *testing.T) {
	// GIVEN: A scheduler started and stopped in July
	july := time.Date(2025, time.July, 3, 9, 0, 0, 0, time.UTC)
	vs, store := newScheduler(t, july)
	vs.CheckInterval = time.Hour
	vs.Start()
	vs.Stop()

	// WHEN: It is started again a month later
	vs.Now = func() time.Time { return july.AddDate(0, 1, 0) }
	require.NotPanics(t, func() {
		vs.Start()
		vs.Stop()
	})

	// THEN: The second run loop checked July as well
	runs, err := store.ListVerificationRuns(context.Background(), "")
	require.NoError(t, err)
	months := map[generic.YearMonth]int{}
	for _, r := range runs {
		months[r.YearMonth]++
	}
	assert.Equal(t, 2, months[generic.NewYearMonth(2025, time.June)])
	assert.Equal(t, 2, months[generic.NewYearMonth(2025, time.July)])
}
