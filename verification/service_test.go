package verification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/verification"
)

type stubUsage struct {
	records    []verification.UsageRecord
	roster     []verification.ChildRecord
	recordsErr error
	rosterErr  error
}

func (s stubUsage) UsageRecords(context.Context, generic.FacilityID, generic.YearMonth) ([]verification.UsageRecord, error) {
	return s.records, s.recordsErr
}

func (s stubUsage) Children(context.Context, generic.FacilityID) ([]verification.ChildRecord, error) {
	return s.roster, s.rosterErr
}

type stubBilling struct {
	records []verification.BillingRecord
	err     error
}

func (s stubBilling) BillingRecords(context.Context, generic.FacilityID, generic.YearMonth) ([]verification.BillingRecord, error) {
	return s.records, s.err
}

func healthyUsage() stubUsage {
	return stubUsage{
		records: []verification.UsageRecord{billed("r1", "c1", 2), billed("r2", "c1", 3)},
		roster:  []verification.ChildRecord{child("c1", verification.IncomeGeneral1)},
	}
}

func TestService_VerifyMonth_Healthy(t *testing.T) {
	svc := verification.NewService(healthyUsage(), stubBilling{
		records: []verification.BillingRecord{bill("b1", "c1", verification.IncomeGeneral1, 20_000, 2_000)},
	})

	report := svc.VerifyMonth(context.Background(), "f1", june)

	require.NoError(t, report.Err())
	assert.Equal(t, 2, report.Usage.TotalBillingDays)
	assert.Equal(t, generic.Yen(2_000), report.UpperLimits.TotalCopay)
	assert.False(t, report.BlocksSubmission())
}

func TestService_RosterFailureIsNotAnEmptyMonth(t *testing.T) {
	// GIVEN: Usage records load but the child roster times out
	usage := healthyUsage()
	usage.rosterErr = errors.New("timeout")
	svc := verification.NewService(usage, stubBilling{})

	// WHEN: Verifying usage
	result := svc.VerifyUsage(context.Background(), "f1", june)

	// THEN: One blocking error, no "no records" info, and nothing counted
	require.Len(t, result.Validations, 1)
	assert.Equal(t, verification.CodeVerificationUnavailable, result.Validations[0].Code)
	assert.Equal(t, generic.SeverityError, result.Validations[0].Severity)
	assert.Contains(t, result.Validations[0].Message, "children")
	assert.Empty(t, result.Validations.ByCode(verification.CodeNoUsageRecords))
	assert.Zero(t, result.TotalBillingDays)

	var se *generic.SourceError
	require.ErrorAs(t, result.Unavailable, &se)
	assert.Equal(t, "children", se.Source)
}

func TestService_BillingFailureBlocks(t *testing.T) {
	svc := verification.NewService(healthyUsage(), stubBilling{err: errors.New("connection refused")})

	report := svc.VerifyMonth(context.Background(), "f1", june)

	assert.Nil(t, report.Usage.Unavailable)
	assert.ErrorIs(t, report.Err(), generic.ErrSourceUnavailable)
	assert.True(t, report.BlocksSubmission())
	assert.Empty(t, report.UpperLimits.Children)
	assert.Len(t, report.Validations().ByCode(verification.CodeVerificationUnavailable), 1)
}

func TestService_MissingSourcesAndCancelledContext(t *testing.T) {
	report := verification.NewService(nil, nil).VerifyMonth(context.Background(), "f1", june)
	assert.Len(t, report.Validations().ByCode(verification.CodeVerificationUnavailable), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report = verification.NewService(healthyUsage(), stubBilling{}).VerifyMonth(ctx, "f1", june)
	assert.ErrorIs(t, report.Err(), context.Canceled)
	assert.True(t, report.BlocksSubmission())
}

func TestRun_Finish(t *testing.T) {
	at := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	// GIVEN: A month with a zero-copay violation
	svc := verification.NewService(healthyUsage(), stubBilling{
		records: []verification.BillingRecord{bill("b1", "c1", verification.IncomeWelfare, 20_000, 500)},
	})
	run := verification.Run{ID: "r", FacilityID: "f1", YearMonth: june, Status: verification.RunRunning}

	// WHEN: Finishing the run with the report
	run.Finish(svc.VerifyMonth(context.Background(), "f1", june), at)

	// THEN: The run completed but blocks submission
	assert.Equal(t, verification.RunCompleted, run.Status)
	assert.True(t, run.BlocksSubmission)
	assert.GreaterOrEqual(t, run.Errors, 1)
	require.NotNil(t, run.CompletedAt)

	// AND: A source failure marks it failed
	failing := verification.NewService(stubUsage{recordsErr: errors.New("down")}, stubBilling{})
	run.Finish(failing.VerifyMonth(context.Background(), "f1", june), at)
	assert.Equal(t, verification.RunFailed, run.Status)
	assert.Contains(t, run.Error, "down")
}
