package sqlite_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/factory"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/staffing"
	"github.com/warp/addition-engine/store/sqlite"
	"github.com/warp/addition-engine/verification"
)

var june = generic.NewYearMonth(2025, time.June)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newMock(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewWithDB(sqlx.NewDb(db, "sqlite3")), mock
}

func strPtr(s string) *string { return &s }

// =============================================================================
// SQLITE
// =============================================================================

func TestFacility_SaveAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	hours := decimal.RequireFromString("37.5")

	// GIVEN: A saved facility
	p := facility.Profile{
		ID:                  "f1",
		Name:                "ひまわり",
		ServiceType:         facility.ServiceAfterSchool,
		RegionGrade:         3,
		Capacity:            10,
		BaseUnits:           604,
		StandardWeeklyHours: &hours,
		HeldAdditions:       []string{"welfare_professional_1"},
		CareerPathLevel:     5,
	}
	require.NoError(t, store.SaveFacility(ctx, p))

	// WHEN: Reading it back
	got, err := store.GetFacility(ctx, "f1")
	require.NoError(t, err)

	// THEN: Every field survives
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.ServiceType, got.ServiceType)
	assert.Equal(t, 604, got.BaseUnits)
	require.NotNil(t, got.StandardWeeklyHours)
	assert.True(t, got.StandardWeeklyHours.Equal(hours))
	assert.Equal(t, []string{"welfare_professional_1"}, got.HeldAdditions)

	// AND: Saving again updates in place
	p.Name = "ひまわり第二"
	p.StandardWeeklyHours = nil
	require.NoError(t, store.SaveFacility(ctx, p))
	all, err := store.ListFacilities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ひまわり第二", all[0].Name)
	assert.Nil(t, all[0].StandardWeeklyHours)
}

func TestFacility_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetFacility(context.Background(), "missing")
	assert.ErrorIs(t, err, generic.ErrFacilityNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestStaffRecords_PerFacility(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveStaff(ctx, "f1", staffing.RawStaffRecord{
		ID: "s2", WorkStyle: staffing.ParttimeDedicated, ContractedWeeklyHours: decimal.RequireFromString("22.5"),
		QualificationCodes: []string{"nursery_teacher"}, YearsOfExperience: 3, PersonnelType: staffing.PersonnelAddition,
	}))
	require.NoError(t, store.SaveStaff(ctx, "f1", staffing.RawStaffRecord{
		ID: "s1", WorkStyle: staffing.FulltimeDedicated, ContractedWeeklyHours: decimal.NewFromInt(40),
		PersonnelType: staffing.PersonnelStandard,
	}))
	require.NoError(t, store.SaveStaff(ctx, "f2", staffing.RawStaffRecord{
		ID: "s9", WorkStyle: staffing.FulltimeDedicated, ContractedWeeklyHours: decimal.NewFromInt(40),
		PersonnelType: staffing.PersonnelStandard,
	}))

	got, err := store.StaffRecords(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, generic.StaffID("s1"), got[0].ID)
	assert.Empty(t, got[0].QualificationCodes)
	assert.True(t, got[1].ContractedWeeklyHours.Equal(decimal.RequireFromString("22.5")))
	assert.Equal(t, []string{"nursery_teacher"}, got[1].QualificationCodes)
}

func TestUsageRecords_MonthRange(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	records := []verification.UsageRecord{
		{ID: "u1", ChildID: "c1", Date: generic.NewTimePoint(2025, time.May, 31), BillingTarget: verification.BillingTargetBill},
		{ID: "u2", ChildID: "c1", Date: generic.NewTimePoint(2025, time.June, 1), BillingTarget: verification.BillingTargetBill,
			ActualStartTime: strPtr("14:00"), ActualEndTime: strPtr("17:00")},
		{ID: "u3", ChildID: "c1", Date: generic.NewTimePoint(2025, time.June, 30), BillingTarget: "請求しない"},
		{ID: "u4", ChildID: "c1", Date: generic.NewTimePoint(2025, time.July, 1), BillingTarget: verification.BillingTargetBill},
	}
	for _, r := range records {
		require.NoError(t, store.SaveUsage(ctx, "f1", r))
	}

	got, err := store.UsageRecords(ctx, "f1", june)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u2", got[0].ID)
	assert.True(t, got[0].HasTimes())
	assert.Equal(t, "u3", got[1].ID)
	assert.Nil(t, got[1].ActualStartTime)
	assert.False(t, got[1].IsBillable())
}

func TestBillingRecords_ByMonth(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBilling(ctx, "f1", verification.BillingRecord{
		ID: "b1", ChildID: "c1", YearMonth: june, IncomeCategory: verification.IncomeGeneral1,
		TotalCost: 98_000, CopayAmount: 4_600,
	}))
	require.NoError(t, store.SaveBilling(ctx, "f1", verification.BillingRecord{
		ID: "b2", ChildID: "c1", YearMonth: june.Previous(), IncomeCategory: verification.IncomeGeneral1,
		TotalCost: 50_000, CopayAmount: 4_600,
	}))

	got, err := store.BillingRecords(ctx, "f1", june)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.Yen(98_000), got[0].TotalCost)
	assert.Equal(t, june, got[0].YearMonth)
}

func TestVerificationRuns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	started := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)

	// GIVEN: A running verification
	run := verification.Run{
		ID: "run-1", FacilityID: "f1", YearMonth: june,
		Status: verification.RunRunning, StartedAt: &started, CreatedAt: started,
	}
	require.NoError(t, store.SaveVerificationRun(ctx, run))

	done, err := store.IsVerificationComplete(ctx, "f1", june)
	require.NoError(t, err)
	assert.False(t, done)

	// WHEN: It completes
	completed := started.Add(time.Minute)
	run.Status = verification.RunCompleted
	run.Errors = 2
	run.BlocksSubmission = true
	run.CompletedAt = &completed
	require.NoError(t, store.SaveVerificationRun(ctx, run))

	// THEN: The month is complete and there is still one row
	done, err = store.IsVerificationComplete(ctx, "f1", june)
	require.NoError(t, err)
	assert.True(t, done)

	runs, err := store.ListVerificationRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Errors)
	assert.True(t, runs[0].BlocksSubmission)
	require.NotNil(t, runs[0].CompletedAt)
	assert.True(t, runs[0].CompletedAt.Equal(completed))

	failed, err := store.ListVerificationRuns(ctx, verification.RunFailed)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestImportSnapshot_FeedsVerification(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	snap := &factory.Snapshot{
		Profile: facility.Profile{ID: "f1", Name: "ひまわり", ServiceType: facility.ServiceChildDevelopment, RegionGrade: 6},
		Children: []verification.ChildRecord{
			{ID: "c1", BeneficiaryNumber: "0123456789", IncomeCategory: verification.IncomeGeneral1},
		},
		Usage: []verification.UsageRecord{
			{ID: "u1", ChildID: "c1", Date: generic.NewTimePoint(2025, time.June, 2), BillingTarget: verification.BillingTargetBill,
				ActualStartTime: strPtr("14:00"), ActualEndTime: strPtr("17:00")},
		},
		Billing: []verification.BillingRecord{
			{ID: "b1", ChildID: "c1", YearMonth: june, IncomeCategory: verification.IncomeGeneral1, TotalCost: 10_000, CopayAmount: 1_000},
		},
	}
	require.NoError(t, store.ImportSnapshot(ctx, snap))

	report := verification.NewService(store, store).VerifyMonth(ctx, "f1", june)
	require.NoError(t, report.Err())
	assert.Equal(t, 1, report.Usage.TotalBillingDays)
	assert.Equal(t, generic.Yen(1_000), report.UpperLimits.TotalCopay)
	assert.False(t, report.BlocksSubmission())
}

func TestReset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveFacility(ctx, facility.Profile{ID: "f1", Name: "x", ServiceType: facility.ServiceAfterSchool}))

	require.NoError(t, store.Reset(ctx))

	all, err := store.ListFacilities(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := sqlite.Open("oracle", "whatever")
	assert.Error(t, err)
}

// =============================================================================
// SQLMOCK
// =============================================================================

func TestUsageRecords_ScansNullTimes(t *testing.T) {
	store, mock := newMock(t)

	rows := sqlmock.NewRows([]string{
		"id", "child_id", "service_date", "billing_target", "actual_start_time", "actual_end_time",
	}).AddRow("u1", "c1", "2025-06-02", verification.BillingTargetBill, "14:00", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM usage_records`)).
		WithArgs("f1", "2025-06-01", "2025-06-30").
		WillReturnRows(rows)

	got, err := store.UsageRecords(context.Background(), "f1", june)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].ActualStartTime)
	assert.Equal(t, "14:00", *got[0].ActualStartTime)
	assert.Nil(t, got[0].ActualEndTime)
	assert.False(t, got[0].HasTimes())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRecords_BadDateIsInvalidRecord(t *testing.T) {
	store, mock := newMock(t)

	rows := sqlmock.NewRows([]string{
		"id", "child_id", "service_date", "billing_target", "actual_start_time", "actual_end_time",
	}).AddRow("u1", "c1", "June 2nd", verification.BillingTargetBill, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM usage_records`)).WillReturnRows(rows)

	_, err := store.UsageRecords(context.Background(), "f1", june)
	var recErr *generic.InvalidRecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "service_date", recErr.Field)
}

func TestService_FailsClosedOnDatabaseError(t *testing.T) {
	store, mock := newMock(t)

	// GIVEN: The usage query fails and billing loads fine
	mock.ExpectQuery(regexp.QuoteMeta(`FROM usage_records`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM billing_records`)).
		WithArgs("f1", "2025-06").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "child_id", "year_month", "income_category", "total_cost", "copay_amount",
		}).AddRow("b1", "c1", "2025-06", "general_1", 10_000, 1_000))

	// WHEN: Verifying the month
	report := verification.NewService(store, store).VerifyMonth(context.Background(), "f1", june)

	// THEN: Usage is unavailable and submission is blocked
	assert.ErrorIs(t, report.Err(), generic.ErrSourceUnavailable)
	assert.True(t, report.BlocksSubmission())
	assert.Len(t, report.Usage.Validations.ByCode(verification.CodeVerificationUnavailable), 1)
	assert.Zero(t, report.Usage.TotalUsageDays)

	// AND: The billing check still ran
	assert.Nil(t, report.UpperLimits.Unavailable)
	assert.Equal(t, generic.Yen(1_000), report.UpperLimits.TotalCopay)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveVerificationRun_Error(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO verification_runs`)).
		WillReturnError(errors.New("disk full"))

	err := store.SaveVerificationRun(context.Background(), verification.Run{ID: "r1", FacilityID: "f1", YearMonth: june})
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
