package advisor_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/addition-engine/advisor"
	"github.com/warp/addition-engine/eligibility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
	"github.com/warp/addition-engine/staffing"
)

func facets(t *testing.T, raw ...staffing.RawStaffRecord) []staffing.StaffFacet {
	t.Helper()
	f, err := staffing.Normalize(raw)
	require.NoError(t, err)
	return f
}

func addition(id string, style staffing.WorkStyle, hours float64, years int, quals ...string) staffing.RawStaffRecord {
	return staffing.RawStaffRecord{
		ID:                    generic.StaffID(id),
		WorkStyle:             style,
		ContractedWeeklyHours: decimal.NewFromFloat(hours),
		QualificationCodes:    quals,
		YearsOfExperience:     years,
		PersonnelType:         staffing.PersonnelAddition,
	}
}

func find(ss []advisor.Suggestion, kind advisor.Kind, code eligibility.Code) (advisor.Suggestion, bool) {
	for _, s := range ss {
		if s.Kind == kind && s.Code == code {
			return s, true
		}
	}
	return advisor.Suggestion{}, false
}

func TestAdvise_UpgradeToNextTier(t *testing.T) {
	// GIVEN: 1.0 FTE of part-time instructors (tier 4 convert, 107 units), held
	// WHEN: Advising
	// THEN: Suggest tier 3 convert (123 units), the smallest value above 107
	roster := facets(t,
		addition("a", staffing.ParttimeDedicated, 20, 1, "child_instructor"),
		addition("b", staffing.ParttimeDedicated, 20, 2, "child_instructor"),
	)
	js := eligibility.Evaluate(roster, eligibility.NewHeld(string(eligibility.CodeStaffAllocation2Convert)))

	ss := advisor.Advise(js, advisor.Options{})

	up, ok := find(ss, advisor.KindUpgrade, eligibility.CodeStaffAllocation1Convert)
	require.True(t, ok)
	assert.Equal(t, eligibility.CodeStaffAllocation2Convert, up.From)
	assert.True(t, up.Gain.Equal(decimal.NewFromInt(16)))
	assert.Equal(t, advisor.PriorityLow, up.Priority)
	require.Len(t, up.Missing, 1)
	assert.True(t, up.Missing[0].Shortfall().Equal(decimal.NewFromInt(1)))

	_, claim := find(ss, advisor.KindClaim, eligibility.CodeStaffAllocation2Convert)
	assert.False(t, claim, "already held")
}

func TestAdvise_AcquireWhenNothingClaimable(t *testing.T) {
	ss := advisor.Advise(eligibility.Evaluate(nil, nil), advisor.Options{})

	acq, ok := find(ss, advisor.KindAcquire, eligibility.CodeStaffAllocationOther)
	require.True(t, ok, "lowest-valued staff allocation tier")
	assert.True(t, acq.Gain.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, advisor.PriorityMedium, acq.Priority)

	sp, ok := find(ss, advisor.KindAcquire, eligibility.CodeSpecialistSupport)
	require.True(t, ok)
	assert.Equal(t, advisor.PriorityHigh, sp.Priority)
	assert.Contains(t, sp.Message, "1.00 FTE")

	tr, ok := find(ss, advisor.KindAcquire, eligibility.CodeTreatmentImprovement4)
	require.True(t, ok)
	assert.Equal(t, eligibility.ValuePercent, tr.ValueKind)
	assert.Equal(t, advisor.PriorityHigh, tr.Priority) // 9.8 points
}

func TestAdvise_ClaimAndAtRisk(t *testing.T) {
	// GIVEN: An experienced dedicated instructor, and a claim on welfare tier I
	// that the roster no longer supports
	// THEN: claim suggestions for unclaimed eligible rules, at_risk for tier I
	roster := facets(t, addition("a", staffing.FulltimeDedicated, 40, 6, "child_instructor"))
	held := eligibility.NewHeld(string(eligibility.CodeWelfareProfessional1))

	ss := advisor.Advise(eligibility.Evaluate(roster, held), advisor.Options{})

	claim, ok := find(ss, advisor.KindClaim, eligibility.CodeStaffAllocation1Fulltime)
	require.True(t, ok)
	assert.Equal(t, advisor.PriorityHigh, claim.Priority)
	assert.True(t, claim.Gain.Equal(decimal.NewFromInt(187)))

	_, ok = find(ss, advisor.KindClaim, eligibility.CodeSpecialistSupport)
	assert.True(t, ok)

	risk, ok := find(ss, advisor.KindAtRisk, eligibility.CodeWelfareProfessional1)
	require.True(t, ok)
	assert.True(t, risk.Gain.Equal(decimal.NewFromInt(15)))

	// welfare tier III is selected but tier I is held: claim III from I
	w3, ok := find(ss, advisor.KindClaim, eligibility.CodeWelfareProfessional3)
	require.True(t, ok)
	assert.Equal(t, eligibility.CodeWelfareProfessional1, w3.From)
}

func TestAdvise_SortedByPriorityGainCode(t *testing.T) {
	ss := advisor.Advise(eligibility.Evaluate(nil, nil), advisor.Options{})
	require.NotEmpty(t, ss)

	rank := map[advisor.Priority]int{advisor.PriorityHigh: 0, advisor.PriorityMedium: 1, advisor.PriorityLow: 2}
	for i := 1; i < len(ss); i++ {
		prev, cur := ss[i-1], ss[i]
		require.LessOrEqual(t, rank[prev.Priority], rank[cur.Priority])
		if prev.Priority == cur.Priority && prev.Gain.Equal(cur.Gain) {
			assert.Less(t, prev.Code, cur.Code)
		}
	}
}

func TestAdvise_YenEstimatesWithCensus(t *testing.T) {
	census := &revenue.Census{RegionGrade: 7, BaseUnits: 600, ChildCount: 10, AvgUsageDays: decimal.NewFromInt(20)}

	ss := advisor.Advise(eligibility.Evaluate(nil, nil), advisor.Options{Census: census})

	acq, ok := find(ss, advisor.KindAcquire, eligibility.CodeStaffAllocationOther)
	require.True(t, ok)
	require.NotNil(t, acq.EstimatedMonthlyYen)
	// 90 units × 200 days × 10.00
	assert.Equal(t, generic.Yen(180_000), *acq.EstimatedMonthlyYen)
	assert.Equal(t, advisor.PriorityHigh, acq.Priority)

	// Invalid census: no estimates, no failure
	bad := &revenue.Census{RegionGrade: 12}
	for _, s := range advisor.Advise(eligibility.Evaluate(nil, nil), advisor.Options{Census: bad}) {
		assert.Nil(t, s.EstimatedMonthlyYen)
	}
}
