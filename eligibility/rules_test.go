package eligibility_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/addition-engine/eligibility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/staffing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type member struct {
	style    staffing.WorkStyle
	hours    float64
	years    int
	quals    []string
	standard bool
}

func roster(t *testing.T, members ...member) []staffing.StaffFacet {
	t.Helper()
	raw := make([]staffing.RawStaffRecord, 0, len(members))
	for i, m := range members {
		personnel := staffing.PersonnelAddition
		if m.standard {
			personnel = staffing.PersonnelStandard
		}
		raw = append(raw, staffing.RawStaffRecord{
			ID:                    generic.StaffID(string(rune('a' + i))),
			WorkStyle:             m.style,
			ContractedWeeklyHours: decimal.NewFromFloat(m.hours),
			QualificationCodes:    m.quals,
			YearsOfExperience:     m.years,
			PersonnelType:         personnel,
		})
	}
	facets, err := staffing.Normalize(raw)
	require.NoError(t, err)
	return facets
}

func fulltime(years int, quals ...string) member {
	return member{style: staffing.FulltimeDedicated, hours: 40, years: years, quals: quals}
}

func judgment(t *testing.T, js []eligibility.Judgment, code eligibility.Code) eligibility.Judgment {
	t.Helper()
	j, ok := eligibility.ByCode(js)[code]
	require.True(t, ok, "no judgment for %s", code)
	return j
}

// =============================================================================
// STAFF ALLOCATION
// =============================================================================

func TestEvaluate_OneJudgmentPerRule(t *testing.T) {
	js := eligibility.Evaluate(nil, nil)
	assert.Len(t, js, len(eligibility.Catalog()))
	for _, j := range js {
		assert.False(t, j.IsEligible, "%s eligible on empty roster", j.Code)
		assert.NotEmpty(t, j.Requirements, "%s has no requirement rows", j.Code)
		assert.Equal(t, eligibility.ResolutionNone, j.Resolution)
	}
}

func TestEvaluate_StaffAllocationTiersAreIndependent(t *testing.T) {
	// GIVEN: One experienced dedicated full-time instructor
	// WHEN: Evaluating raw (before resolution)
	// THEN: Every tier that the roster satisfies is eligible on its own
	js := eligibility.Evaluate(roster(t, fulltime(6, "child_instructor")), nil)

	for _, code := range []eligibility.Code{
		eligibility.CodeStaffAllocation1Fulltime,
		eligibility.CodeStaffAllocation2Fulltime,
		eligibility.CodeStaffAllocation1Convert,
		eligibility.CodeStaffAllocation2Convert,
		eligibility.CodeStaffAllocationOther,
	} {
		assert.True(t, judgment(t, js, code).IsEligible, "%s", code)
	}
}

func TestEvaluate_ConvertTierFromPartTimers(t *testing.T) {
	// GIVEN: Two part-time instructors at 0.5 FTE each, one experienced
	js := eligibility.Evaluate(roster(t,
		member{style: staffing.ParttimeDedicated, hours: 20, years: 7, quals: []string{"nursery_teacher"}},
		member{style: staffing.ParttimeDedicated, hours: 20, years: 1, quals: []string{"child_instructor"}},
	), nil)

	assert.False(t, judgment(t, js, eligibility.CodeStaffAllocation1Fulltime).IsEligible)
	assert.False(t, judgment(t, js, eligibility.CodeStaffAllocation2Fulltime).IsEligible)

	exp := judgment(t, js, eligibility.CodeStaffAllocation1Convert)
	assert.False(t, exp.IsEligible)
	assert.True(t, exp.Requirements[0].Shortfall().Equal(decimal.RequireFromString("0.5")))

	assert.True(t, judgment(t, js, eligibility.CodeStaffAllocation2Convert).IsEligible)
}

func TestEvaluate_StandardPersonnelIgnoredForAllocation(t *testing.T) {
	m := fulltime(10, "child_instructor")
	m.standard = true
	js := eligibility.Evaluate(roster(t, m), nil)

	assert.False(t, judgment(t, js, eligibility.CodeStaffAllocationOther).IsEligible)
	assert.False(t, judgment(t, js, eligibility.CodeSpecialistSupport).IsEligible)
}

func TestEvaluate_HeldFlag(t *testing.T) {
	held := eligibility.NewHeld("staff_allocation_2_convert", "not_a_rule")
	js := eligibility.Evaluate(nil, held)

	assert.True(t, judgment(t, js, eligibility.CodeStaffAllocation2Convert).IsCurrentlyHeld)
	assert.False(t, judgment(t, js, eligibility.CodeStaffAllocation1Convert).IsCurrentlyHeld)
}

func TestEvaluate_Idempotent(t *testing.T) {
	// GIVEN: A mixed roster and a held set
	facets := roster(t,
		fulltime(6, "child_instructor"),
		fulltime(2, "social_worker"),
		member{style: staffing.FulltimeConcurrent, hours: 40, years: 12, quals: []string{"physical_therapist"}},
		member{style: staffing.ParttimeDedicated, hours: 20, years: 1, quals: []string{"nursery_teacher"}},
		member{style: staffing.FulltimeDedicated, hours: 40, years: 3, quals: []string{"care_worker"}, standard: true},
	)
	held := eligibility.NewHeld("staff_allocation_1_fulltime", "welfare_professional_2")

	// WHEN: Evaluating twice with identical inputs
	first := eligibility.Evaluate(facets, held)
	second := eligibility.Evaluate(facets, held)

	// THEN: Both outputs are identical
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

// =============================================================================
// SPECIALIST SUPPORT STRUCTURE
// =============================================================================

func TestEvaluate_SpecialistSupport(t *testing.T) {
	// GIVEN: A 0.5 FTE speech therapist and a 0.5 FTE experienced instructor
	js := eligibility.Evaluate(roster(t,
		member{style: staffing.ParttimeDedicated, hours: 20, years: 0, quals: []string{"speech_therapist"}},
		member{style: staffing.ParttimeDedicated, hours: 20, years: 5, quals: []string{"child_instructor"}},
	), nil)

	j := judgment(t, js, eligibility.CodeSpecialistSupport)
	assert.True(t, j.IsEligible)
	assert.Equal(t, eligibility.GroupNone, j.Group)
	assert.Equal(t, 123, j.Value.Units)
}

func TestEvaluate_SpecialistSupport_Shortfall(t *testing.T) {
	js := eligibility.Evaluate(roster(t,
		member{style: staffing.ParttimeDedicated, hours: 16, years: 0, quals: []string{"physical_therapist"}},
	), nil)

	j := judgment(t, js, eligibility.CodeSpecialistSupport)
	require.False(t, j.IsEligible)
	assert.True(t, j.Requirements[0].Shortfall().Equal(decimal.RequireFromString("0.6")))
	assert.Contains(t, j.Reason, "short")
}

// =============================================================================
// WELFARE PROFESSIONAL
// =============================================================================

func TestEvaluate_WelfareTiers(t *testing.T) {
	tests := []struct {
		name      string
		welfare   int // full-time instructors holding a welfare license
		plain     int // full-time instructors without one
		wantTier1 bool
		wantTier2 bool
		wantTier3 bool
	}{
		{"40 percent", 2, 3, true, true, false},
		{"exactly 35 percent", 7, 13, true, true, false},
		{"exactly 25 percent", 1, 3, false, true, false},
		{"20 percent falls to tier III", 1, 4, false, false, true},
		{"no welfare licenses", 0, 3, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ms []member
			for i := 0; i < tt.welfare; i++ {
				ms = append(ms, fulltime(1, "social_worker"))
			}
			for i := 0; i < tt.plain; i++ {
				ms = append(ms, fulltime(1, "nursery_teacher"))
			}
			js := eligibility.Evaluate(roster(t, ms...), nil)

			assert.Equal(t, tt.wantTier1, judgment(t, js, eligibility.CodeWelfareProfessional1).IsEligible)
			assert.Equal(t, tt.wantTier2, judgment(t, js, eligibility.CodeWelfareProfessional2).IsEligible)
			assert.Equal(t, tt.wantTier3, judgment(t, js, eligibility.CodeWelfareProfessional3).IsEligible)
		})
	}
}

func TestEvaluate_WelfareTier3Guard(t *testing.T) {
	// GIVEN: All instructors full-time (ratio 100%) and welfare rate 25%
	// WHEN: Evaluating raw judgments
	// THEN: Tier III is ineligible even before resolution; its guard row fails
	js := eligibility.Evaluate(roster(t,
		fulltime(4, "psychiatric_social_worker"),
		fulltime(4, "child_instructor"),
		fulltime(4, "child_instructor"),
		fulltime(4, "child_instructor"),
	), nil)

	tier3 := judgment(t, js, eligibility.CodeWelfareProfessional3)
	assert.False(t, tier3.IsEligible)
	require.Len(t, tier3.Requirements, 3)
	assert.True(t, tier3.Requirements[0].Met, "full-time ratio")
	assert.False(t, tier3.Requirements[2].Met, "guard")
	assert.Equal(t, eligibility.BoundMaximum, tier3.Requirements[2].Bound)
	assert.True(t, tier3.Requirements[2].Shortfall().IsZero())
}

func TestEvaluate_WelfareTier3ByTenure(t *testing.T) {
	// GIVEN: 2 full-time and 3 part-time instructors (ratio 40%), one full-time with 3 years
	js := eligibility.Evaluate(roster(t,
		fulltime(3, "child_instructor"),
		fulltime(0, "child_instructor"),
		member{style: staffing.ParttimeDedicated, hours: 20, quals: []string{"child_instructor"}},
		member{style: staffing.ParttimeDedicated, hours: 20, quals: []string{"child_instructor"}},
		member{style: staffing.ParttimeDedicated, hours: 20, quals: []string{"child_instructor"}},
	), nil)

	tier3 := judgment(t, js, eligibility.CodeWelfareProfessional3)
	assert.True(t, tier3.IsEligible)
	assert.False(t, tier3.Requirements[0].Met)
	assert.True(t, tier3.Requirements[1].Met)
	assert.Equal(t, "all requirements met", tier3.Reason)
}

// =============================================================================
// TREATMENT IMPROVEMENT
// =============================================================================

func TestEvaluate_TreatmentImprovement(t *testing.T) {
	welfareRoster := roster(t, fulltime(1, "social_worker"), fulltime(1, "child_instructor"))

	t.Run("level 5 with welfare placement", func(t *testing.T) {
		js := eligibility.EvaluateWithConditions(welfareRoster, nil, eligibility.Conditions{CareerPathLevel: 5})
		assert.True(t, judgment(t, js, eligibility.CodeTreatmentImprovement1).IsEligible)

		selected := eligibility.ByCode(eligibility.Selected(eligibility.Resolve(js)))
		got, ok := selected[eligibility.CodeTreatmentImprovement1]
		require.True(t, ok)
		assert.True(t, got.Value.Percent.Equal(decimal.RequireFromString("13.4")))
	})

	t.Run("level 5 without welfare placement", func(t *testing.T) {
		js := eligibility.EvaluateWithConditions(nil, nil, eligibility.Conditions{CareerPathLevel: 5})
		assert.False(t, judgment(t, js, eligibility.CodeTreatmentImprovement1).IsEligible)

		selected := eligibility.ByCode(eligibility.Selected(eligibility.Resolve(js)))
		_, ok := selected[eligibility.CodeTreatmentImprovement2]
		assert.True(t, ok)
	})

	t.Run("level 2", func(t *testing.T) {
		js := eligibility.EvaluateWithConditions(nil, nil, eligibility.Conditions{CareerPathLevel: 2})
		assert.False(t, judgment(t, js, eligibility.CodeTreatmentImprovement3).IsEligible)
		assert.True(t, judgment(t, js, eligibility.CodeTreatmentImprovement4).IsEligible)
	})

	t.Run("no declarations", func(t *testing.T) {
		js := eligibility.Evaluate(welfareRoster, nil)
		for _, code := range []eligibility.Code{
			eligibility.CodeTreatmentImprovement1, eligibility.CodeTreatmentImprovement2,
			eligibility.CodeTreatmentImprovement3, eligibility.CodeTreatmentImprovement4,
		} {
			assert.False(t, judgment(t, js, code).IsEligible, "%s", code)
		}
	})
}
