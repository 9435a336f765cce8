package staffing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/staffing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func hours(h float64) decimal.Decimal { return decimal.NewFromFloat(h) }

func staff(id string, style staffing.WorkStyle, weekly float64, years int, quals ...string) staffing.RawStaffRecord {
	return staffing.RawStaffRecord{
		ID:                    generic.StaffID(id),
		WorkStyle:             style,
		ContractedWeeklyHours: hours(weekly),
		QualificationCodes:    quals,
		YearsOfExperience:     years,
		PersonnelType:         staffing.PersonnelAddition,
	}
}

// =============================================================================
// FTE RULES
// =============================================================================

func TestNormalize_FTEByWorkStyle(t *testing.T) {
	// GIVEN: One staff member of each work style
	// WHEN: Normalizing with the default 40h standard
	// THEN: dedicated=1.0, concurrent=0.75, part-time=hours/40

	facets, err := staffing.Normalize([]staffing.RawStaffRecord{
		staff("s1", staffing.FulltimeDedicated, 40, 1),
		staff("s2", staffing.FulltimeConcurrent, 40, 1),
		staff("s3", staffing.ParttimeDedicated, 20, 1),
		staff("s4", staffing.ParttimeConcurrent, 13, 1),
	})
	require.NoError(t, err)
	require.Len(t, facets, 4)

	assert.True(t, facets[0].FTE.Equal(decimal.NewFromInt(1)), "dedicated: %s", facets[0].FTE)
	assert.True(t, facets[1].FTE.Equal(decimal.RequireFromString("0.75")), "concurrent: %s", facets[1].FTE)
	assert.True(t, facets[2].FTE.Equal(decimal.RequireFromString("0.5")), "part-time 20h: %s", facets[2].FTE)
	assert.True(t, facets[3].FTE.Equal(decimal.RequireFromString("0.325")), "part-time 13h: %s", facets[3].FTE)

	assert.True(t, facets[0].IsFulltimeDedicated)
	assert.False(t, facets[1].IsFulltimeDedicated)
}

func TestNormalize_ConcurrentIgnoresContractedHours(t *testing.T) {
	// Concurrent full-time is a flat 0.75 regardless of hours on the contract
	facets, err := staffing.Normalize([]staffing.RawStaffRecord{
		staff("s1", staffing.FulltimeConcurrent, 10, 1),
	})
	require.NoError(t, err)
	assert.True(t, facets[0].FTE.Equal(decimal.RequireFromString("0.75")))
}

func TestNormalize_PartTimeCappedAtOne(t *testing.T) {
	facets, err := staffing.Normalize([]staffing.RawStaffRecord{
		staff("s1", staffing.ParttimeDedicated, 52, 1),
	})
	require.NoError(t, err)
	assert.True(t, facets[0].FTE.Equal(decimal.NewFromInt(1)))
}

func TestNormalize_CustomStandardHours(t *testing.T) {
	// GIVEN: A facility whose full-time week is 32 hours
	n := staffing.WithStandardHours(hours(32))

	facets, err := n.Normalize([]staffing.RawStaffRecord{
		staff("s1", staffing.ParttimeDedicated, 24, 1),
	})
	require.NoError(t, err)
	assert.True(t, facets[0].FTE.Equal(decimal.RequireFromString("0.75")))
}

func TestNormalize_FTEBounds(t *testing.T) {
	// Property: 0 <= fte <= 1 for every normalized facet
	var raw []staffing.RawStaffRecord
	styles := []staffing.WorkStyle{
		staffing.FulltimeDedicated, staffing.FulltimeConcurrent,
		staffing.ParttimeDedicated, staffing.ParttimeConcurrent,
	}
	for i, style := range styles {
		for h := 0; h <= 80; h += 7 {
			raw = append(raw, staff("s", style, float64(h)+0.5*float64(i), 0))
		}
	}

	facets, err := staffing.Normalize(raw)
	require.NoError(t, err)
	for _, f := range facets {
		assert.False(t, f.FTE.IsNegative(), "fte below 0: %s", f.FTE)
		assert.True(t, f.FTE.LessThanOrEqual(decimal.NewFromInt(1)), "fte above 1: %s", f.FTE)
	}
}

// =============================================================================
// CONFIGURATION AND RECORD ERRORS
// =============================================================================

func TestNormalize_ZeroStandardHours_ConfigurationError(t *testing.T) {
	// GIVEN: standard weekly hours configured as 0
	// THEN: Fails fast with a ConfigurationError, no facets returned
	for _, h := range []float64{0, -40} {
		n := staffing.WithStandardHours(hours(h))
		facets, err := n.Normalize([]staffing.RawStaffRecord{
			staff("s1", staffing.ParttimeDedicated, 20, 1),
		})

		require.Error(t, err)
		assert.Nil(t, facets)
		assert.True(t, errors.Is(err, generic.ErrConfiguration))

		var cfgErr *generic.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "standard_weekly_hours", cfgErr.Field)
		assert.True(t, generic.IsClientError(err))
	}
}

func TestNormalize_EmptyRosterStillValidatesConfiguration(t *testing.T) {
	_, err := staffing.WithStandardHours(hours(0)).Normalize(nil)
	assert.ErrorIs(t, err, generic.ErrConfiguration)
}

func TestNormalize_NegativeHours_InvalidRecord(t *testing.T) {
	_, err := staffing.Normalize([]staffing.RawStaffRecord{
		staff("bad", staffing.ParttimeDedicated, -1, 1),
	})

	var recErr *generic.InvalidRecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "bad", recErr.RecordID)
	assert.Equal(t, "contracted_weekly_hours", recErr.Field)
	assert.ErrorIs(t, err, generic.ErrInvalidRecord)
}

func TestNormalize_UnknownWorkStyle_InvalidRecord(t *testing.T) {
	_, err := staffing.Normalize([]staffing.RawStaffRecord{
		staff("s1", staffing.WorkStyle("weekend_only"), 8, 1),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidRecord)
}

// =============================================================================
// QUALIFICATIONS
// =============================================================================

func TestNormalize_CapabilityFlags(t *testing.T) {
	facets, err := staffing.Normalize([]staffing.RawStaffRecord{
		staff("instructor", staffing.FulltimeDedicated, 40, 1, "child_instructor"),
		staff("pt", staffing.FulltimeDedicated, 40, 1, "physical_therapist"),
		staff("sw", staffing.FulltimeDedicated, 40, 1, "social_worker"),
		staff("nurse", staffing.FulltimeDedicated, 40, 1, "nurse"),
		staff("none", staffing.FulltimeDedicated, 40, 1, "forklift_license"),
	})
	require.NoError(t, err)

	assert.Equal(t, staffing.Capabilities{ChildInstructor: true}, facets[0].Capabilities)
	assert.Equal(t, staffing.Capabilities{ChildInstructor: true, Specialist: true}, facets[1].Capabilities)
	assert.Equal(t, staffing.Capabilities{ChildInstructor: true, WelfareProfessional: true}, facets[2].Capabilities)
	assert.Equal(t, staffing.Capabilities{Specialist: true}, facets[3].Capabilities)
	assert.Equal(t, staffing.Capabilities{}, facets[4].Capabilities)

	// Unknown codes are kept on the facet, they just grant nothing
	assert.True(t, facets[4].HasQualification("forklift_license"))
}

func TestNormalize_DuplicateQualificationsCollapsed(t *testing.T) {
	facets, err := staffing.Normalize([]staffing.RawStaffRecord{
		staff("s1", staffing.FulltimeDedicated, 40, 1, "nursery_teacher", "nursery_teacher", "social_worker"),
	})
	require.NoError(t, err)
	assert.Equal(t,
		[]staffing.QualificationCode{staffing.QualNurseryTeacher, staffing.QualSocialWorker},
		facets[0].QualificationList())
}

func TestNormalize_DefaultPersonnelIsStandard(t *testing.T) {
	r := staff("s1", staffing.FulltimeDedicated, 40, 1)
	r.PersonnelType = ""
	facets, err := staffing.Normalize([]staffing.RawStaffRecord{r})
	require.NoError(t, err)
	assert.Equal(t, staffing.PersonnelStandard, facets[0].PersonnelType)
}
