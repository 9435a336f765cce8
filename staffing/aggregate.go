package staffing

import (
	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

const (
	// ExperiencedYears is the experience threshold used by the staff
	// allocation and specialist structure additions.
	ExperiencedYears uint32 = 5
	// TenureYears is the tenure threshold of welfare-professional tier III.
	TenureYears uint32 = 3
)

// Statistics are the roster aggregates the eligibility rules consume.
// Computed in one pass so rule evaluation is O(staff + rules).
type Statistics struct {
	// Addition personnel (加配), used by staff allocation and specialist structure
	AdditionFTE                      decimal.Decimal
	AdditionInstructorFTE            decimal.Decimal
	AdditionExperiencedInstructorFTE decimal.Decimal
	AdditionDedicatedInstructors     int
	AdditionDedicatedExperienced     int
	SpecialistStructureFTE           decimal.Decimal
	AdditionSpecialistLicenseFTE     decimal.Decimal
	AdditionExperiencedGeneralistFTE decimal.Decimal

	// All personnel, used by the welfare-professional addition
	Instructors                int // ChildInstructor capability, any work style
	FulltimeInstructors        int
	WelfareQualifiedFulltime   int
	TenuredFulltimeInstructors int

	TotalStaff int
}

// Aggregate computes roster statistics from normalized facets.
func Aggregate(facets []StaffFacet) Statistics {
	s := Statistics{
		AdditionFTE:                      decimal.Zero,
		AdditionInstructorFTE:            decimal.Zero,
		AdditionExperiencedInstructorFTE: decimal.Zero,
		SpecialistStructureFTE:           decimal.Zero,
		AdditionSpecialistLicenseFTE:     decimal.Zero,
		AdditionExperiencedGeneralistFTE: decimal.Zero,
	}

	for _, f := range facets {
		s.TotalStaff++
		experienced := f.ExperiencedAtLeast(ExperiencedYears)
		instructor := f.Capabilities.ChildInstructor

		if f.IsAddition() {
			s.AdditionFTE = s.AdditionFTE.Add(f.FTE)
			if instructor {
				s.AdditionInstructorFTE = s.AdditionInstructorFTE.Add(f.FTE)
				if experienced {
					s.AdditionExperiencedInstructorFTE = s.AdditionExperiencedInstructorFTE.Add(f.FTE)
				}
				if f.IsFulltimeDedicated {
					s.AdditionDedicatedInstructors++
					if experienced {
						s.AdditionDedicatedExperienced++
					}
				}
			}

			// License holders ∪ experienced generalists; a staff member in both
			// sets is counted once.
			switch {
			case f.Capabilities.Specialist:
				s.SpecialistStructureFTE = s.SpecialistStructureFTE.Add(f.FTE)
				s.AdditionSpecialistLicenseFTE = s.AdditionSpecialistLicenseFTE.Add(f.FTE)
			case instructor && experienced:
				s.SpecialistStructureFTE = s.SpecialistStructureFTE.Add(f.FTE)
				s.AdditionExperiencedGeneralistFTE = s.AdditionExperiencedGeneralistFTE.Add(f.FTE)
			}
		}

		if instructor {
			s.Instructors++
			if f.IsFulltime() {
				s.FulltimeInstructors++
				if f.Capabilities.WelfareProfessional {
					s.WelfareQualifiedFulltime++
				}
				if f.ExperiencedAtLeast(TenureYears) {
					s.TenuredFulltimeInstructors++
				}
			}
		}
	}
	return s
}

// WelfareRate is welfare-qualified full-time instructors over all full-time
// instructors, as a percentage.
func (s Statistics) WelfareRate() decimal.Decimal {
	return generic.PercentOf(s.WelfareQualifiedFulltime, s.FulltimeInstructors)
}

// FulltimeRatio is full-time instructors over all instructors, as a percentage.
func (s Statistics) FulltimeRatio() decimal.Decimal {
	return generic.PercentOf(s.FulltimeInstructors, s.Instructors)
}

// TenureRatio is full-time instructors with 3+ years over all full-time
// instructors, as a percentage.
func (s Statistics) TenureRatio() decimal.Decimal {
	return generic.PercentOf(s.TenuredFulltimeInstructors, s.FulltimeInstructors)
}
