/*
Package facility composes the staffing, eligibility, revenue and advisor
packages into one assessment of a facility.

FLOW:
  raw staff → Normalize → Evaluate → Resolve → FromJudgments → Simulate
                                          └──→ Advise

  Verification is a separate branch (see package verification); it never
  depends on an assessment.
*/
package facility

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/advisor"
	"github.com/warp/addition-engine/eligibility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
	"github.com/warp/addition-engine/staffing"
)

type ServiceType string

const (
	ServiceChildDevelopment ServiceType = "child_development_support" // 児童発達支援
	ServiceAfterSchool      ServiceType = "after_school_day_service"  // 放課後等デイサービス
)

// Profile is the static configuration of a facility.
type Profile struct {
	ID          generic.FacilityID
	Name        string
	ServiceType ServiceType
	RegionGrade int
	Capacity    int
	// BaseUnits is the per-day base reimbursement in units (基本報酬).
	BaseUnits int
	// StandardWeeklyHours overrides the 40h full-time week when set.
	StandardWeeklyHours *decimal.Decimal
	HeldAdditions       []string
	CareerPathLevel     int
}

// Held returns the claimed additions as a held set.
func (p Profile) Held() eligibility.Held { return eligibility.NewHeld(p.HeldAdditions...) }

func (p Profile) Conditions() eligibility.Conditions {
	return eligibility.Conditions{CareerPathLevel: p.CareerPathLevel}
}

// Census builds simulation volume for the facility.
func (p Profile) Census(childCount int, avgUsageDays decimal.Decimal) revenue.Census {
	return revenue.Census{
		RegionGrade:  p.RegionGrade,
		BaseUnits:    p.BaseUnits,
		ChildCount:   childCount,
		AvgUsageDays: avgUsageDays,
	}
}

func (p Profile) normalizer() *staffing.Normalizer {
	if p.StandardWeeklyHours != nil {
		return staffing.WithStandardHours(*p.StandardWeeklyHours)
	}
	return staffing.NewNormalizer()
}

// Assessment is the full eligibility picture of a facility.
type Assessment struct {
	FacilityID  generic.FacilityID
	Facets      []staffing.StaffFacet
	Statistics  staffing.Statistics
	Judgments   []eligibility.Judgment // raw, catalog order
	Resolved    []eligibility.Judgment
	Selected    []eligibility.Judgment
	Additions   revenue.Additions
	Simulation  *revenue.Breakdown
	Suggestions []advisor.Suggestion
}

// Assess runs the eligibility pipeline over a raw roster. census is
// optional; without it no simulation or yen estimate is produced.
func Assess(p Profile, raw []staffing.RawStaffRecord, census *revenue.Census) (Assessment, error) {
	facets, err := p.normalizer().Normalize(raw)
	if err != nil {
		return Assessment{}, fmt.Errorf("normalizing staff of facility %s: %w", p.ID, err)
	}

	judgments := eligibility.EvaluateWithConditions(facets, p.Held(), p.Conditions())
	resolved := eligibility.Resolve(judgments)

	a := Assessment{
		FacilityID:  p.ID,
		Facets:      facets,
		Statistics:  staffing.Aggregate(facets),
		Judgments:   judgments,
		Resolved:    resolved,
		Selected:    eligibility.Selected(resolved),
		Additions:   revenue.FromJudgments(resolved),
		Suggestions: advisor.Advise(judgments, advisor.Options{Census: census}),
	}

	if census != nil {
		b, err := revenue.Simulate(census.Input(a.Additions))
		if err != nil {
			return Assessment{}, err
		}
		a.Simulation = &b
	}
	return a, nil
}

// Assessor assesses facilities whose rosters live in a staffing.Source.
type Assessor struct {
	staff staffing.Source
}

func NewAssessor(staff staffing.Source) *Assessor {
	return &Assessor{staff: staff}
}

// Assess fetches the roster and assesses it.
func (a *Assessor) Assess(ctx context.Context, p Profile, census *revenue.Census) (Assessment, error) {
	raw, err := a.staff.StaffRecords(ctx, p.ID)
	if err != nil {
		return Assessment{}, &generic.SourceError{Source: "staff", FacilityID: p.ID, Err: err}
	}
	return Assess(p, raw, census)
}
