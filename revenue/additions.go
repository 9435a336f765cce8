package revenue

import (
	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/eligibility"
	"github.com/warp/addition-engine/generic"
)

// Additions are the claimable additions expressed as simulator inputs.
type Additions struct {
	Units   int             // summed per-day units
	Percent decimal.Decimal // summed percentage rates
	Codes   []eligibility.Code
}

// FromJudgments sums the claimable additions of a resolved judgment list.
// Unresolved lists are resolved first so exclusive tiers never add up.
func FromJudgments(judgments []eligibility.Judgment) Additions {
	if !isResolved(judgments) {
		judgments = eligibility.Resolve(judgments)
	}

	a := Additions{Percent: decimal.Zero}
	for _, j := range eligibility.Selected(judgments) {
		switch j.Value.Kind {
		case eligibility.ValuePercent:
			a.Percent = a.Percent.Add(j.Value.Percent)
		default:
			a.Units += j.Value.Units
		}
		a.Codes = append(a.Codes, j.Code)
	}
	return a
}

func isResolved(js []eligibility.Judgment) bool {
	for _, j := range js {
		if j.Resolution == eligibility.ResolutionNone {
			return false
		}
	}
	return len(js) > 0
}

// Census describes the facility's volume: what stays fixed while additions
// change.
type Census struct {
	RegionGrade  int
	BaseUnits    int
	ChildCount   int
	AvgUsageDays decimal.Decimal
}

// Input combines the census with a set of additions.
func (c Census) Input(a Additions) Input {
	return Input{
		RegionGrade:         c.RegionGrade,
		BaseUnits:           c.BaseUnits,
		SystemAdditionUnits: a.Units,
		PercentAdditions:    a.Percent,
		ChildCount:          c.ChildCount,
		AvgUsageDays:        c.AvgUsageDays,
	}
}

// MonthlyDelta returns how much monthly revenue changes when moving from
// the current additions to next.
func MonthlyDelta(c Census, current, next Additions) (generic.Yen, error) {
	before, err := Simulate(c.Input(current))
	if err != nil {
		return 0, err
	}
	after, err := Simulate(c.Input(next))
	if err != nil {
		return 0, err
	}
	return after.Total - before.Total, nil
}
