/*
Package advisor turns eligibility judgments into actionable suggestions.

PURPOSE:
  After resolution each exclusive group has a selected tier (or none). The
  advisor compares it with the next better tier and with what the facility
  currently claims, and reports what to do and what it is worth.

SUGGESTION KINDS:
  upgrade   A higher tier in the same group is within reach
  acquire   Nothing in the group (or an independent rule) is claimable yet
  claim     Eligible, but the facility does not claim it
  at_risk   Claimed today, but the roster no longer supports it

PRIORITY:
  Gains are ranked high / medium / low by units, percentage points, or the
  estimated monthly yen when a census is supplied.
*/
package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/eligibility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
)

type Kind string

const (
	KindUpgrade Kind = "upgrade"
	KindAcquire Kind = "acquire"
	KindClaim   Kind = "claim"
	KindAtRisk  Kind = "at_risk"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

var (
	unitsHigh   = decimal.NewFromInt(100)
	unitsMedium = decimal.NewFromInt(30)
	pctHigh     = decimal.NewFromInt(3)
	pctMedium   = decimal.NewFromInt(1)
	yenHigh     = decimal.NewFromInt(100_000)
	yenMedium   = decimal.NewFromInt(30_000)
)

// Suggestion is one recommended action.
type Suggestion struct {
	Kind     Kind
	Priority Priority
	Code     eligibility.Code // the rule the suggestion is about
	From     eligibility.Code // current tier for upgrade/claim, empty otherwise
	Group    eligibility.Group
	Title    string
	Message  string
	// Gain is the value difference in the target's value kind: units for
	// unit rules, percentage points for percent rules. For at_risk it is the
	// value that would be lost.
	Gain      decimal.Decimal
	ValueKind eligibility.ValueKind
	// EstimatedMonthlyYen is set only when Options.Census is provided.
	EstimatedMonthlyYen *generic.Yen
	Missing             []eligibility.RequirementStatus
}

type Options struct {
	// Census enables yen estimates. An invalid census is ignored.
	Census *revenue.Census
}

// Advise resolves the judgments and returns suggestions ordered by
// priority, then gain, then code.
func Advise(judgments []eligibility.Judgment, opts Options) []Suggestion {
	resolved := eligibility.Resolve(judgments)
	a := advice{census: validCensus(opts.Census)}
	if a.census != nil {
		a.current = revenue.FromJudgments(resolved)
	}

	done := map[eligibility.Group]bool{}
	for _, j := range resolved {
		if !j.Group.IsExclusive() {
			a.independent(j)
			continue
		}
		if done[j.Group] {
			continue
		}
		done[j.Group] = true
		a.group(membersOf(resolved, j.Group))
	}

	sort.SliceStable(a.out, func(i, k int) bool {
		x, y := a.out[i], a.out[k]
		if x.Priority != y.Priority {
			return x.Priority.rank() < y.Priority.rank()
		}
		if c := sortGain(x).Cmp(sortGain(y)); c != 0 {
			return c > 0
		}
		return x.Code < y.Code
	})
	return a.out
}

type advice struct {
	census  *revenue.Census
	current revenue.Additions
	out     []Suggestion
}

func (a *advice) independent(j eligibility.Judgment) {
	switch {
	case j.IsEligible && !j.IsCurrentlyHeld:
		a.add(KindClaim, j, "", j.Value.Magnitude(),
			fmt.Sprintf("Claim %s", j.Name),
			fmt.Sprintf("The roster meets every requirement of %s but it is not claimed.", j.Name))
	case !j.IsEligible && j.IsCurrentlyHeld:
		a.add(KindAtRisk, j, "", j.Value.Magnitude(),
			fmt.Sprintf("%s is at risk", j.Name),
			fmt.Sprintf("%s is claimed but %s.", j.Name, missingText(j)))
	case !j.IsEligible:
		a.add(KindAcquire, j, "", j.Value.Magnitude(),
			fmt.Sprintf("Acquire %s", j.Name),
			fmt.Sprintf("To claim %s: %s.", j.Name, missingText(j)))
	}
}

func (a *advice) group(members []eligibility.Judgment) {
	var selected, heldMember *eligibility.Judgment
	for i := range members {
		m := &members[i]
		if m.Resolution == eligibility.ResolutionSelected {
			selected = m
		}
		if m.IsCurrentlyHeld && heldMember == nil {
			heldMember = m
		}
	}

	current := decimal.Zero
	if selected != nil {
		current = selected.Value.Magnitude()
	}

	if next := nextBetter(members, current); next != nil {
		gain := next.Value.Magnitude().Sub(current)
		if selected != nil {
			a.add(KindUpgrade, *next, selected.Code, gain,
				fmt.Sprintf("Upgrade to %s", next.Name),
				fmt.Sprintf("Moving from %s (%s) to %s (%s): %s.", selected.ShortName, selected.Value, next.ShortName, next.Value, missingText(*next)))
		} else {
			a.add(KindAcquire, *next, "", gain,
				fmt.Sprintf("Acquire %s", next.Name),
				fmt.Sprintf("No tier of this addition is claimable yet. Closest option %s: %s.", next.ShortName, missingText(*next)))
		}
	}

	if selected != nil && (heldMember == nil || heldMember.Code != selected.Code) {
		heldValue := decimal.Zero
		from := eligibility.Code("")
		if heldMember != nil {
			heldValue = heldMember.Value.Magnitude()
			from = heldMember.Code
		}
		a.add(KindClaim, *selected, from, selected.Value.Magnitude().Sub(heldValue),
			fmt.Sprintf("Claim %s", selected.Name),
			fmt.Sprintf("The roster supports %s (%s) but it is not the tier being claimed.", selected.ShortName, selected.Value))
	}

	for _, m := range members {
		if !m.IsCurrentlyHeld || m.Resolution == eligibility.ResolutionSelected || m.Resolution == eligibility.ResolutionSuperseded {
			continue
		}
		a.add(KindAtRisk, m, "", m.Value.Magnitude(),
			fmt.Sprintf("%s is at risk", m.Name),
			fmt.Sprintf("%s is claimed but %s.", m.Name, missingText(m)))
	}
}

func (a *advice) add(kind Kind, target eligibility.Judgment, from eligibility.Code, gain decimal.Decimal, title, message string) {
	s := Suggestion{
		Kind:      kind,
		Code:      target.Code,
		From:      from,
		Group:     target.Group,
		Title:     title,
		Message:   message,
		Gain:      gain,
		ValueKind: target.Value.Kind,
		Missing:   target.Unmet(),
	}
	if a.census != nil {
		if yen, ok := a.estimate(target.Value.Kind, gain); ok {
			s.EstimatedMonthlyYen = &yen
		}
	}
	s.Priority = priorityOf(s)
	a.out = append(a.out, s)
}

// estimate prices a gain against the facility's current claimed additions.
func (a *advice) estimate(kind eligibility.ValueKind, gain decimal.Decimal) (generic.Yen, bool) {
	next := a.current
	if kind == eligibility.ValuePercent {
		next.Percent = next.Percent.Add(gain)
	} else {
		next.Units += int(gain.IntPart())
	}
	delta, err := revenue.MonthlyDelta(*a.census, a.current, next)
	if err != nil {
		return 0, false
	}
	return delta, true
}

func priorityOf(s Suggestion) Priority {
	var high, medium decimal.Decimal
	gain := s.Gain
	switch {
	case s.EstimatedMonthlyYen != nil:
		high, medium = yenHigh, yenMedium
		gain = s.EstimatedMonthlyYen.Decimal()
	case s.ValueKind == eligibility.ValuePercent:
		high, medium = pctHigh, pctMedium
	default:
		high, medium = unitsHigh, unitsMedium
	}
	gain = gain.Abs()

	switch {
	case gain.GreaterThanOrEqual(high):
		return PriorityHigh
	case gain.GreaterThanOrEqual(medium):
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func sortGain(s Suggestion) decimal.Decimal {
	if s.EstimatedMonthlyYen != nil {
		return s.EstimatedMonthlyYen.Decimal().Abs()
	}
	return s.Gain.Abs()
}

// nextBetter returns the lowest-valued member worth more than current.
func nextBetter(members []eligibility.Judgment, current decimal.Decimal) *eligibility.Judgment {
	var best *eligibility.Judgment
	for i := range members {
		m := &members[i]
		v := m.Value.Magnitude()
		if !v.GreaterThan(current) {
			continue
		}
		if best == nil {
			best = m
			continue
		}
		bv := best.Value.Magnitude()
		if v.LessThan(bv) || (v.Equal(bv) && m.Priority < best.Priority) {
			best = m
		}
	}
	return best
}

func membersOf(resolved []eligibility.Judgment, g eligibility.Group) []eligibility.Judgment {
	var out []eligibility.Judgment
	for _, j := range resolved {
		if j.Group == g {
			out = append(out, j)
		}
	}
	return out
}

func validCensus(c *revenue.Census) *revenue.Census {
	if c == nil {
		return nil
	}
	if err := c.Input(revenue.Additions{}).Validate(); err != nil {
		return nil
	}
	return c
}

func missingText(j eligibility.Judgment) string {
	var parts []string
	satisfied := map[string]bool{}
	for _, r := range j.Requirements {
		if r.OneOf != "" && r.Met {
			satisfied[r.OneOf] = true
		}
	}
	for _, r := range j.Unmet() {
		if r.OneOf != "" && satisfied[r.OneOf] {
			continue
		}
		if r.Bound == eligibility.BoundMaximum {
			parts = append(parts, fmt.Sprintf("%s must stay below %s", r.Name, r.Required))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s needs %s more", r.Name, shortfallText(r)))
	}
	if len(parts) == 0 {
		return "no requirement is missing"
	}
	return strings.Join(parts, ", ")
}

func shortfallText(r eligibility.RequirementStatus) string {
	switch r.Unit {
	case eligibility.MetricFTE:
		return r.Shortfall().StringFixed(2) + " FTE"
	case eligibility.MetricPercent:
		return r.Shortfall().StringFixed(1) + " points"
	default:
		return r.Shortfall().String()
	}
}
