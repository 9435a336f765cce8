package eligibility

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/staffing"
)

// =============================================================================
// THRESHOLDS
// =============================================================================

var (
	requiredFTE = generic.One

	welfareTier1Rate = decimal.NewFromInt(35)
	welfareTier2Rate = decimal.NewFromInt(25)
	fulltimeRatioMin = decimal.NewFromInt(75)
	tenureRatioMin   = decimal.NewFromInt(30)
)

const (
	careerPathTier1 = 5
	careerPathTier2 = 4
	careerPathTier3 = 3
	careerPathTier4 = 2
)

// Conditions are facility declarations that cannot be derived from the
// roster. The zero value declares nothing.
type Conditions struct {
	// CareerPathLevel counts the career-path and workplace-environment
	// requirements (キャリアパス要件) the facility has filed, 0..5.
	CareerPathLevel int
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluate runs every catalog rule against the roster and returns one
// judgment per rule, in catalog order. Judgments are raw: several members
// of a group may be eligible. Pass the result through Resolve before
// claiming anything.
func Evaluate(facets []staffing.StaffFacet, held Held) []Judgment {
	return EvaluateWithConditions(facets, held, Conditions{})
}

// EvaluateWithConditions is Evaluate with declared facility conditions.
func EvaluateWithConditions(facets []staffing.StaffFacet, held Held, cond Conditions) []Judgment {
	ctx := evalContext{
		stats: staffing.Aggregate(facets),
		cond:  cond,
	}
	ctx.welfareRate = ctx.stats.WelfareRate()

	judgments := make([]Judgment, 0, len(catalog))
	for _, rule := range catalog {
		eligible, reqs := evaluate(rule.Kind, &ctx)
		j := Judgment{
			Code:            rule.Code,
			Kind:            rule.Kind,
			Name:            rule.Name,
			ShortName:       rule.ShortName,
			Value:           rule.Value,
			IsEligible:      eligible,
			IsCurrentlyHeld: held.Has(rule.Code),
			Requirements:    reqs,
			Group:           rule.Group,
			Priority:        rule.Priority,
		}
		j.Reason = reasonFor(j)
		judgments = append(judgments, j)
	}
	return judgments
}

type evalContext struct {
	stats       staffing.Statistics
	welfareRate decimal.Decimal
	cond        Conditions
}

// evaluate is the single dispatch point for rule predicates.
func evaluate(kind RuleKind, c *evalContext) (bool, []RequirementStatus) {
	s := c.stats

	switch kind {
	case KindStaffAllocation1Fulltime:
		r := countReq("dedicated full-time instructors with 5+ years", s.AdditionDedicatedExperienced, 1)
		return r.Met, []RequirementStatus{r}

	case KindStaffAllocation2Fulltime:
		r := countReq("dedicated full-time instructors", s.AdditionDedicatedInstructors, 1)
		return r.Met, []RequirementStatus{r}

	case KindStaffAllocation1Convert:
		r := fteReq("instructor FTE with 5+ years", s.AdditionExperiencedInstructorFTE)
		return r.Met, []RequirementStatus{r}

	case KindStaffAllocation2Convert:
		r := fteReq("instructor FTE", s.AdditionInstructorFTE)
		return r.Met, []RequirementStatus{r}

	case KindStaffAllocationOther:
		r := fteReq("addition staff FTE", s.AdditionFTE)
		return r.Met, []RequirementStatus{r}

	case KindSpecialistSupport:
		r := fteReq("specialist FTE", s.SpecialistStructureFTE)
		r.Detail = fmt.Sprintf("licensed %s + experienced instructors %s",
			s.AdditionSpecialistLicenseFTE.StringFixed(2), s.AdditionExperiencedGeneralistFTE.StringFixed(2))
		return r.Met, []RequirementStatus{r}

	case KindWelfareProfessional1:
		r := percentReq("welfare-qualified full-time instructor rate", c.welfareRate, welfareTier1Rate)
		return r.Met, []RequirementStatus{r}

	case KindWelfareProfessional2:
		r := percentReq("welfare-qualified full-time instructor rate", c.welfareRate, welfareTier2Rate)
		return r.Met, []RequirementStatus{r}

	case KindWelfareProfessional3:
		return welfareTier3(c)

	case KindTreatmentImprovement1:
		level := countReq("career path requirements", c.cond.CareerPathLevel, careerPathTier1)
		welfare := RequirementStatus{
			Name:     "welfare professional placement",
			Met:      welfareTierMet(c),
			Current:  decimal.NewFromInt(boolInt(welfareTierMet(c))),
			Required: generic.One,
			Unit:     MetricCount,
			Bound:    BoundMinimum,
			Detail:   "any welfare professional tier",
		}
		return level.Met && welfare.Met, []RequirementStatus{level, welfare}

	case KindTreatmentImprovement2:
		r := countReq("career path requirements", c.cond.CareerPathLevel, careerPathTier2)
		return r.Met, []RequirementStatus{r}

	case KindTreatmentImprovement3:
		r := countReq("career path requirements", c.cond.CareerPathLevel, careerPathTier3)
		return r.Met, []RequirementStatus{r}

	case KindTreatmentImprovement4:
		r := countReq("career path requirements", c.cond.CareerPathLevel, careerPathTier4)
		return r.Met, []RequirementStatus{r}

	default:
		panic(fmt.Sprintf("eligibility: rule kind %d has no predicate", kind))
	}
}

// welfareTier3 implements tier III of the welfare professional addition.
//
// Tier III requires (full-time ratio >= 75% OR tenure ratio >= 30%) AND a
// welfare rate below the tier II threshold. The last clause is an
// exclusivity guard inside the predicate: a facility that reaches tier II
// is never tier-III eligible, independent of the group resolver.
func welfareTier3(c *evalContext) (bool, []RequirementStatus) {
	s := c.stats

	fulltime := percentReq("full-time instructor ratio", s.FulltimeRatio(), fulltimeRatioMin)
	fulltime.OneOf = "placement"
	tenure := percentReq("full-time instructors with 3+ years", s.TenureRatio(), tenureRatioMin)
	tenure.OneOf = "placement"

	guard := RequirementStatus{
		Name:     "welfare-qualified rate below tier II",
		Met:      c.welfareRate.LessThan(welfareTier2Rate),
		Current:  c.welfareRate,
		Required: welfareTier2Rate,
		Unit:     MetricPercent,
		Bound:    BoundMaximum,
		Detail:   "tier III applies only when tier I and II are not reached",
	}

	eligible := (fulltime.Met || tenure.Met) && guard.Met
	return eligible, []RequirementStatus{fulltime, tenure, guard}
}

func welfareTierMet(c *evalContext) bool {
	if c.welfareRate.GreaterThanOrEqual(welfareTier2Rate) {
		return true
	}
	ok, _ := welfareTier3(c)
	return ok
}

// =============================================================================
// REQUIREMENT BUILDERS
// =============================================================================

func fteReq(name string, current decimal.Decimal) RequirementStatus {
	return RequirementStatus{
		Name:     name,
		Met:      generic.AtLeast(current, requiredFTE),
		Current:  current,
		Required: requiredFTE,
		Unit:     MetricFTE,
		Bound:    BoundMinimum,
	}
}

func countReq(name string, current, required int) RequirementStatus {
	return RequirementStatus{
		Name:     name,
		Met:      current >= required,
		Current:  decimal.NewFromInt(int64(current)),
		Required: decimal.NewFromInt(int64(required)),
		Unit:     MetricCount,
		Bound:    BoundMinimum,
	}
}

func percentReq(name string, current, required decimal.Decimal) RequirementStatus {
	return RequirementStatus{
		Name:     name,
		Met:      generic.AtLeast(current, required),
		Current:  current,
		Required: required,
		Unit:     MetricPercent,
		Bound:    BoundMinimum,
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// reasonFor summarises a judgment for display. Alternative rows only count
// as missing when every alternative is unmet.
func reasonFor(j Judgment) string {
	if j.IsEligible {
		return "all requirements met"
	}

	satisfied := map[string]bool{}
	for _, r := range j.Requirements {
		if r.OneOf != "" && r.Met {
			satisfied[r.OneOf] = true
		}
	}

	var parts []string
	for _, r := range j.Requirements {
		if r.Met || (r.OneOf != "" && satisfied[r.OneOf]) {
			continue
		}
		parts = append(parts, describeUnmet(r))
	}
	if len(parts) == 0 {
		return "requirements not met"
	}
	return strings.Join(parts, "; ")
}

func describeUnmet(r RequirementStatus) string {
	if r.Bound == BoundMaximum {
		return fmt.Sprintf("%s: %s must be below %s", r.Name, formatMetric(r.Current, r.Unit), formatMetric(r.Required, r.Unit))
	}
	return fmt.Sprintf("%s: %s of %s (%s short)", r.Name,
		formatMetric(r.Current, r.Unit), formatMetric(r.Required, r.Unit), formatMetric(r.Shortfall(), r.Unit))
}

func formatMetric(d decimal.Decimal, unit MetricUnit) string {
	switch unit {
	case MetricFTE:
		return d.StringFixed(2)
	case MetricPercent:
		return d.StringFixed(1) + "%"
	default:
		return d.String()
	}
}
