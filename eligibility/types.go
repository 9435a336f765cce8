/*
Package eligibility decides which subsidy additions (加算) a facility may claim.

PURPOSE:
  Given normalized staff facets, a fixed catalog of addition rules produces
  one Judgment per rule: eligible or not, currently held or not, and the
  full list of requirements with how far short the roster is. The resolver
  then picks at most one claimable rule per exclusive group.

KEY CONCEPTS IN THIS FILE (types.go):
  - RuleKind: Closed enumeration of every rule; evaluate() switches on it
  - Group: Typed exclusive-group identifier (GroupNone = independent rule)
  - Value: Unit-type (per-day units) or percent-type addition value
  - RequirementStatus: One requirement row, always reported, even when unmet
  - Judgment: The evaluated result for one rule
  - Resolution: What the resolver decided for a judgment

RULE FAMILIES:
  staff_allocation        5 tiers, exclusive  (児童指導員等加配加算)
  specialist_support      1 rule, independent (専門的支援体制加算)
  welfare_professional    3 tiers, exclusive  (福祉専門職員配置等加算)
  treatment_improvement   4 tiers, exclusive  (福祉・介護職員等処遇改善加算, percent)

SEE ALSO:
  - catalog.go: Rule definitions
  - rules.go: Evaluation
  - resolver.go: Exclusive-group resolution
*/
package eligibility

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

// =============================================================================
// CODES AND GROUPS
// =============================================================================

// Code is the stable identifier of an addition rule.
type Code string

// Group identifies an exclusive group. Rules sharing a group cannot be
// claimed together.
type Group int

const (
	GroupNone Group = iota
	GroupStaffAllocation
	GroupWelfareProfessional
	GroupTreatmentImprovement
)

var groupNames = map[Group]string{
	GroupNone:                 "",
	GroupStaffAllocation:      "staff_allocation",
	GroupWelfareProfessional:  "welfare_professional",
	GroupTreatmentImprovement: "treatment_improvement",
}

func (g Group) String() string { return groupNames[g] }

// IsExclusive reports whether g is a real exclusive group.
func (g Group) IsExclusive() bool { return g != GroupNone }

func (g Group) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Group) UnmarshalText(b []byte) error {
	parsed, err := ParseGroup(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGroup converts a group name back into a Group.
func ParseGroup(s string) (Group, error) {
	for g, name := range groupNames {
		if name == s {
			return g, nil
		}
	}
	return GroupNone, fmt.Errorf("unknown exclusive group %q", s)
}

// =============================================================================
// VALUE - Units or percentage
// =============================================================================

type ValueKind string

const (
	ValueUnits   ValueKind = "units"   // per-day units (単位/日)
	ValuePercent ValueKind = "percent" // rate applied to the percent base
)

type Value struct {
	Kind    ValueKind
	Units   int
	Percent decimal.Decimal
}

func Units(n int) Value { return Value{Kind: ValueUnits, Units: n, Percent: decimal.Zero} }

func PercentRate(p string) Value {
	return Value{Kind: ValuePercent, Percent: decimal.RequireFromString(p)}
}

// Magnitude returns the comparable size of the value. Values within one
// group always share a kind.
func (v Value) Magnitude() decimal.Decimal {
	if v.Kind == ValuePercent {
		return v.Percent
	}
	return decimal.NewFromInt(int64(v.Units))
}

func (v Value) String() string {
	if v.Kind == ValuePercent {
		return v.Percent.String() + "%"
	}
	return fmt.Sprintf("%d units", v.Units)
}

// =============================================================================
// REQUIREMENT STATUS
// =============================================================================

type MetricUnit string

const (
	MetricFTE     MetricUnit = "fte"
	MetricPercent MetricUnit = "percent"
	MetricCount   MetricUnit = "count"
)

// Bound says whether Required is a floor (the usual case) or a ceiling.
type Bound string

const (
	BoundMinimum Bound = "minimum"
	BoundMaximum Bound = "below" // current must stay strictly below required
)

// RequirementStatus is one requirement row. Current and Required share Unit
// so Shortfall() can be used directly in "how much more is needed" messages.
type RequirementStatus struct {
	Name     string
	Met      bool
	Current  decimal.Decimal
	Required decimal.Decimal
	Unit     MetricUnit
	Bound    Bound
	// OneOf groups alternative rows: the rule needs any one row with the
	// same non-empty key to be met.
	OneOf  string
	Detail string
}

// Shortfall returns required - current for unmet minimum requirements and
// zero otherwise. Ceilings have no shortfall: adding staff cannot fix them.
func (r RequirementStatus) Shortfall() decimal.Decimal {
	if r.Met || r.Bound == BoundMaximum {
		return decimal.Zero
	}
	return generic.NonNegative(r.Required.Sub(r.Current))
}

// =============================================================================
// JUDGMENT
// =============================================================================

// Resolution records what the resolver decided. Empty before Resolve.
type Resolution string

const (
	ResolutionNone        Resolution = ""
	ResolutionSelected    Resolution = "selected"
	ResolutionSuperseded  Resolution = "superseded"
	ResolutionClosestMiss Resolution = "closest_miss"
	ResolutionIneligible  Resolution = "ineligible"
	ResolutionIndependent Resolution = "independent"
)

// Judgment is the evaluated result of one rule.
//
// In the raw list several members of one group may be eligible at once.
// After Resolve at most one member per group keeps IsEligible.
type Judgment struct {
	Code            Code
	Kind            RuleKind
	Name            string
	ShortName       string
	Value           Value
	IsEligible      bool
	IsCurrentlyHeld bool
	Requirements    []RequirementStatus
	Group           Group
	Priority        uint8 // ascending rank, 1 is best
	Reason          string
	Resolution      Resolution
}

// IsClaimable reports whether the judgment belongs in the claimed set after
// resolution.
func (j Judgment) IsClaimable() bool {
	if !j.IsEligible {
		return false
	}
	return j.Resolution == ResolutionSelected || j.Resolution == ResolutionIndependent
}

// Unmet returns the requirement rows that are not met.
func (j Judgment) Unmet() []RequirementStatus {
	var out []RequirementStatus
	for _, r := range j.Requirements {
		if !r.Met {
			out = append(out, r)
		}
	}
	return out
}

func (j Judgment) clone() Judgment {
	c := j
	if j.Requirements != nil {
		c.Requirements = make([]RequirementStatus, len(j.Requirements))
		copy(c.Requirements, j.Requirements)
	}
	return c
}

// =============================================================================
// HELD SET - Additions the facility currently claims
// =============================================================================

type Held map[Code]struct{}

// NewHeld builds a held set from codes.
func NewHeld(codes ...string) Held {
	h := make(Held, len(codes))
	for _, c := range codes {
		h[Code(c)] = struct{}{}
	}
	return h
}

func (h Held) Has(code Code) bool {
	_, ok := h[code]
	return ok
}
