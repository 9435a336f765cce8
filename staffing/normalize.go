/*
normalize.go - Raw staff records to StaffFacets

PURPOSE:
  Converts what the staff source supplies (work style, contracted hours,
  qualification codes, experience) into the normalized StaffFacet every
  eligibility rule aggregates over.

FTE (常勤換算):
  fulltime_dedicated   1.0
  fulltime_concurrent  0.75
  part-time            min(contracted / standard, 1.0)

  Concurrent full-time staff are deliberately discounted relative to
  dedicated staff: shared-role capacity counts less toward minimum-staffing
  additions.

STANDARD WEEKLY HOURS:
  Defaults to 40 when unset. A configured value <= 0 is a
  ConfigurationError, never a silent default: it would corrupt every FTE.

SEE ALSO:
  - aggregate.go: Roster statistics consumed by the rules
  - eligibility/rules.go: Rule predicates
*/
package staffing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

// DefaultStandardWeeklyHours is used when a facility does not configure one.
var DefaultStandardWeeklyHours = decimal.NewFromInt(40)

var concurrentFulltimeFTE = decimal.RequireFromString("0.75")

// Normalizer converts raw staff records into facets.
type Normalizer struct {
	// StandardWeeklyHours is the facility's full-time weekly hours.
	// nil means "unspecified" (40h).
	StandardWeeklyHours *decimal.Decimal
}

// NewNormalizer returns a normalizer with the default standard weekly hours.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// WithStandardHours returns a normalizer configured with hours.
func WithStandardHours(hours decimal.Decimal) *Normalizer {
	return &Normalizer{StandardWeeklyHours: &hours}
}

func (n *Normalizer) standardHours() (decimal.Decimal, error) {
	if n == nil || n.StandardWeeklyHours == nil {
		return DefaultStandardWeeklyHours, nil
	}
	h := *n.StandardWeeklyHours
	if !h.IsPositive() {
		return decimal.Zero, &generic.ConfigurationError{
			Field:  "standard_weekly_hours",
			Value:  h.String(),
			Reason: "must be greater than zero",
		}
	}
	return h, nil
}

// Normalize converts every raw record. It fails on the first malformed
// record: a partially normalized roster would misstate every aggregate.
func (n *Normalizer) Normalize(raw []RawStaffRecord) ([]StaffFacet, error) {
	standard, err := n.standardHours()
	if err != nil {
		return nil, err
	}

	facets := make([]StaffFacet, 0, len(raw))
	for _, r := range raw {
		f, err := normalizeOne(r, standard)
		if err != nil {
			return nil, err
		}
		facets = append(facets, f)
	}
	return facets, nil
}

// Normalize is a convenience wrapper using the default standard hours.
func Normalize(raw []RawStaffRecord) ([]StaffFacet, error) {
	return NewNormalizer().Normalize(raw)
}

func normalizeOne(r RawStaffRecord, standard decimal.Decimal) (StaffFacet, error) {
	if !r.WorkStyle.valid() {
		return StaffFacet{}, &generic.InvalidRecordError{
			RecordID: string(r.ID),
			Field:    "work_style",
			Reason:   fmt.Sprintf("unknown work style %q", r.WorkStyle),
		}
	}
	if r.ContractedWeeklyHours.IsNegative() {
		return StaffFacet{}, &generic.InvalidRecordError{
			RecordID: string(r.ID),
			Field:    "contracted_weekly_hours",
			Reason:   "must not be negative",
		}
	}
	if r.YearsOfExperience < 0 {
		return StaffFacet{}, &generic.InvalidRecordError{
			RecordID: string(r.ID),
			Field:    "years_of_experience",
			Reason:   "must not be negative",
		}
	}

	personnel := r.PersonnelType
	if personnel == "" {
		personnel = PersonnelStandard
	}

	quals := make(map[QualificationCode]struct{}, len(r.QualificationCodes))
	codes := make([]QualificationCode, 0, len(r.QualificationCodes))
	for _, c := range r.QualificationCodes {
		code := QualificationCode(c)
		if _, dup := quals[code]; dup {
			continue
		}
		quals[code] = struct{}{}
		codes = append(codes, code)
	}

	return StaffFacet{
		ID:                  r.ID,
		FTE:                 fteFor(r.WorkStyle, r.ContractedWeeklyHours, standard),
		WorkStyle:           r.WorkStyle,
		IsFulltimeDedicated: r.WorkStyle == FulltimeDedicated,
		Qualifications:      quals,
		Capabilities:        CapabilitiesOf(codes),
		YearsOfExperience:   uint32(r.YearsOfExperience),
		PersonnelType:       personnel,
	}, nil
}

func fteFor(style WorkStyle, contracted, standard decimal.Decimal) decimal.Decimal {
	switch style {
	case FulltimeDedicated:
		return generic.One
	case FulltimeConcurrent:
		return concurrentFulltimeFTE
	default:
		return generic.Clamp01(contracted.Div(standard))
	}
}
