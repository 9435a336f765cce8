/*
Package generic provides the shared core of the addition engine.

PURPOSE:
  This package contains domain-agnostic types used by every engine package:
  identifiers, decimal helpers for FTE/percentages/money, year-month periods,
  the three-tier validation taxonomy and the error catalogue. It has no
  knowledge of specific additions, qualifications or income categories.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: FacilityID, StaffID, ChildID (type-safe string IDs)
  - Yen: integral currency amount (no fractional unit)
  - Decimal helpers: rounding and comparison rules shared by every threshold

DESIGN PRINCIPLES:
  1. Purity: Nothing in the engine owns state; every value is recomputed
  2. Precision: Uses decimal.Decimal so thresholds like 1.0 FTE or 35% are
     compared exactly, never through binary floating point
  3. Type Safety: Strong typing for IDs prevents mixing children and staff

USAGE:
  fte := generic.Ratio(decimal.NewFromInt(30), decimal.NewFromInt(40)) // 0.75
  if generic.AtLeast(totalFTE, generic.One) { ... }
  revenue := generic.RoundYen(units.Mul(days).Mul(unitPrice))

SEE ALSO:
  - validation.go: Severity and ValidationItem
  - time.go: TimePoint and YearMonth
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type FacilityID string
type StaffID string
type ChildID string

// =============================================================================
// YEN - Integral currency amount
// =============================================================================

// Yen is a monetary amount. Japanese billing has no fractional unit, so
// every intermediate and final amount is an integer.
type Yen int64

func (y Yen) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(y)) }

// RoundYen rounds a decimal amount to the nearest yen (half away from zero).
func RoundYen(d decimal.Decimal) Yen {
	return Yen(d.Round(0).IntPart())
}

// FloorYen truncates a non-negative decimal amount towards zero.
func FloorYen(d decimal.Decimal) Yen {
	return Yen(d.Floor().IntPart())
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	Zero    = decimal.Zero
	One     = decimal.NewFromInt(1)
	Hundred = decimal.NewFromInt(100)
)

// DecInt builds a decimal from an integer.
func DecInt(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// Ratio returns num/den, or zero when den is zero.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Percent returns num/den*100, or zero when den is zero.
func Percent(num, den decimal.Decimal) decimal.Decimal {
	return Ratio(num, den).Mul(Hundred)
}

// PercentOf returns the count-based percentage a/b*100.
func PercentOf(a, b int) decimal.Decimal {
	return Percent(DecInt(a), DecInt(b))
}

// AtLeast reports value >= threshold. All eligibility thresholds go through
// this helper (or GreaterThan) so the comparison policy is uniform.
func AtLeast(value, threshold decimal.Decimal) bool {
	return value.GreaterThanOrEqual(threshold)
}

// Clamp01 bounds d to [0, 1].
func Clamp01(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(One) {
		return One
	}
	return d
}

// NonNegative returns d, or zero if d is negative.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
