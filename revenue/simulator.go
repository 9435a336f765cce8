/*
Package revenue estimates monthly reimbursement for a facility.

PURPOSE:
  Converts units (単位) into yen using the regional unit price (地域区分単価)
  and applies percentage additions on top of base plus unit additions.

CALCULATION ORDER:
  totalUsageDays = childCount × avgUsageDays
  base           = round(baseUnits × totalUsageDays × unitPrice)
  system         = round(systemAdditionUnits × totalUsageDays × unitPrice)
  percentBase    = base + system
  percent        = round(percentBase × percentAdditions / 100)
  implementation = round(implementationAdditionUnits × unitPrice)
  total          = base + system + percent + implementation

  Percentage additions apply to base AND unit additions. Applying them to
  base alone under-reports revenue.

SEE ALSO:
  - region.go: Unit price table
  - additions.go: Deriving simulator inputs from resolved judgments
*/
package revenue

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

// Input is one month of simulation parameters.
type Input struct {
	RegionGrade                 int
	BaseUnits                   int
	SystemAdditionUnits         int             // per-day unit additions
	PercentAdditions            decimal.Decimal // e.g. 13.4 for 13.4%
	ImplementationAdditionUnits int             // per-month units
	ChildCount                  int
	AvgUsageDays                decimal.Decimal
}

// Breakdown is the result of Simulate. All yen amounts are monthly except
// Annual.
type Breakdown struct {
	UnitPrice                     decimal.Decimal
	TotalUsageDays                decimal.Decimal
	BaseRevenue                   generic.Yen
	SystemAdditionRevenue         generic.Yen
	PercentBase                   generic.Yen
	PercentAdditionRevenue        generic.Yen
	ImplementationAdditionRevenue generic.Yen
	Total                         generic.Yen
	Annual                        generic.Yen
}

// Simulate computes the monthly revenue breakdown.
func Simulate(in Input) (Breakdown, error) {
	if err := in.Validate(); err != nil {
		return Breakdown{}, err
	}
	price, _ := UnitPrice(in.RegionGrade)

	days := decimal.NewFromInt(int64(in.ChildCount)).Mul(in.AvgUsageDays)
	base := generic.RoundYen(generic.DecInt(in.BaseUnits).Mul(days).Mul(price))
	system := generic.RoundYen(generic.DecInt(in.SystemAdditionUnits).Mul(days).Mul(price))

	percentBase := base + system
	percent := generic.RoundYen(percentBase.Decimal().Mul(in.PercentAdditions).Div(generic.Hundred))

	impl := generic.RoundYen(generic.DecInt(in.ImplementationAdditionUnits).Mul(price))

	total := base + system + percent + impl
	return Breakdown{
		UnitPrice:                     price,
		TotalUsageDays:                days,
		BaseRevenue:                   base,
		SystemAdditionRevenue:         system,
		PercentBase:                   percentBase,
		PercentAdditionRevenue:        percent,
		ImplementationAdditionRevenue: impl,
		Total:                         total,
		Annual:                        total * 12,
	}, nil
}

// Validate checks the grade range and rejects negative inputs.
func (in Input) Validate() error {
	if _, ok := UnitPrice(in.RegionGrade); !ok {
		return fmt.Errorf("%w: region grade %d is outside 1..%d", generic.ErrInvalidSimulation, in.RegionGrade, len(unitPrices))
	}

	ints := []struct {
		name string
		v    int
	}{
		{"base_units", in.BaseUnits},
		{"system_addition_units", in.SystemAdditionUnits},
		{"implementation_addition_units", in.ImplementationAdditionUnits},
		{"child_count", in.ChildCount},
	}
	for _, f := range ints {
		if f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative (got %d)", generic.ErrInvalidSimulation, f.name, f.v)
		}
	}
	if in.PercentAdditions.IsNegative() {
		return fmt.Errorf("%w: percent_additions must not be negative", generic.ErrInvalidSimulation)
	}
	if in.AvgUsageDays.IsNegative() {
		return fmt.Errorf("%w: avg_usage_days must not be negative", generic.ErrInvalidSimulation)
	}
	return nil
}
