package revenue

import "github.com/shopspring/decimal"

// unitPrices maps region grade (地域区分, 1 = 1級地) to yen per unit for
// child development support. Grades 7 and 8 share the flat 10.00 price.
var unitPrices = []decimal.Decimal{
	decimal.RequireFromString("11.20"),
	decimal.RequireFromString("10.96"),
	decimal.RequireFromString("10.90"),
	decimal.RequireFromString("10.72"),
	decimal.RequireFromString("10.60"),
	decimal.RequireFromString("10.36"),
	decimal.RequireFromString("10.00"),
	decimal.RequireFromString("10.00"),
}

// UnitPrice returns the yen-per-unit price for a region grade.
func UnitPrice(grade int) (decimal.Decimal, bool) {
	if grade < 1 || grade > len(unitPrices) {
		return decimal.Zero, false
	}
	return unitPrices[grade-1], true
}

// RegionGrades returns the valid grades in ascending order.
func RegionGrades() []int {
	out := make([]int, len(unitPrices))
	for i := range unitPrices {
		out[i] = i + 1
	}
	return out
}
