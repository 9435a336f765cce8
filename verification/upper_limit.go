package verification

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

// IncomeCategory is the household classification on the beneficiary
// certificate. It determines the monthly co-payment limit.
type IncomeCategory string

const (
	IncomeWelfare   IncomeCategory = "welfare"    // 生活保護
	IncomeLowIncome IncomeCategory = "low_income" // 低所得
	IncomeGeneral1  IncomeCategory = "general_1"  // 一般1
	IncomeGeneral2  IncomeCategory = "general_2"  // 一般2
)

var upperLimits = map[IncomeCategory]generic.Yen{
	IncomeWelfare:   0,
	IncomeLowIncome: 0,
	IncomeGeneral1:  4_600,
	IncomeGeneral2:  37_200,
}

// UpperLimit returns the monthly limit for the category.
func (c IncomeCategory) UpperLimit() (generic.Yen, bool) {
	limit, ok := upperLimits[c]
	return limit, ok
}

// IsZeroCopay reports whether the category legally owes nothing. A limit of 0
// means "no co-payment", not "always at the cap".
func (c IncomeCategory) IsZeroCopay() bool {
	limit, ok := upperLimits[c]
	return ok && limit == 0
}

func (c IncomeCategory) Valid() bool {
	_, ok := upperLimits[c]
	return ok
}

// IncomeCategories returns the known categories ordered by limit.
func IncomeCategories() []IncomeCategory {
	return []IncomeCategory{IncomeWelfare, IncomeLowIncome, IncomeGeneral1, IncomeGeneral2}
}

// Validation codes raised by CheckUpperLimits.
const (
	CodeZeroCopayCharged      = "copay_charged_to_exempt_category"
	CodeMixedIncomeCategory   = "mixed_income_category"
	CodeAtLimit               = "at_upper_limit"
	CodeNearLimit             = "near_upper_limit"
	CodeUnknownIncomeCategory = "unknown_income_category"
	CodeBillingOutsideMonth   = "billing_outside_month"
	CodeNegativeBillingAmount = "negative_billing_amount"
)

var (
	copayRate     = decimal.RequireFromString("0.10")
	nearLimitRate = decimal.RequireFromString("0.8")
)

type BillingRecord struct {
	ID             string
	ChildID        generic.ChildID
	YearMonth      generic.YearMonth
	IncomeCategory IncomeCategory
	TotalCost      generic.Yen // 総費用額
	CopayAmount    generic.Yen // co-payment actually charged
}

type UpperLimitChildResult struct {
	ChildID          generic.ChildID
	IncomeCategory   IncomeCategory
	UpperLimitAmount generic.Yen
	TotalCost        generic.Yen
	CalculatedCopay  generic.Yen // floor(total × 10%)
	AppliedCopay     generic.Yen
	IsAtLimit        bool
	IsNearLimit      bool
	PercentOfLimit   decimal.Decimal
}

type UpperLimitResult struct {
	YearMonth      generic.YearMonth
	Children       []UpperLimitChildResult
	TotalCopay     generic.Yen
	AtLimitCount   int
	NearLimitCount int
	Validations    generic.Validations
	Unavailable    error
}

// =============================================================================
// CHECK
// =============================================================================

// CheckUpperLimits evaluates every child's monthly co-payment against the
// limit for their income category. Records for the same child and category
// are summed. A child billed under more than one category gets one row per
// category, so a charged zero-copay record is never absorbed into another
// category's total.
func CheckUpperLimits(records []BillingRecord, ym generic.YearMonth) UpperLimitResult {
	result := UpperLimitResult{YearMonth: ym}
	var vs generic.Validations

	type key struct {
		child    generic.ChildID
		category IncomeCategory
	}
	type acc struct {
		total   generic.Yen
		applied generic.Yen
	}
	sums := make(map[key]*acc)
	categories := make(map[generic.ChildID][]IncomeCategory)
	var order []key

	for _, r := range records {
		if !r.YearMonth.IsZero() && r.YearMonth != ym {
			vs = append(vs, generic.NewWarning(CodeBillingOutsideMonth,
				fmt.Sprintf("billing record %s is for %s, not %s, and was skipped", r.ID, r.YearMonth, ym)).ForChild(r.ChildID))
			continue
		}
		if r.TotalCost < 0 || r.CopayAmount < 0 {
			// Record-level; the child-level checks stay one finding per child.
			vs = append(vs, generic.NewError(CodeNegativeBillingAmount,
				fmt.Sprintf("billing record %s for %s has a negative amount", r.ID, r.ChildID)))
			continue
		}

		k := key{r.ChildID, r.IncomeCategory}
		a, ok := sums[k]
		if !ok {
			a = &acc{}
			sums[k] = a
			order = append(order, k)
			categories[r.ChildID] = append(categories[r.ChildID], r.IncomeCategory)
		}
		a.total += r.TotalCost
		a.applied += r.CopayAmount
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].child != order[j].child {
			return order[i].child < order[j].child
		}
		return order[i].category < order[j].category
	})

	warned := make(map[generic.ChildID]bool)
	for _, k := range order {
		if cats := categories[k.child]; len(cats) > 1 && !warned[k.child] {
			warned[k.child] = true
			vs = append(vs, generic.NewWarning(CodeMixedIncomeCategory,
				fmt.Sprintf("%s is billed under %d income categories %v; each is checked separately", k.child, len(cats), cats)).ForChild(k.child))
		}

		a := sums[k]
		cr, cvs := checkChild(k.child, k.category, a.total, a.applied)
		vs = append(vs, cvs...)

		result.Children = append(result.Children, cr)
		result.TotalCopay += cr.AppliedCopay
		if cr.IsAtLimit {
			result.AtLimitCount++
		}
		if cr.IsNearLimit {
			result.NearLimitCount++
		}
	}

	result.Validations = vs
	return result
}

func checkChild(id generic.ChildID, category IncomeCategory, total, applied generic.Yen) (UpperLimitChildResult, generic.Validations) {
	r := UpperLimitChildResult{
		ChildID:         id,
		IncomeCategory:  category,
		TotalCost:       total,
		CalculatedCopay: generic.FloorYen(total.Decimal().Mul(copayRate)),
		AppliedCopay:    applied,
		PercentOfLimit:  decimal.Zero,
	}

	limit, known := category.UpperLimit()
	if !known {
		return r, generic.Validations{generic.NewError(CodeUnknownIncomeCategory,
			fmt.Sprintf("%s has unknown income category %q; the co-payment limit cannot be checked", id, category)).ForChild(id)}
	}
	r.UpperLimitAmount = limit

	if limit == 0 {
		if applied > 0 {
			return r, generic.Validations{generic.NewError(CodeZeroCopayCharged,
				fmt.Sprintf("%s is in the %s category and owes no co-payment, but ¥%d was charged", id, category, applied)).ForChild(id)}
		}
		return r, nil
	}

	r.PercentOfLimit = generic.Percent(applied.Decimal(), limit.Decimal()).Round(1)
	r.IsAtLimit = applied >= limit
	r.IsNearLimit = applied.Decimal().GreaterThan(limit.Decimal().Mul(nearLimitRate))

	var vs generic.Validations
	switch {
	case applied > limit:
		vs = append(vs, generic.NewWarning(CodeAtLimit,
			fmt.Sprintf("%s was charged ¥%d, above the monthly limit of ¥%d", id, applied, limit)).ForChild(id))
	case r.IsAtLimit:
		vs = append(vs, generic.NewWarning(CodeAtLimit,
			fmt.Sprintf("%s reached the monthly limit of ¥%d", id, limit)).ForChild(id))
	case r.IsNearLimit:
		vs = append(vs, generic.NewInfo(CodeNearLimit,
			fmt.Sprintf("%s is at %s%% of the monthly limit", id, r.PercentOfLimit.StringFixed(1))).ForChild(id))
	}
	return r, vs
}
