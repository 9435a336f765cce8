/*
Package verification checks a month of usage and billing records before
they are submitted to the national health insurance federation (国保連).

PURPOSE:
  Two independent engines classify problems into Error / Warning / Info
  validations. Neither engine blocks anything itself; callers decide policy
  with Validations.BlocksSubmission().

KEY CONCEPTS IN THIS FILE (usage.go):
  - UsageRecord: One service-provision record (実績記録) for a child and date
  - ChildRecord: A roster entry (受給者証 data)
  - ChildUsageSummary: Per-child day accounting for the month
  - VerifyUsage: Completeness checks over a month of records

DAY ACCOUNTING:
  Every accepted record is one usage day. A day is billable when its billing
  target is 請求する, otherwise excluded. BillingDays + ExcludedDays always
  equals UsageDays. A billable day with a missing clock time is still
  billable; it only raises a warning.

SEE ALSO:
  - upper_limit.go: Co-payment cap checks (上限額管理)
  - service.go: Source-backed, fail-closed wrappers
*/
package verification

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

// BillingTargetBill marks a record that is claimed.
const BillingTargetBill = "請求する"

// Validation codes raised by VerifyUsage.
const (
	CodeNoUsageRecords          = "no_usage_records"
	CodeOrphanRecord            = "orphan_record"
	CodeMissingTimes            = "missing_times"
	CodeMissingIncomeCategory   = "missing_income_category"
	CodeMissingBeneficiary      = "missing_beneficiary_number"
	CodeExcludedDays            = "excluded_days"
	CodeOutsideMonth            = "record_outside_month"
	CodeDuplicateRecord         = "duplicate_record"
	CodeVerificationUnavailable = "verification_unavailable"
)

type UsageRecord struct {
	ID              string
	ChildID         generic.ChildID
	Date            generic.TimePoint
	BillingTarget   string
	ActualStartTime *string // "15:00"; nil when not recorded
	ActualEndTime   *string
}

// IsBillable reports whether the record is claimed.
func (r UsageRecord) IsBillable() bool { return r.BillingTarget == BillingTargetBill }

// HasTimes reports whether both clock times are recorded.
func (r UsageRecord) HasTimes() bool { return present(r.ActualStartTime) && present(r.ActualEndTime) }

func present(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }

type ChildRecord struct {
	ID                generic.ChildID
	Name              string
	BeneficiaryNumber string // 受給者証番号
	IncomeCategory    IncomeCategory
}

type ChildUsageSummary struct {
	ChildID              generic.ChildID
	UsageDays            int
	BillingDays          int
	ExcludedDays         int
	HasIncomeCategory    bool
	MissingTimes         []generic.TimePoint
	HasBeneficiaryNumber bool
}

type UsageResult struct {
	YearMonth         generic.YearMonth
	Summaries         []ChildUsageSummary
	TotalUsageDays    int
	TotalBillingDays  int
	TotalExcludedDays int
	CompletionRate    decimal.Decimal // percent, one decimal place
	Validations       generic.Validations
	// Unavailable holds the acquisition failure when the result was produced
	// fail-closed by Service.
	Unavailable error
}

// Summary returns the summary for a child.
func (r UsageResult) Summary(id generic.ChildID) (ChildUsageSummary, bool) {
	for _, s := range r.Summaries {
		if s.ChildID == id {
			return s, true
		}
	}
	return ChildUsageSummary{}, false
}

// =============================================================================
// VERIFY
// =============================================================================

// VerifyUsage runs the completeness checks over one month of records.
// Every roster child gets a summary, including children with no usage.
func VerifyUsage(records []UsageRecord, roster []ChildRecord, ym generic.YearMonth) UsageResult {
	result := UsageResult{YearMonth: ym, CompletionRate: decimal.Zero}

	index := make(map[generic.ChildID]int, len(roster))
	summaries := make([]ChildUsageSummary, len(roster))
	for i, c := range roster {
		index[c.ID] = i
		summaries[i] = ChildUsageSummary{
			ChildID:              c.ID,
			HasIncomeCategory:    c.IncomeCategory != "",
			HasBeneficiaryNumber: strings.TrimSpace(c.BeneficiaryNumber) != "",
		}
	}

	var vs generic.Validations
	seen := make(map[string]bool)
	inMonth := 0
	complete := 0

	for _, r := range sortedByDate(records) {
		if !ym.Contains(r.Date) {
			vs = append(vs, generic.NewWarning(CodeOutsideMonth,
				fmt.Sprintf("record %s dated %s is outside %s and was skipped", r.ID, r.Date, ym)).
				ForChild(r.ChildID).On(r.Date))
			continue
		}
		inMonth++

		i, ok := index[r.ChildID]
		if !ok {
			vs = append(vs, generic.NewError(CodeOrphanRecord,
				fmt.Sprintf("record %s references child %s who is not on the roster", r.ID, r.ChildID)).
				ForChild(r.ChildID).On(r.Date))
			continue
		}

		key := string(r.ChildID) + "|" + r.Date.Key()
		if seen[key] {
			vs = append(vs, generic.NewWarning(CodeDuplicateRecord,
				fmt.Sprintf("second record for %s on %s was skipped", r.ChildID, r.Date)).
				ForChild(r.ChildID).On(r.Date))
			continue
		}
		seen[key] = true

		s := &summaries[i]
		s.UsageDays++
		if !r.IsBillable() {
			s.ExcludedDays++
			continue
		}
		s.BillingDays++
		if r.HasTimes() {
			complete++
			continue
		}
		s.MissingTimes = append(s.MissingTimes, r.Date)
		vs = append(vs, generic.NewWarning(CodeMissingTimes,
			fmt.Sprintf("start or end time missing for %s on %s", r.ChildID, r.Date)).
			ForChild(r.ChildID).On(r.Date))
	}

	for i, s := range summaries {
		result.TotalUsageDays += s.UsageDays
		result.TotalBillingDays += s.BillingDays
		result.TotalExcludedDays += s.ExcludedDays
		vs = append(vs, childValidations(roster[i], s)...)
	}

	if inMonth == 0 {
		vs = append(vs, generic.NewError(CodeNoUsageRecords,
			fmt.Sprintf("no usage records for %s", ym)))
	}

	if result.TotalBillingDays > 0 {
		result.CompletionRate = generic.PercentOf(complete, result.TotalBillingDays).Round(1)
	}
	result.Summaries = summaries
	result.Validations = vs
	return result
}

func childValidations(c ChildRecord, s ChildUsageSummary) generic.Validations {
	var vs generic.Validations
	if s.BillingDays > 0 {
		if !s.HasIncomeCategory {
			vs = append(vs, generic.NewError(CodeMissingIncomeCategory,
				fmt.Sprintf("%s has %d billable day(s) but no income category", label(c), s.BillingDays)).ForChild(c.ID))
		}
		if !s.HasBeneficiaryNumber {
			vs = append(vs, generic.NewWarning(CodeMissingBeneficiary,
				fmt.Sprintf("%s has no beneficiary certificate number", label(c))).ForChild(c.ID))
		}
	}
	if s.ExcludedDays > 0 {
		vs = append(vs, generic.NewInfo(CodeExcludedDays,
			fmt.Sprintf("%s has %d day(s) excluded from billing", label(c), s.ExcludedDays)).ForChild(c.ID))
	}
	return vs
}

func label(c ChildRecord) string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.ID)
}

// sortedByDate orders records by date; records on the same date keep input
// order so "first record wins" is well defined.
func sortedByDate(records []UsageRecord) []UsageRecord {
	out := make([]UsageRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
