/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine types carry
  decimals, typed IDs and pointer-heavy validations; the DTOs flatten them
  into a stable contract for the dashboard.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Facility:
    factory.FacilityJSON is reused as-is for both directions

  Eligibility:
    JudgmentDTO, RequirementDTO, StatisticsDTO, EligibilityResponse

  Revenue:
    SimulateRequest, SimulationDTO, SuggestionDTO

  Verification:
    ValidationDTO, UsageResultDTO, UpperLimitResultDTO, RunDTO

SEE ALSO:
  - handlers.go: Uses these types
  - factory/snapshot.go: Snapshot JSON definitions
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/advisor"
	"github.com/warp/addition-engine/eligibility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
	"github.com/warp/addition-engine/staffing"
	"github.com/warp/addition-engine/verification"
)

// =============================================================================
// ELIGIBILITY
// =============================================================================

type RequirementDTO struct {
	Name      string          `json:"name"`
	Met       bool            `json:"met"`
	Current   decimal.Decimal `json:"current"`
	Required  decimal.Decimal `json:"required"`
	Unit      string          `json:"unit"`
	Bound     string          `json:"bound"`
	OneOf     string          `json:"one_of,omitempty"`
	Shortfall decimal.Decimal `json:"shortfall"`
	Detail    string          `json:"detail,omitempty"`
}

type JudgmentDTO struct {
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	ShortName       string           `json:"short_name"`
	Group           string           `json:"group"`
	Priority        uint8            `json:"priority"`
	ValueKind       string           `json:"value_kind"`
	Value           string           `json:"value"`
	IsEligible      bool             `json:"is_eligible"`
	IsCurrentlyHeld bool             `json:"is_currently_held"`
	Resolution      string           `json:"resolution,omitempty"`
	Reason          string           `json:"reason"`
	Requirements    []RequirementDTO `json:"requirements"`
}

type StatisticsDTO struct {
	TotalStaff                 int             `json:"total_staff"`
	AdditionFTE                decimal.Decimal `json:"addition_fte"`
	AdditionInstructorFTE      decimal.Decimal `json:"addition_instructor_fte"`
	SpecialistStructureFTE     decimal.Decimal `json:"specialist_structure_fte"`
	Instructors                int             `json:"instructors"`
	FulltimeInstructors        int             `json:"fulltime_instructors"`
	WelfareQualifiedFulltime   int             `json:"welfare_qualified_fulltime"`
	TenuredFulltimeInstructors int             `json:"tenured_fulltime_instructors"`
	WelfareRate                decimal.Decimal `json:"welfare_rate"`
	FulltimeRatio              decimal.Decimal `json:"fulltime_ratio"`
	TenureRatio                decimal.Decimal `json:"tenure_ratio"`
}

// EligibilityResponse carries both the raw evaluation and the resolved view.
type EligibilityResponse struct {
	FacilityID    string          `json:"facility_id"`
	Statistics    StatisticsDTO   `json:"statistics"`
	Judgments     []JudgmentDTO   `json:"judgments"`
	Resolved      []JudgmentDTO   `json:"resolved"`
	Selected      []string        `json:"selected"`
	AdditionUnits int             `json:"addition_units"`
	PercentRate   decimal.Decimal `json:"percent_rate"`
}

// =============================================================================
// REVENUE
// =============================================================================

type SimulateRequest struct {
	RegionGrade                 int             `json:"region_grade"`
	BaseUnits                   int             `json:"base_units"`
	SystemAdditionUnits         int             `json:"system_addition_units"`
	PercentAdditions            decimal.Decimal `json:"percent_additions"`
	ImplementationAdditionUnits int             `json:"implementation_addition_units"`
	ChildCount                  int             `json:"child_count"`
	AvgUsageDays                decimal.Decimal `json:"avg_usage_days"`
}

func (r SimulateRequest) input() revenue.Input {
	return revenue.Input{
		RegionGrade:                 r.RegionGrade,
		BaseUnits:                   r.BaseUnits,
		SystemAdditionUnits:         r.SystemAdditionUnits,
		PercentAdditions:            r.PercentAdditions,
		ImplementationAdditionUnits: r.ImplementationAdditionUnits,
		ChildCount:                  r.ChildCount,
		AvgUsageDays:                r.AvgUsageDays,
	}
}

type SimulationDTO struct {
	UnitPrice                     decimal.Decimal `json:"unit_price"`
	TotalUsageDays                decimal.Decimal `json:"total_usage_days"`
	BaseRevenue                   int64           `json:"base_revenue"`
	SystemAdditionRevenue         int64           `json:"system_addition_revenue"`
	PercentBase                   int64           `json:"percent_base"`
	PercentAdditionRevenue        int64           `json:"percent_addition_revenue"`
	ImplementationAdditionRevenue int64           `json:"implementation_addition_revenue"`
	Total                         int64           `json:"total"`
	Annual                        int64           `json:"annual"`
	Additions                     []string        `json:"additions,omitempty"`
}

type SuggestionDTO struct {
	Kind                string           `json:"kind"`
	Priority            string           `json:"priority"`
	Code                string           `json:"code"`
	From                string           `json:"from,omitempty"`
	Group               string           `json:"group"`
	Title               string           `json:"title"`
	Message             string           `json:"message"`
	Gain                decimal.Decimal  `json:"gain"`
	ValueKind           string           `json:"value_kind"`
	EstimatedMonthlyYen *int64           `json:"estimated_monthly_yen,omitempty"`
	Missing             []RequirementDTO `json:"missing,omitempty"`
}

// =============================================================================
// VERIFICATION
// =============================================================================

type ValidationDTO struct {
	Severity string  `json:"severity"`
	Code     string  `json:"code"`
	Message  string  `json:"message"`
	ChildID  *string `json:"child_id,omitempty"`
	Date     *string `json:"date,omitempty"`
}

type ChildUsageDTO struct {
	ChildID              string   `json:"child_id"`
	UsageDays            int      `json:"usage_days"`
	BillingDays          int      `json:"billing_days"`
	ExcludedDays         int      `json:"excluded_days"`
	HasIncomeCategory    bool     `json:"has_income_category"`
	HasBeneficiaryNumber bool     `json:"has_beneficiary_number"`
	MissingTimes         []string `json:"missing_times,omitempty"`
}

type UsageResultDTO struct {
	YearMonth         string          `json:"year_month"`
	Children          []ChildUsageDTO `json:"children"`
	TotalUsageDays    int             `json:"total_usage_days"`
	TotalBillingDays  int             `json:"total_billing_days"`
	TotalExcludedDays int             `json:"total_excluded_days"`
	CompletionRate    decimal.Decimal `json:"completion_rate"`
	BlocksSubmission  bool            `json:"blocks_submission"`
	Validations       []ValidationDTO `json:"validations"`
}

type UpperLimitChildDTO struct {
	ChildID          string          `json:"child_id"`
	IncomeCategory   string          `json:"income_category"`
	UpperLimitAmount int64           `json:"upper_limit_amount"`
	TotalCost        int64           `json:"total_cost"`
	CalculatedCopay  int64           `json:"calculated_copay"`
	AppliedCopay     int64           `json:"applied_copay"`
	IsAtLimit        bool            `json:"is_at_limit"`
	IsNearLimit      bool            `json:"is_near_limit"`
	PercentOfLimit   decimal.Decimal `json:"percent_of_limit"`
}

type UpperLimitResultDTO struct {
	YearMonth        string               `json:"year_month"`
	Children         []UpperLimitChildDTO `json:"children"`
	TotalCopay       int64                `json:"total_copay"`
	AtLimitCount     int                  `json:"at_limit_count"`
	NearLimitCount   int                  `json:"near_limit_count"`
	BlocksSubmission bool                 `json:"blocks_submission"`
	Validations      []ValidationDTO      `json:"validations"`
}

type RunDTO struct {
	ID               string  `json:"id"`
	FacilityID       string  `json:"facility_id"`
	YearMonth        string  `json:"year_month"`
	Status           string  `json:"status"`
	Errors           int     `json:"errors"`
	Warnings         int     `json:"warnings"`
	Infos            int     `json:"infos"`
	BlocksSubmission bool    `json:"blocks_submission"`
	Error            string  `json:"error,omitempty"`
	StartedAt        *string `json:"started_at,omitempty"`
	CompletedAt      *string `json:"completed_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// =============================================================================
// MISC
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toRequirementDTOs(reqs []eligibility.RequirementStatus) []RequirementDTO {
	out := make([]RequirementDTO, len(reqs))
	for i, r := range reqs {
		out[i] = RequirementDTO{
			Name:      r.Name,
			Met:       r.Met,
			Current:   r.Current,
			Required:  r.Required,
			Unit:      string(r.Unit),
			Bound:     string(r.Bound),
			OneOf:     r.OneOf,
			Shortfall: r.Shortfall(),
			Detail:    r.Detail,
		}
	}
	return out
}

func toJudgmentDTOs(js []eligibility.Judgment) []JudgmentDTO {
	out := make([]JudgmentDTO, len(js))
	for i, j := range js {
		out[i] = JudgmentDTO{
			Code:            string(j.Code),
			Name:            j.Name,
			ShortName:       j.ShortName,
			Group:           j.Group.String(),
			Priority:        j.Priority,
			ValueKind:       string(j.Value.Kind),
			Value:           j.Value.String(),
			IsEligible:      j.IsEligible,
			IsCurrentlyHeld: j.IsCurrentlyHeld,
			Resolution:      string(j.Resolution),
			Reason:          j.Reason,
			Requirements:    toRequirementDTOs(j.Requirements),
		}
	}
	return out
}

func toStatisticsDTO(s staffing.Statistics) StatisticsDTO {
	return StatisticsDTO{
		TotalStaff:                 s.TotalStaff,
		AdditionFTE:                s.AdditionFTE,
		AdditionInstructorFTE:      s.AdditionInstructorFTE,
		SpecialistStructureFTE:     s.SpecialistStructureFTE,
		Instructors:                s.Instructors,
		FulltimeInstructors:        s.FulltimeInstructors,
		WelfareQualifiedFulltime:   s.WelfareQualifiedFulltime,
		TenuredFulltimeInstructors: s.TenuredFulltimeInstructors,
		WelfareRate:                s.WelfareRate(),
		FulltimeRatio:              s.FulltimeRatio(),
		TenureRatio:                s.TenureRatio(),
	}
}

func toSimulationDTO(b revenue.Breakdown, codes []eligibility.Code) SimulationDTO {
	dto := SimulationDTO{
		UnitPrice:                     b.UnitPrice,
		TotalUsageDays:                b.TotalUsageDays,
		BaseRevenue:                   int64(b.BaseRevenue),
		SystemAdditionRevenue:         int64(b.SystemAdditionRevenue),
		PercentBase:                   int64(b.PercentBase),
		PercentAdditionRevenue:        int64(b.PercentAdditionRevenue),
		ImplementationAdditionRevenue: int64(b.ImplementationAdditionRevenue),
		Total:                         int64(b.Total),
		Annual:                        int64(b.Annual),
	}
	for _, c := range codes {
		dto.Additions = append(dto.Additions, string(c))
	}
	return dto
}

func toSuggestionDTOs(ss []advisor.Suggestion) []SuggestionDTO {
	out := make([]SuggestionDTO, len(ss))
	for i, s := range ss {
		out[i] = SuggestionDTO{
			Kind:      string(s.Kind),
			Priority:  string(s.Priority),
			Code:      string(s.Code),
			From:      string(s.From),
			Group:     s.Group.String(),
			Title:     s.Title,
			Message:   s.Message,
			Gain:      s.Gain,
			ValueKind: string(s.ValueKind),
		}
		if s.EstimatedMonthlyYen != nil {
			yen := int64(*s.EstimatedMonthlyYen)
			out[i].EstimatedMonthlyYen = &yen
		}
		if len(s.Missing) > 0 {
			out[i].Missing = toRequirementDTOs(s.Missing)
		}
	}
	return out
}

func toValidationDTOs(vs generic.Validations) []ValidationDTO {
	out := make([]ValidationDTO, len(vs))
	for i, v := range vs {
		out[i] = ValidationDTO{
			Severity: string(v.Severity),
			Code:     v.Code,
			Message:  v.Message,
		}
		if v.ChildID != nil {
			id := string(*v.ChildID)
			out[i].ChildID = &id
		}
		if v.Date != nil {
			d := v.Date.String()
			out[i].Date = &d
		}
	}
	return out
}

func toUsageResultDTO(r verification.UsageResult) UsageResultDTO {
	dto := UsageResultDTO{
		YearMonth:         r.YearMonth.String(),
		Children:          make([]ChildUsageDTO, len(r.Summaries)),
		TotalUsageDays:    r.TotalUsageDays,
		TotalBillingDays:  r.TotalBillingDays,
		TotalExcludedDays: r.TotalExcludedDays,
		CompletionRate:    r.CompletionRate,
		BlocksSubmission:  r.Validations.BlocksSubmission(),
		Validations:       toValidationDTOs(r.Validations),
	}
	for i, s := range r.Summaries {
		c := ChildUsageDTO{
			ChildID:              string(s.ChildID),
			UsageDays:            s.UsageDays,
			BillingDays:          s.BillingDays,
			ExcludedDays:         s.ExcludedDays,
			HasIncomeCategory:    s.HasIncomeCategory,
			HasBeneficiaryNumber: s.HasBeneficiaryNumber,
		}
		for _, d := range s.MissingTimes {
			c.MissingTimes = append(c.MissingTimes, d.String())
		}
		dto.Children[i] = c
	}
	return dto
}

func toUpperLimitResultDTO(r verification.UpperLimitResult) UpperLimitResultDTO {
	dto := UpperLimitResultDTO{
		YearMonth:        r.YearMonth.String(),
		Children:         make([]UpperLimitChildDTO, len(r.Children)),
		TotalCopay:       int64(r.TotalCopay),
		AtLimitCount:     r.AtLimitCount,
		NearLimitCount:   r.NearLimitCount,
		BlocksSubmission: r.Validations.BlocksSubmission(),
		Validations:      toValidationDTOs(r.Validations),
	}
	for i, c := range r.Children {
		dto.Children[i] = UpperLimitChildDTO{
			ChildID:          string(c.ChildID),
			IncomeCategory:   string(c.IncomeCategory),
			UpperLimitAmount: int64(c.UpperLimitAmount),
			TotalCost:        int64(c.TotalCost),
			CalculatedCopay:  int64(c.CalculatedCopay),
			AppliedCopay:     int64(c.AppliedCopay),
			IsAtLimit:        c.IsAtLimit,
			IsNearLimit:      c.IsNearLimit,
			PercentOfLimit:   c.PercentOfLimit,
		}
	}
	return dto
}

func toRunDTO(r verification.Run) RunDTO {
	return RunDTO{
		ID:               r.ID,
		FacilityID:       string(r.FacilityID),
		YearMonth:        r.YearMonth.String(),
		Status:           string(r.Status),
		Errors:           r.Errors,
		Warnings:         r.Warnings,
		Infos:            r.Infos,
		BlocksSubmission: r.BlocksSubmission,
		Error:            r.Error,
		StartedAt:        formatTime(r.StartedAt),
		CompletedAt:      formatTime(r.CompletedAt),
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
