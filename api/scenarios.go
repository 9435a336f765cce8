/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built facilities that populate the database with realistic
	rosters, children, usage and billing for the previous month. Each
	scenario demonstrates a specific part of the engine.

AVAILABLE SCENARIOS:

	well-staffed:    Top staff allocation tier, welfare tier I, treatment I
	understaffed:    0.6 FTE of addition staff, closest miss on tier 1
	billing-issues:  Missing clock times, an orphan record, a charged
	                 welfare child and a child at the co-payment limit

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build a factory.Snapshot dated in the previous month
 3. Import it in one transaction

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "billing-issues"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Facility and verification handlers
  - factory/snapshot.go: Snapshot definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/factory"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
	"github.com/warp/addition-engine/staffing"
	"github.com/warp/addition-engine/verification"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "well-staffed",
		Name:        "Well-Staffed Facility",
		Description: "Experienced addition instructor, welfare-qualified full-time team, career path level 5",
		Category:    "eligibility",
	},
	{
		ID:          "understaffed",
		Name:        "Understaffed Facility",
		Description: "A single part-time addition worker at 0.6 FTE; shows the closest miss",
		Category:    "eligibility",
	},
	{
		ID:          "billing-issues",
		Name:        "Billing Issues",
		Description: "Usage records with gaps and co-payments that break the upper-limit rules",
		Category:    "verification",
	},
}

var scenarioBuilders = map[string]func(generic.YearMonth) *factory.Snapshot{
	"well-staffed":   wellStaffedScenario,
	"understaffed":   understaffedScenario,
	"billing-issues": billingIssuesScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	build, ok := scenarioBuilders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID, build); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) loadScenario(ctx context.Context, id string, build func(generic.YearMonth) *factory.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""

	month := generic.YearMonthOf(generic.Today()).Previous()
	if err := h.Store.ImportSnapshot(ctx, build(month)); err != nil {
		return err
	}
	h.currentScenario = id
	return nil
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func wellStaffedScenario(month generic.YearMonth) *factory.Snapshot {
	p := facility.Profile{
		ID:              "himawari",
		Name:            "ひまわり児童発達支援センター",
		ServiceType:     facility.ServiceChildDevelopment,
		RegionGrade:     3,
		Capacity:        10,
		BaseUnits:       604,
		HeldAdditions:   []string{"staff_allocation_2_fulltime"},
		CareerPathLevel: 5,
	}
	children := []verification.ChildRecord{
		scenarioChild("c-001", "山田 太郎", verification.IncomeGeneral1),
		scenarioChild("c-002", "佐藤 花子", verification.IncomeGeneral2),
	}

	var usage []verification.UsageRecord
	for d := 2; d <= 20; d += 3 {
		usage = append(usage,
			attended(month, "c-001", d, "10:00", "15:00"),
			attended(month, "c-002", d+1, "10:00", "15:00"))
	}

	return &factory.Snapshot{
		Profile: p,
		Staff: []staffing.RawStaffRecord{
			scenarioStaff("s-001", "主任 指導員", staffing.FulltimeDedicated, 40, 8, staffing.PersonnelAddition, staffing.QualChildInstructor),
			scenarioStaff("s-002", "社会福祉士", staffing.FulltimeDedicated, 40, 4, staffing.PersonnelStandard, staffing.QualSocialWorker),
			scenarioStaff("s-003", "介護福祉士", staffing.FulltimeConcurrent, 40, 2, staffing.PersonnelStandard, staffing.QualCareWorker),
			scenarioStaff("s-004", "保育士", staffing.ParttimeDedicated, 20, 1, staffing.PersonnelStandard, staffing.QualNurseryTeacher),
		},
		Children: children,
		Usage:    usage,
		Billing: []verification.BillingRecord{
			scenarioBill(month, "c-001", verification.IncomeGeneral1, 60_000, 4_600),
			scenarioBill(month, "c-002", verification.IncomeGeneral2, 60_000, 6_000),
		},
		Census: &revenue.Census{RegionGrade: p.RegionGrade, BaseUnits: p.BaseUnits, ChildCount: 10, AvgUsageDays: decimal.NewFromInt(18)},
	}
}

func understaffedScenario(month generic.YearMonth) *factory.Snapshot {
	p := facility.Profile{
		ID:              "tsubasa",
		Name:            "つばさ放課後等デイサービス",
		ServiceType:     facility.ServiceAfterSchool,
		RegionGrade:     7,
		Capacity:        10,
		BaseUnits:       500,
		CareerPathLevel: 2,
	}
	return &factory.Snapshot{
		Profile: p,
		Staff: []staffing.RawStaffRecord{
			scenarioStaff("s-101", "管理者", staffing.FulltimeDedicated, 40, 10, staffing.PersonnelStandard, staffing.QualChildInstructor),
			scenarioStaff("s-102", "パート支援員", staffing.ParttimeDedicated, 24, 0, staffing.PersonnelAddition),
		},
		Children: []verification.ChildRecord{scenarioChild("c-101", "鈴木 一郎", verification.IncomeLowIncome)},
		Usage:    []verification.UsageRecord{attended(month, "c-101", 5, "15:00", "18:00")},
		Billing:  []verification.BillingRecord{scenarioBill(month, "c-101", verification.IncomeLowIncome, 10_000, 0)},
		Census:   &revenue.Census{RegionGrade: p.RegionGrade, BaseUnits: p.BaseUnits, ChildCount: 8, AvgUsageDays: decimal.NewFromInt(12)},
	}
}

func billingIssuesScenario(month generic.YearMonth) *factory.Snapshot {
	p := facility.Profile{
		ID:          "kodama",
		Name:        "こだま放課後等デイサービス",
		ServiceType: facility.ServiceAfterSchool,
		RegionGrade: 6,
		Capacity:    10,
		BaseUnits:   550,
	}
	noBeneficiary := scenarioChild("c-203", "伊藤 次郎", verification.IncomeGeneral1)
	noBeneficiary.BeneficiaryNumber = ""

	missingEnd := attended(month, "c-201", 4, "15:00", "")
	missingEnd.ActualEndTime = nil

	excluded := attended(month, "c-202", 6, "15:00", "17:00")
	excluded.BillingTarget = "請求しない"

	return &factory.Snapshot{
		Profile: p,
		Staff: []staffing.RawStaffRecord{
			scenarioStaff("s-201", "管理者", staffing.FulltimeDedicated, 40, 3, staffing.PersonnelStandard, staffing.QualNurseryTeacher),
		},
		Children: []verification.ChildRecord{
			scenarioChild("c-201", "高橋 三郎", verification.IncomeGeneral1),
			scenarioChild("c-202", "田中 桜", verification.IncomeWelfare),
			noBeneficiary,
		},
		Usage: []verification.UsageRecord{
			attended(month, "c-201", 2, "15:00", "17:30"),
			missingEnd,
			attended(month, "c-202", 3, "15:00", "17:00"),
			excluded,
			attended(month, "c-203", 3, "15:00", "17:00"),
			attended(month, "c-999", 9, "15:00", "17:00"),
		},
		Billing: []verification.BillingRecord{
			scenarioBill(month, "c-201", verification.IncomeGeneral1, 120_000, 4_600),
			scenarioBill(month, "c-202", verification.IncomeWelfare, 20_000, 2_000),
			scenarioBill(month, "c-203", verification.IncomeGeneral1, 40_000, 4_000),
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func scenarioStaff(id, name string, style staffing.WorkStyle, hours, years int, personnel staffing.PersonnelType, quals ...staffing.QualificationCode) staffing.RawStaffRecord {
	codes := make([]string, len(quals))
	for i, q := range quals {
		codes[i] = string(q)
	}
	return staffing.RawStaffRecord{
		ID:                    generic.StaffID(id),
		Name:                  name,
		WorkStyle:             style,
		ContractedWeeklyHours: decimal.NewFromInt(int64(hours)),
		QualificationCodes:    codes,
		YearsOfExperience:     years,
		PersonnelType:         personnel,
	}
}

func scenarioChild(id, name string, category verification.IncomeCategory) verification.ChildRecord {
	return verification.ChildRecord{
		ID:                generic.ChildID(id),
		Name:              name,
		BeneficiaryNumber: "13" + id[len(id)-3:] + "00001",
		IncomeCategory:    category,
	}
}

func attended(month generic.YearMonth, child string, day int, start, end string) verification.UsageRecord {
	return verification.UsageRecord{
		ID:              newID("usage"),
		ChildID:         generic.ChildID(child),
		Date:            month.Start().AddDays(day - 1),
		BillingTarget:   verification.BillingTargetBill,
		ActualStartTime: &start,
		ActualEndTime:   &end,
	}
}

func scenarioBill(month generic.YearMonth, child string, category verification.IncomeCategory, total, copay generic.Yen) verification.BillingRecord {
	return verification.BillingRecord{
		ID:             newID("billing"),
		ChildID:        generic.ChildID(child),
		YearMonth:      month,
		IncomeCategory: category,
		TotalCost:      total,
		CopayAmount:    copay,
	}
}
