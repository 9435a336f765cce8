/*
Package factory provides JSON to Go conversion of facility snapshots.

PURPOSE:
  Converts a JSON facility snapshot into the engine's input types. This lets
  a facility be evaluated and verified offline (CLI), over HTTP without
  persistence (POST /api/evaluate), or loaded as a demo scenario.

JSON SCHEMA:
  {
    "facility": {
      "id": "himawari",
      "name": "ひまわり放課後デイ",
      "service_type": "after_school_day_service",
      "region_grade": 6,
      "capacity": 10,
      "base_units": 604,
      "standard_weekly_hours": 40,
      "held_additions": ["staff_allocation_2_convert"],
      "career_path_level": 4
    },
    "staff": [
      {"id": "s1", "work_style": "fulltime_dedicated", "contracted_weekly_hours": 40,
       "qualifications": ["child_instructor"], "years_of_experience": 6,
       "personnel_type": "addition"}
    ],
    "children": [
      {"id": "c1", "beneficiary_number": "0123456789", "income_category": "general_1"}
    ],
    "usage": [
      {"id": "u1", "child_id": "c1", "date": "2025-06-02",
       "billing_target": "請求する", "start_time": "14:00", "end_time": "17:30"}
    ],
    "billing": [
      {"id": "b1", "child_id": "c1", "year_month": "2025-06",
       "income_category": "general_1", "total_cost": 98000, "copay_amount": 4600}
    ],
    "census": {"child_count": 10, "avg_usage_days": 20}
  }

KEY FEATURES:
  - Decimal fields accept JSON numbers or strings
  - Dates and year-months are validated; bad records fail with
    generic.InvalidRecordError naming the record
  - ToJSON is the inverse, used by the API to echo stored facilities

SEE ALSO:
  - facility/facility.go: Profile
  - api/scenarios.go: Demo snapshots
  - cli/: Offline commands over snapshot files
*/
package factory

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
	"github.com/warp/addition-engine/staffing"
	"github.com/warp/addition-engine/verification"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type SnapshotJSON struct {
	Facility FacilityJSON  `json:"facility"`
	Staff    []StaffJSON   `json:"staff,omitempty"`
	Children []ChildJSON   `json:"children,omitempty"`
	Usage    []UsageJSON   `json:"usage,omitempty"`
	Billing  []BillingJSON `json:"billing,omitempty"`
	Census   *CensusJSON   `json:"census,omitempty"`
}

type FacilityJSON struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	ServiceType         string           `json:"service_type,omitempty"`
	RegionGrade         int              `json:"region_grade"`
	Capacity            int              `json:"capacity,omitempty"`
	BaseUnits           int              `json:"base_units,omitempty"`
	StandardWeeklyHours *decimal.Decimal `json:"standard_weekly_hours,omitempty"`
	HeldAdditions       []string         `json:"held_additions,omitempty"`
	CareerPathLevel     int              `json:"career_path_level,omitempty"`
}

type StaffJSON struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name,omitempty"`
	WorkStyle             string          `json:"work_style"`
	ContractedWeeklyHours decimal.Decimal `json:"contracted_weekly_hours"`
	Qualifications        []string        `json:"qualifications,omitempty"`
	YearsOfExperience     int             `json:"years_of_experience"`
	PersonnelType         string          `json:"personnel_type,omitempty"` // standard (default) | addition
}

type ChildJSON struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	BeneficiaryNumber string `json:"beneficiary_number,omitempty"`
	IncomeCategory    string `json:"income_category,omitempty"`
}

type UsageJSON struct {
	ID            string  `json:"id"`
	ChildID       string  `json:"child_id"`
	Date          string  `json:"date"` // 2006-01-02
	BillingTarget string  `json:"billing_target"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
}

type BillingJSON struct {
	ID             string `json:"id"`
	ChildID        string `json:"child_id"`
	YearMonth      string `json:"year_month"` // 2006-01
	IncomeCategory string `json:"income_category"`
	TotalCost      int64  `json:"total_cost"`
	CopayAmount    int64  `json:"copay_amount"`
}

type CensusJSON struct {
	ChildCount   int             `json:"child_count"`
	AvgUsageDays decimal.Decimal `json:"avg_usage_days"`
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a facility with everything the engine needs to assess and
// verify it.
type Snapshot struct {
	Profile  facility.Profile
	Staff    []staffing.RawStaffRecord
	Children []verification.ChildRecord
	Usage    []verification.UsageRecord
	Billing  []verification.BillingRecord
	Census   *revenue.Census
}

// SnapshotFactory converts JSON snapshots to engine inputs.
type SnapshotFactory struct{}

func NewSnapshotFactory() *SnapshotFactory {
	return &SnapshotFactory{}
}

// ParseSnapshot parses a JSON document into a Snapshot.
func (f *SnapshotFactory) ParseSnapshot(data []byte) (*Snapshot, error) {
	var sj SnapshotJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// LoadFile reads and parses a snapshot file.
func (f *SnapshotFactory) LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return f.ParseSnapshot(data)
}

// FromJSON converts SnapshotJSON to a Snapshot.
func (f *SnapshotFactory) FromJSON(sj SnapshotJSON) (*Snapshot, error) {
	if sj.Facility.ID == "" {
		return nil, &generic.InvalidRecordError{RecordID: "facility", Field: "id", Reason: "required"}
	}

	s := &Snapshot{Profile: ProfileFromJSON(sj.Facility)}

	for _, st := range sj.Staff {
		s.Staff = append(s.Staff, StaffFromJSON(st))
	}
	for _, c := range sj.Children {
		s.Children = append(s.Children, ChildFromJSON(c))
	}
	for _, u := range sj.Usage {
		rec, err := UsageFromJSON(u)
		if err != nil {
			return nil, err
		}
		s.Usage = append(s.Usage, rec)
	}
	for _, b := range sj.Billing {
		rec, err := BillingFromJSON(b)
		if err != nil {
			return nil, err
		}
		s.Billing = append(s.Billing, rec)
	}
	if sj.Census != nil {
		c := s.Profile.Census(sj.Census.ChildCount, sj.Census.AvgUsageDays)
		s.Census = &c
	}
	return s, nil
}

// ToJSON converts a Snapshot back to its JSON form.
func (f *SnapshotFactory) ToJSON(s *Snapshot) SnapshotJSON {
	sj := SnapshotJSON{Facility: ProfileToJSON(s.Profile)}
	for _, st := range s.Staff {
		sj.Staff = append(sj.Staff, StaffToJSON(st))
	}
	for _, c := range s.Children {
		sj.Children = append(sj.Children, ChildJSON{
			ID:                string(c.ID),
			Name:              c.Name,
			BeneficiaryNumber: c.BeneficiaryNumber,
			IncomeCategory:    string(c.IncomeCategory),
		})
	}
	for _, u := range s.Usage {
		sj.Usage = append(sj.Usage, UsageJSON{
			ID:            u.ID,
			ChildID:       string(u.ChildID),
			Date:          u.Date.String(),
			BillingTarget: u.BillingTarget,
			StartTime:     u.ActualStartTime,
			EndTime:       u.ActualEndTime,
		})
	}
	for _, b := range s.Billing {
		sj.Billing = append(sj.Billing, BillingJSON{
			ID:             b.ID,
			ChildID:        string(b.ChildID),
			YearMonth:      b.YearMonth.String(),
			IncomeCategory: string(b.IncomeCategory),
			TotalCost:      int64(b.TotalCost),
			CopayAmount:    int64(b.CopayAmount),
		})
	}
	if s.Census != nil {
		sj.Census = &CensusJSON{ChildCount: s.Census.ChildCount, AvgUsageDays: s.Census.AvgUsageDays}
	}
	return sj
}

// Marshal encodes a Snapshot as indented JSON.
func (f *SnapshotFactory) Marshal(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(f.ToJSON(s), "", "  ")
}

// =============================================================================
// RECORD CONVERSION
// =============================================================================

func ProfileFromJSON(fj FacilityJSON) facility.Profile {
	return facility.Profile{
		ID:                  generic.FacilityID(fj.ID),
		Name:                fj.Name,
		ServiceType:         parseServiceType(fj.ServiceType),
		RegionGrade:         fj.RegionGrade,
		Capacity:            fj.Capacity,
		BaseUnits:           fj.BaseUnits,
		StandardWeeklyHours: fj.StandardWeeklyHours,
		HeldAdditions:       fj.HeldAdditions,
		CareerPathLevel:     fj.CareerPathLevel,
	}
}

func ProfileToJSON(p facility.Profile) FacilityJSON {
	return FacilityJSON{
		ID:                  string(p.ID),
		Name:                p.Name,
		ServiceType:         string(p.ServiceType),
		RegionGrade:         p.RegionGrade,
		Capacity:            p.Capacity,
		BaseUnits:           p.BaseUnits,
		StandardWeeklyHours: p.StandardWeeklyHours,
		HeldAdditions:       p.HeldAdditions,
		CareerPathLevel:     p.CareerPathLevel,
	}
}

// StaffFromJSON converts a staff entry. Work style is passed through
// unchecked; the normalizer rejects unknown values with the record ID.
func StaffFromJSON(sj StaffJSON) staffing.RawStaffRecord {
	return staffing.RawStaffRecord{
		ID:                    generic.StaffID(sj.ID),
		Name:                  sj.Name,
		WorkStyle:             staffing.WorkStyle(sj.WorkStyle),
		ContractedWeeklyHours: sj.ContractedWeeklyHours,
		QualificationCodes:    sj.Qualifications,
		YearsOfExperience:     sj.YearsOfExperience,
		PersonnelType:         parsePersonnelType(sj.PersonnelType),
	}
}

func StaffToJSON(r staffing.RawStaffRecord) StaffJSON {
	return StaffJSON{
		ID:                    string(r.ID),
		Name:                  r.Name,
		WorkStyle:             string(r.WorkStyle),
		ContractedWeeklyHours: r.ContractedWeeklyHours,
		Qualifications:        r.QualificationCodes,
		YearsOfExperience:     r.YearsOfExperience,
		PersonnelType:         string(r.PersonnelType),
	}
}

func ChildFromJSON(cj ChildJSON) verification.ChildRecord {
	return verification.ChildRecord{
		ID:                generic.ChildID(cj.ID),
		Name:              cj.Name,
		BeneficiaryNumber: cj.BeneficiaryNumber,
		IncomeCategory:    verification.IncomeCategory(cj.IncomeCategory),
	}
}

func UsageFromJSON(uj UsageJSON) (verification.UsageRecord, error) {
	date, err := generic.ParseDate(uj.Date)
	if err != nil {
		return verification.UsageRecord{}, &generic.InvalidRecordError{RecordID: uj.ID, Field: "date", Reason: err.Error()}
	}
	return verification.UsageRecord{
		ID:              uj.ID,
		ChildID:         generic.ChildID(uj.ChildID),
		Date:            date,
		BillingTarget:   uj.BillingTarget,
		ActualStartTime: uj.StartTime,
		ActualEndTime:   uj.EndTime,
	}, nil
}

func BillingFromJSON(bj BillingJSON) (verification.BillingRecord, error) {
	ym, err := generic.ParseYearMonth(bj.YearMonth)
	if err != nil {
		return verification.BillingRecord{}, &generic.InvalidRecordError{RecordID: bj.ID, Field: "year_month", Reason: err.Error()}
	}
	return verification.BillingRecord{
		ID:             bj.ID,
		ChildID:        generic.ChildID(bj.ChildID),
		YearMonth:      ym,
		IncomeCategory: verification.IncomeCategory(bj.IncomeCategory),
		TotalCost:      generic.Yen(bj.TotalCost),
		CopayAmount:    generic.Yen(bj.CopayAmount),
	}, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseServiceType(s string) facility.ServiceType {
	switch s {
	case "child_development_support", "jihatsu":
		return facility.ServiceChildDevelopment
	default:
		return facility.ServiceAfterSchool
	}
}

func parsePersonnelType(s string) staffing.PersonnelType {
	switch s {
	case "addition", "kahai":
		return staffing.PersonnelAddition
	default:
		return staffing.PersonnelStandard
	}
}
