package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/staffing"
	"github.com/warp/addition-engine/verification"
)

// =============================================================================
// STAFF - implements staffing.Source
// =============================================================================

type staffRow struct {
	FacilityID            string `db:"facility_id"`
	ID                    string `db:"id"`
	Name                  string `db:"name"`
	WorkStyle             string `db:"work_style"`
	ContractedWeeklyHours string `db:"contracted_weekly_hours"`
	Qualifications        string `db:"qualifications"`
	YearsOfExperience     int    `db:"years_of_experience"`
	PersonnelType         string `db:"personnel_type"`
}

// SaveStaff upserts one staff record of a facility.
func (s *Store) SaveStaff(ctx context.Context, facilityID generic.FacilityID, r staffing.RawStaffRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveStaff(ctx, s.db, facilityID, r)
}

func (s *Store) saveStaff(ctx context.Context, ext sqlx.ExecerContext, facilityID generic.FacilityID, r staffing.RawStaffRecord) error {
	quals, err := json.Marshal(nonNil(r.QualificationCodes))
	if err != nil {
		return fmt.Errorf("encoding qualifications: %w", err)
	}
	err = s.exec(ctx, ext, `
		INSERT INTO staff (facility_id, id, name, work_style, contracted_weekly_hours,
			qualifications, years_of_experience, personnel_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(facility_id, id) DO UPDATE SET
			name = excluded.name,
			work_style = excluded.work_style,
			contracted_weekly_hours = excluded.contracted_weekly_hours,
			qualifications = excluded.qualifications,
			years_of_experience = excluded.years_of_experience,
			personnel_type = excluded.personnel_type
	`, string(facilityID), string(r.ID), r.Name, string(r.WorkStyle), r.ContractedWeeklyHours.String(),
		string(quals), r.YearsOfExperience, string(r.PersonnelType))
	if err != nil {
		return fmt.Errorf("saving staff %s: %w", r.ID, err)
	}
	return nil
}

// StaffRecords returns the roster of a facility ordered by staff ID.
func (s *Store) StaffRecords(ctx context.Context, facilityID generic.FacilityID) ([]staffing.RawStaffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []staffRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT facility_id, id, name, work_style, contracted_weekly_hours,
			qualifications, years_of_experience, personnel_type
		FROM staff WHERE facility_id = ? ORDER BY id
	`), string(facilityID))
	if err != nil {
		return nil, fmt.Errorf("loading staff: %w", err)
	}

	out := make([]staffing.RawStaffRecord, 0, len(rows))
	for _, row := range rows {
		hours, err := decimal.NewFromString(row.ContractedWeeklyHours)
		if err != nil {
			return nil, &generic.InvalidRecordError{RecordID: row.ID, Field: "contracted_weekly_hours", Reason: err.Error()}
		}
		var quals []string
		if err := json.Unmarshal([]byte(row.Qualifications), &quals); err != nil {
			return nil, &generic.InvalidRecordError{RecordID: row.ID, Field: "qualifications", Reason: err.Error()}
		}
		out = append(out, staffing.RawStaffRecord{
			ID:                    generic.StaffID(row.ID),
			Name:                  row.Name,
			WorkStyle:             staffing.WorkStyle(row.WorkStyle),
			ContractedWeeklyHours: hours,
			QualificationCodes:    quals,
			YearsOfExperience:     row.YearsOfExperience,
			PersonnelType:         staffing.PersonnelType(row.PersonnelType),
		})
	}
	return out, nil
}

// =============================================================================
// CHILDREN
// =============================================================================

type childRow struct {
	ID                string `db:"id"`
	Name              string `db:"name"`
	BeneficiaryNumber string `db:"beneficiary_number"`
	IncomeCategory    string `db:"income_category"`
}

// SaveChild upserts one child of a facility.
func (s *Store) SaveChild(ctx context.Context, facilityID generic.FacilityID, c verification.ChildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveChild(ctx, s.db, facilityID, c)
}

func (s *Store) saveChild(ctx context.Context, ext sqlx.ExecerContext, facilityID generic.FacilityID, c verification.ChildRecord) error {
	err := s.exec(ctx, ext, `
		INSERT INTO children (facility_id, id, name, beneficiary_number, income_category)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(facility_id, id) DO UPDATE SET
			name = excluded.name,
			beneficiary_number = excluded.beneficiary_number,
			income_category = excluded.income_category
	`, string(facilityID), string(c.ID), c.Name, c.BeneficiaryNumber, string(c.IncomeCategory))
	if err != nil {
		return fmt.Errorf("saving child %s: %w", c.ID, err)
	}
	return nil
}

// Children returns the child roster of a facility.
func (s *Store) Children(ctx context.Context, facilityID generic.FacilityID) ([]verification.ChildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []childRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, name, beneficiary_number, income_category
		FROM children WHERE facility_id = ? ORDER BY id
	`), string(facilityID))
	if err != nil {
		return nil, fmt.Errorf("loading children: %w", err)
	}

	out := make([]verification.ChildRecord, len(rows))
	for i, row := range rows {
		out[i] = verification.ChildRecord{
			ID:                generic.ChildID(row.ID),
			Name:              row.Name,
			BeneficiaryNumber: row.BeneficiaryNumber,
			IncomeCategory:    verification.IncomeCategory(row.IncomeCategory),
		}
	}
	return out, nil
}

// =============================================================================
// USAGE RECORDS - implements verification.UsageSource
// =============================================================================

type usageRow struct {
	ID              string         `db:"id"`
	ChildID         string         `db:"child_id"`
	ServiceDate     string         `db:"service_date"`
	BillingTarget   string         `db:"billing_target"`
	ActualStartTime sql.NullString `db:"actual_start_time"`
	ActualEndTime   sql.NullString `db:"actual_end_time"`
}

// SaveUsage upserts one usage record.
func (s *Store) SaveUsage(ctx context.Context, facilityID generic.FacilityID, r verification.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUsage(ctx, s.db, facilityID, r)
}

func (s *Store) saveUsage(ctx context.Context, ext sqlx.ExecerContext, facilityID generic.FacilityID, r verification.UsageRecord) error {
	err := s.exec(ctx, ext, `
		INSERT INTO usage_records (id, facility_id, child_id, service_date, billing_target,
			actual_start_time, actual_end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			child_id = excluded.child_id,
			service_date = excluded.service_date,
			billing_target = excluded.billing_target,
			actual_start_time = excluded.actual_start_time,
			actual_end_time = excluded.actual_end_time
	`, r.ID, string(facilityID), string(r.ChildID), r.Date.String(), r.BillingTarget,
		nullPtr(r.ActualStartTime), nullPtr(r.ActualEndTime))
	if err != nil {
		return fmt.Errorf("saving usage record %s: %w", r.ID, err)
	}
	return nil
}

// UsageRecords returns the usage records dated within ym.
// Dates are stored as YYYY-MM-DD, so a lexical range is a date range.
func (s *Store) UsageRecords(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]verification.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []usageRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, child_id, service_date, billing_target, actual_start_time, actual_end_time
		FROM usage_records
		WHERE facility_id = ? AND service_date >= ? AND service_date <= ?
		ORDER BY service_date, id
	`), string(facilityID), ym.Start().String(), ym.End().String())
	if err != nil {
		return nil, fmt.Errorf("loading usage records: %w", err)
	}

	out := make([]verification.UsageRecord, 0, len(rows))
	for _, row := range rows {
		date, err := generic.ParseDate(row.ServiceDate)
		if err != nil {
			return nil, &generic.InvalidRecordError{RecordID: row.ID, Field: "service_date", Reason: err.Error()}
		}
		out = append(out, verification.UsageRecord{
			ID:              row.ID,
			ChildID:         generic.ChildID(row.ChildID),
			Date:            date,
			BillingTarget:   row.BillingTarget,
			ActualStartTime: ptrFromNull(row.ActualStartTime),
			ActualEndTime:   ptrFromNull(row.ActualEndTime),
		})
	}
	return out, nil
}

// =============================================================================
// BILLING RECORDS - implements verification.BillingSource
// =============================================================================

type billingRow struct {
	ID             string `db:"id"`
	ChildID        string `db:"child_id"`
	YearMonth      string `db:"year_month"`
	IncomeCategory string `db:"income_category"`
	TotalCost      int64  `db:"total_cost"`
	CopayAmount    int64  `db:"copay_amount"`
}

// SaveBilling upserts one billing record.
func (s *Store) SaveBilling(ctx context.Context, facilityID generic.FacilityID, r verification.BillingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveBilling(ctx, s.db, facilityID, r)
}

func (s *Store) saveBilling(ctx context.Context, ext sqlx.ExecerContext, facilityID generic.FacilityID, r verification.BillingRecord) error {
	err := s.exec(ctx, ext, `
		INSERT INTO billing_records (id, facility_id, child_id, year_month, income_category,
			total_cost, copay_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			child_id = excluded.child_id,
			year_month = excluded.year_month,
			income_category = excluded.income_category,
			total_cost = excluded.total_cost,
			copay_amount = excluded.copay_amount
	`, r.ID, string(facilityID), string(r.ChildID), r.YearMonth.String(), string(r.IncomeCategory),
		int64(r.TotalCost), int64(r.CopayAmount))
	if err != nil {
		return fmt.Errorf("saving billing record %s: %w", r.ID, err)
	}
	return nil
}

// BillingRecords returns the billing records of one month.
func (s *Store) BillingRecords(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]verification.BillingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []billingRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, child_id, year_month, income_category, total_cost, copay_amount
		FROM billing_records
		WHERE facility_id = ? AND year_month = ?
		ORDER BY child_id, id
	`), string(facilityID), ym.String())
	if err != nil {
		return nil, fmt.Errorf("loading billing records: %w", err)
	}

	out := make([]verification.BillingRecord, len(rows))
	for i, row := range rows {
		out[i] = verification.BillingRecord{
			ID:             row.ID,
			ChildID:        generic.ChildID(row.ChildID),
			YearMonth:      ym,
			IncomeCategory: verification.IncomeCategory(row.IncomeCategory),
			TotalCost:      generic.Yen(row.TotalCost),
			CopayAmount:    generic.Yen(row.CopayAmount),
		}
	}
	return out, nil
}
