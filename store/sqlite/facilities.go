package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/generic"
)

// =============================================================================
// FACILITY OPERATIONS
// =============================================================================

type facilityRow struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	ServiceType         string         `db:"service_type"`
	RegionGrade         int            `db:"region_grade"`
	Capacity            int            `db:"capacity"`
	BaseUnits           int            `db:"base_units"`
	StandardWeeklyHours sql.NullString `db:"standard_weekly_hours"`
	HeldAdditions       string         `db:"held_additions"`
	CareerPathLevel     int            `db:"career_path_level"`
	CreatedAt           string         `db:"created_at"`
	UpdatedAt           string         `db:"updated_at"`
}

const facilityColumns = `id, name, service_type, region_grade, capacity, base_units,
	standard_weekly_hours, held_additions, career_path_level, created_at, updated_at`

// SaveFacility creates or updates a facility profile.
func (s *Store) SaveFacility(ctx context.Context, p facility.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveFacility(ctx, s.db, p)
}

func (s *Store) saveFacility(ctx context.Context, ext sqlx.ExecerContext, p facility.Profile) error {
	held, err := json.Marshal(nonNil(p.HeldAdditions))
	if err != nil {
		return fmt.Errorf("encoding held additions: %w", err)
	}
	var hours sql.NullString
	if p.StandardWeeklyHours != nil {
		hours = nullString(p.StandardWeeklyHours.String())
	}

	ts := now()
	err = s.exec(ctx, ext, `
		INSERT INTO facilities (`+facilityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			service_type = excluded.service_type,
			region_grade = excluded.region_grade,
			capacity = excluded.capacity,
			base_units = excluded.base_units,
			standard_weekly_hours = excluded.standard_weekly_hours,
			held_additions = excluded.held_additions,
			career_path_level = excluded.career_path_level,
			updated_at = excluded.updated_at
	`, string(p.ID), p.Name, string(p.ServiceType), p.RegionGrade, p.Capacity, p.BaseUnits,
		hours, string(held), p.CareerPathLevel, ts, ts)
	if err != nil {
		return fmt.Errorf("saving facility %s: %w", p.ID, err)
	}
	return nil
}

// GetFacility retrieves a facility by ID.
func (s *Store) GetFacility(ctx context.Context, id generic.FacilityID) (facility.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row facilityRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+facilityColumns+` FROM facilities WHERE id = ?`), string(id))
	if isNoRows(err) {
		return facility.Profile{}, fmt.Errorf("%w: %s", generic.ErrFacilityNotFound, id)
	}
	if err != nil {
		return facility.Profile{}, fmt.Errorf("loading facility %s: %w", id, err)
	}
	return row.profile()
}

// ListFacilities returns all facilities ordered by ID.
func (s *Store) ListFacilities(ctx context.Context) ([]facility.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []facilityRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+facilityColumns+` FROM facilities ORDER BY id`); err != nil {
		return nil, fmt.Errorf("listing facilities: %w", err)
	}

	out := make([]facility.Profile, 0, len(rows))
	for _, row := range rows {
		p, err := row.profile()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r facilityRow) profile() (facility.Profile, error) {
	p := facility.Profile{
		ID:              generic.FacilityID(r.ID),
		Name:            r.Name,
		ServiceType:     facility.ServiceType(r.ServiceType),
		RegionGrade:     r.RegionGrade,
		Capacity:        r.Capacity,
		BaseUnits:       r.BaseUnits,
		CareerPathLevel: r.CareerPathLevel,
	}
	if r.StandardWeeklyHours.Valid {
		h, err := decimal.NewFromString(r.StandardWeeklyHours.String)
		if err != nil {
			return facility.Profile{}, &generic.InvalidRecordError{RecordID: r.ID, Field: "standard_weekly_hours", Reason: err.Error()}
		}
		p.StandardWeeklyHours = &h
	}
	if err := json.Unmarshal([]byte(r.HeldAdditions), &p.HeldAdditions); err != nil {
		return facility.Profile{}, &generic.InvalidRecordError{RecordID: r.ID, Field: "held_additions", Reason: err.Error()}
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
