package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/addition-engine/factory"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/verification"
)

// =============================================================================
// VERIFICATION RUN TRACKING
// =============================================================================

type runRow struct {
	ID               string         `db:"id"`
	FacilityID       string         `db:"facility_id"`
	YearMonth        string         `db:"year_month"`
	Status           string         `db:"status"`
	ErrorCount       int            `db:"error_count"`
	WarningCount     int            `db:"warning_count"`
	InfoCount        int            `db:"info_count"`
	BlocksSubmission bool           `db:"blocks_submission"`
	Error            string         `db:"error"`
	StartedAt        sql.NullString `db:"started_at"`
	CompletedAt      sql.NullString `db:"completed_at"`
	CreatedAt        string         `db:"created_at"`
}

const runColumns = `id, facility_id, year_month, status, error_count, warning_count, info_count,
	blocks_submission, error, started_at, completed_at, created_at`

// SaveVerificationRun saves a run. A second run for the same facility and
// month replaces the outcome of the first.
func (s *Store) SaveVerificationRun(ctx context.Context, r verification.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.exec(ctx, s.db, `
		INSERT INTO verification_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(facility_id, year_month) DO UPDATE SET
			status = excluded.status,
			error_count = excluded.error_count,
			warning_count = excluded.warning_count,
			info_count = excluded.info_count,
			blocks_submission = excluded.blocks_submission,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, r.ID, string(r.FacilityID), r.YearMonth.String(), string(r.Status),
		r.Errors, r.Warnings, r.Infos, r.BlocksSubmission, r.Error,
		formatTime(r.StartedAt), formatTime(r.CompletedAt), r.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving verification run %s: %w", r.ID, err)
	}
	return nil
}

// ListVerificationRuns returns runs, newest first. An empty status returns all.
func (s *Store) ListVerificationRuns(ctx context.Context, status verification.RunStatus) ([]verification.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM verification_runs`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing verification runs: %w", err)
	}

	runs := make([]verification.Run, 0, len(rows))
	for _, row := range rows {
		r, err := row.run()
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// IsVerificationComplete reports whether the month was verified successfully.
func (s *Store) IsVerificationComplete(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(`
		SELECT COUNT(*) FROM verification_runs
		WHERE facility_id = ? AND year_month = ? AND status = ?
	`), string(facilityID), ym.String(), string(verification.RunCompleted))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r runRow) run() (verification.Run, error) {
	ym, err := generic.ParseYearMonth(r.YearMonth)
	if err != nil {
		return verification.Run{}, &generic.InvalidRecordError{RecordID: r.ID, Field: "year_month", Reason: err.Error()}
	}
	run := verification.Run{
		ID:               r.ID,
		FacilityID:       generic.FacilityID(r.FacilityID),
		YearMonth:        ym,
		Status:           verification.RunStatus(r.Status),
		Errors:           r.ErrorCount,
		Warnings:         r.WarningCount,
		Infos:            r.InfoCount,
		BlocksSubmission: r.BlocksSubmission,
		Error:            r.Error,
		StartedAt:        parseTime(r.StartedAt),
		CompletedAt:      parseTime(r.CompletedAt),
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339, r.CreatedAt)
	return run, nil
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return nullString(t.UTC().Format(time.RFC3339))
}

func parseTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// =============================================================================
// SNAPSHOT IMPORT
// =============================================================================

// ImportSnapshot writes a whole facility snapshot in one transaction.
func (s *Store) ImportSnapshot(ctx context.Context, snap *factory.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	fid := snap.Profile.ID
	if err := s.saveFacility(ctx, tx, snap.Profile); err != nil {
		return err
	}
	for _, r := range snap.Staff {
		if err := s.saveStaff(ctx, tx, fid, r); err != nil {
			return err
		}
	}
	for _, c := range snap.Children {
		if err := s.saveChild(ctx, tx, fid, c); err != nil {
			return err
		}
	}
	for _, u := range snap.Usage {
		if err := s.saveUsage(ctx, tx, fid, u); err != nil {
			return err
		}
	}
	for _, b := range snap.Billing {
		if err := s.saveBilling(ctx, tx, fid, b); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import of %s: %w", fid, err)
	}
	return nil
}
