package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

// =============================================================================
// SOURCES
// =============================================================================

// UsageSource provides the month's usage records and the child roster.
type UsageSource interface {
	UsageRecords(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]UsageRecord, error)
	Children(ctx context.Context, facilityID generic.FacilityID) ([]ChildRecord, error)
}

// BillingSource provides the month's billing records.
type BillingSource interface {
	BillingRecords(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]BillingRecord, error)
}

// =============================================================================
// SERVICE - Fail-closed verification over sources
// =============================================================================

// Service runs the verification engines against data sources.
//
// Acquisition failures never surface as Go errors. They become a zeroed
// result carrying one Error validation, so a broken source always blocks
// submission instead of looking like an empty, clean month.
type Service struct {
	usage   UsageSource
	billing BillingSource
}

func NewService(usage UsageSource, billing BillingSource) *Service {
	return &Service{usage: usage, billing: billing}
}

// VerifyUsage loads and verifies one month of usage records.
func (s *Service) VerifyUsage(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) UsageResult {
	records, roster, err := s.loadUsage(ctx, facilityID, ym)
	if err != nil {
		return UsageResult{
			YearMonth:      ym,
			CompletionRate: decimal.Zero,
			Validations:    unavailable("usage", err),
			Unavailable:    err,
		}
	}
	return VerifyUsage(records, roster, ym)
}

// CheckUpperLimits loads and checks one month of billing records.
func (s *Service) CheckUpperLimits(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) UpperLimitResult {
	records, err := s.loadBilling(ctx, facilityID, ym)
	if err != nil {
		return UpperLimitResult{
			YearMonth:   ym,
			Validations: unavailable("billing", err),
			Unavailable: err,
		}
	}
	return CheckUpperLimits(records, ym)
}

// MonthReport combines both checks for one facility and month.
type MonthReport struct {
	FacilityID  generic.FacilityID
	YearMonth   generic.YearMonth
	Usage       UsageResult
	UpperLimits UpperLimitResult
}

// Validations returns usage validations followed by upper-limit ones.
func (r MonthReport) Validations() generic.Validations {
	out := make(generic.Validations, 0, len(r.Usage.Validations)+len(r.UpperLimits.Validations))
	out = append(out, r.Usage.Validations...)
	return append(out, r.UpperLimits.Validations...)
}

func (r MonthReport) BlocksSubmission() bool { return r.Validations().BlocksSubmission() }

// Err joins the acquisition failures of both checks, nil when both loaded.
func (r MonthReport) Err() error {
	return errors.Join(r.Usage.Unavailable, r.UpperLimits.Unavailable)
}

// VerifyMonth runs both checks.
func (s *Service) VerifyMonth(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) MonthReport {
	return MonthReport{
		FacilityID:  facilityID,
		YearMonth:   ym,
		Usage:       s.VerifyUsage(ctx, facilityID, ym),
		UpperLimits: s.CheckUpperLimits(ctx, facilityID, ym),
	}
}

func (s *Service) loadUsage(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]UsageRecord, []ChildRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, &generic.SourceError{Source: "usage_records", FacilityID: facilityID, Err: err}
	}
	if s.usage == nil {
		return nil, nil, &generic.SourceError{Source: "usage_records", FacilityID: facilityID, Err: errors.New("no usage source configured")}
	}

	records, err := s.usage.UsageRecords(ctx, facilityID, ym)
	if err != nil {
		return nil, nil, &generic.SourceError{Source: "usage_records", FacilityID: facilityID, Err: err}
	}
	roster, err := s.usage.Children(ctx, facilityID)
	if err != nil {
		return nil, nil, &generic.SourceError{Source: "children", FacilityID: facilityID, Err: err}
	}
	return records, roster, nil
}

func (s *Service) loadBilling(ctx context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]BillingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &generic.SourceError{Source: "billing_records", FacilityID: facilityID, Err: err}
	}
	if s.billing == nil {
		return nil, &generic.SourceError{Source: "billing_records", FacilityID: facilityID, Err: errors.New("no billing source configured")}
	}

	records, err := s.billing.BillingRecords(ctx, facilityID, ym)
	if err != nil {
		return nil, &generic.SourceError{Source: "billing_records", FacilityID: facilityID, Err: err}
	}
	return records, nil
}

func unavailable(what string, err error) generic.Validations {
	source := what
	var se *generic.SourceError
	if errors.As(err, &se) {
		source = se.Source
	}
	return generic.Validations{generic.NewError(CodeVerificationUnavailable,
		fmt.Sprintf("%s verification could not run because %s could not be loaded; submission is blocked until it succeeds", what, source))}
}
