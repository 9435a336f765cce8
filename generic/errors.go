/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Engine packages return these (or wrap them with context); host layers
  classify them with the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Configuration errors - Malformed engine parameters (fail fast)
  2. Record errors - A single input record violates its contract
  3. Source errors - Data acquisition failed (converted to validations
     at the verification boundary, never propagated to the user as-is)

USAGE:
  if errors.Is(err, generic.ErrConfiguration) {
      // standard weekly hours <= 0: every FTE would be wrong
  }

SEE ALSO:
  - staffing/normalize.go: ConfigurationError, InvalidRecordError
  - verification/service.go: SourceError to Error validation conversion
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is returned when an engine parameter is malformed,
	// e.g. a standard weekly hours value <= 0.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidRecord is returned when an input record violates its contract
	// (negative hours, unknown work style).
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidYearMonth is returned when a year-month cannot be parsed.
	ErrInvalidYearMonth = errors.New("invalid year-month")

	// ErrInvalidSimulation is returned for out-of-range simulation inputs.
	ErrInvalidSimulation = errors.New("invalid simulation input")

	// ErrFacilityNotFound is returned when a referenced facility doesn't exist.
	ErrFacilityNotFound = errors.New("facility not found")

	// ErrSourceUnavailable is returned when a data source fails to deliver a snapshot.
	ErrSourceUnavailable = errors.New("data source unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError provides details about a malformed engine parameter.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// InvalidRecordError identifies the offending record and field.
type InvalidRecordError struct {
	RecordID string
	Field    string
	Reason   string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %s: %s", e.RecordID, e.Field, e.Reason)
}

func (e *InvalidRecordError) Unwrap() error {
	return ErrInvalidRecord
}

// SourceError wraps a failed data fetch with what was being fetched.
type SourceError struct {
	Source     string // e.g. "usage_records", "children", "billing_records"
	FacilityID FacilityID
	Err        error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("fetching %s for facility %s: %v", e.Source, e.FacilityID, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidYearMonth) ||
		errors.Is(err, ErrInvalidSimulation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFacilityNotFound)
}
