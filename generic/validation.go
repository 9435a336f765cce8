/*
validation.go - Three-tier validation taxonomy

PURPOSE:
  Both verification engines report problems as a flat list of
  ValidationItems. Each item carries a Severity that tells the host
  application what to do with it:

    Error:   blocks legal/financial correctness; the host should block
             submission (orphaned usage, illegal copay, missing income category)
    Warning: recoverable but action-needed (missing clock time, copay at cap)
    Info:    purely advisory (excluded days, near-cap proximity)

  The engine only classifies. It never decides submission policy.

SEE ALSO:
  - verification/usage.go: Usage validations
  - verification/upper_limit.go: Co-payment validations
*/
package generic

// =============================================================================
// SEVERITY
// =============================================================================

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank orders severities from most (0) to least severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// =============================================================================
// VALIDATION ITEM
// =============================================================================

// ValidationItem is a single finding. Code is stable and machine-readable;
// Message is for display.
type ValidationItem struct {
	Severity Severity
	Code     string
	Message  string
	ChildID  *ChildID
	Date     *TimePoint
}

// ForChild attaches a child reference.
func (v ValidationItem) ForChild(id ChildID) ValidationItem {
	v.ChildID = &id
	return v
}

// On attaches a date reference.
func (v ValidationItem) On(date TimePoint) ValidationItem {
	v.Date = &date
	return v
}

func NewError(code, message string) ValidationItem {
	return ValidationItem{Severity: SeverityError, Code: code, Message: message}
}

func NewWarning(code, message string) ValidationItem {
	return ValidationItem{Severity: SeverityWarning, Code: code, Message: message}
}

func NewInfo(code, message string) ValidationItem {
	return ValidationItem{Severity: SeverityInfo, Code: code, Message: message}
}

// =============================================================================
// VALIDATIONS - Ordered list with query helpers
// =============================================================================

type Validations []ValidationItem

// Count returns how many items have the given severity.
func (vs Validations) Count(s Severity) int {
	n := 0
	for _, v := range vs {
		if v.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any Error-severity item exists.
func (vs Validations) HasErrors() bool { return vs.Count(SeverityError) > 0 }

// BlocksSubmission is the host-facing name for HasErrors.
func (vs Validations) BlocksSubmission() bool { return vs.HasErrors() }

// ByCode returns the items with the given code.
func (vs Validations) ByCode(code string) Validations {
	var out Validations
	for _, v := range vs {
		if v.Code == code {
			out = append(out, v)
		}
	}
	return out
}

// ForChild returns the items referencing the given child.
func (vs Validations) ForChild(id ChildID) Validations {
	var out Validations
	for _, v := range vs {
		if v.ChildID != nil && *v.ChildID == id {
			out = append(out, v)
		}
	}
	return out
}
