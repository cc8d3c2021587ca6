package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidationError is the only error type this package raises for failed
// validations. It carries the full list of violations so callers can render
// per-field messages, plus the operation name, a request identifier and a
// timestamp for correlation.
//
// Example:
//
//	err := mw.ValidateInput(payload, "receipt.input", "receipts.create")
//	var verr *validation.ValidationError
//	if errors.As(err, &verr) {
//	    for _, v := range verr.Violations {
//	        form.MarkInvalid(v.Field, v.Message)
//	    }
//	}
type ValidationError struct {
	// Violations are the issues that caused the failure. When the
	// configuration promotes warnings, promoted issues keep their original
	// warning severity tag.
	Violations []Issue `json:"violations"`
	// Operation is the logical operation name the caller supplied.
	Operation string `json:"operation"`
	// RequestID uniquely identifies this validation failure for tracing.
	RequestID string `json:"request_id"`
	// Timestamp is when the failure was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed for %q: %d violation(s)", e.Operation, len(e.Violations))
	for i, v := range e.Violations {
		if i == 3 {
			b.WriteString("; ...")
			break
		}
		field := v.Field
		if field == "" {
			field = "(root)"
		}
		fmt.Fprintf(&b, "; %s: %s [%s]", field, v.Message, v.Code)
	}
	return b.String()
}

// HasCode reports whether any violation carries the given code.
func (e *ValidationError) HasCode(code Code) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Fields returns the distinct field paths present in the violations,
// preserving first-seen order.
func (e *ValidationError) Fields() []string {
	seen := make(map[string]struct{}, len(e.Violations))
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := seen[v.Field]; ok {
			continue
		}
		seen[v.Field] = struct{}{}
		fields = append(fields, v.Field)
	}
	return fields
}

func newValidationError(operation string, violations []Issue) *ValidationError {
	return &ValidationError{
		Violations: violations,
		Operation:  operation,
		RequestID:  uuid.NewString(),
		Timestamp:  time.Now().UTC(),
	}
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
