package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports that a record does not exist. It is a normal
	// control-flow outcome, not a fault.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable reports an I/O or connection failure in the
	// backing store. Callers must surface it, never swallow it.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreCorrupt reports that persisted data could not be decoded.
	ErrStoreCorrupt = errors.New("store corrupt")

	// ErrInvalidRange reports a malformed or inverted date range.
	ErrInvalidRange = errors.New("invalid date range")
)

// FieldError describes a single failed validation constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every failing field of one request.
// Constraints are checked exhaustively, never fail-fast, so a client
// sees all problems in one batched report.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError from collected field errors.
// Returns nil when the slice is empty so callers can return it directly.
func NewValidationError(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
