package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis", ErrNotFound)

	// Hierarchy configuration errors
	ErrInvalidHierarchy = errors.New("invalid outcome hierarchy")
	ErrDuplicateOutcome = fmt.Errorf("%w: duplicate outcome label", ErrInvalidHierarchy)
	ErrEmptyHierarchy   = fmt.Errorf("%w: no outcome categories", ErrInvalidHierarchy)

	// Data errors
	ErrUnknownOutcome     = errors.New("unknown outcome")
	ErrInvalidRank        = errors.New("invalid rank")
	ErrInsufficientSample = errors.New("insufficient sample size")
	ErrSampleTooLarge     = errors.New("sample too large")
	ErrInvalidRecord      = errors.New("invalid patient record")
	ErrInvalidArm         = errors.New("invalid arm selection")
)

// NewRecordError reports a malformed input row. Rows are 1-based as a user sees them.
func NewRecordError(row int, reason string) error {
	return fmt.Errorf("%w: row %d: %s", ErrInvalidRecord, row, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidHierarchy)
}
