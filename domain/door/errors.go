package door

import (
	"fmt"
	"strings"

	"godoor/domain/core"
)

// DuplicateOutcomeError is returned when a hierarchy declares the same label twice.
type DuplicateOutcomeError struct {
	Label string
	// Positions are the 1-based ranks the label was declared at.
	Positions []int
}

func (e *DuplicateOutcomeError) Error() string {
	return fmt.Sprintf("duplicate outcome label %q at ranks %v", e.Label, e.Positions)
}

func (e *DuplicateOutcomeError) Unwrap() error { return core.ErrDuplicateOutcome }

// UnknownOutcomeError names every label that is absent from the hierarchy.
// Labels are distinct and sorted.
type UnknownOutcomeError struct {
	Labels []string
}

func (e *UnknownOutcomeError) Error() string {
	quoted := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf("unknown outcomes: {%s}", strings.Join(quoted, ", "))
}

func (e *UnknownOutcomeError) Unwrap() error { return core.ErrUnknownOutcome }

// InsufficientSampleError is returned when either arm is empty at comparison time.
type InsufficientSampleError struct {
	NTreatment int
	NControl   int
}

func (e *InsufficientSampleError) Error() string {
	return fmt.Sprintf("insufficient sample size: treatment=%d control=%d (both arms need at least one patient)",
		e.NTreatment, e.NControl)
}

func (e *InsufficientSampleError) Unwrap() error { return core.ErrInsufficientSample }
