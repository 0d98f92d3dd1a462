package door

import (
	"context"
	"fmt"

	"godoor/domain/core"
)

// DefaultFastTallyThreshold is the pair count above which the comparator
// switches from enumerating pairs to the frequency tally.
const DefaultFastTallyThreshold int64 = 10_000_000

// Comparator runs DOOR comparisons. It holds only configuration, so one
// value can serve concurrent callers.
type Comparator struct {
	maxPairs           int64
	fastTallyThreshold int64
	workers            int
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*Comparator)

// WithMaxPairs rejects comparisons whose pair count exceeds n. Zero disables the ceiling.
func WithMaxPairs(n int64) ComparatorOption {
	return func(c *Comparator) { c.maxPairs = n }
}

// WithFastTallyThreshold sets the pair count above which the frequency tally
// is used. Zero or negative always enumerates pairs.
func WithFastTallyThreshold(n int64) ComparatorOption {
	return func(c *Comparator) { c.fastTallyThreshold = n }
}

// WithParallelism enumerates pairs on up to n goroutines. Values below 2 keep
// the enumeration on the calling goroutine.
func WithParallelism(n int) ComparatorOption {
	return func(c *Comparator) { c.workers = n }
}

// NewComparator returns a comparator with the given options applied over the defaults.
func NewComparator(opts ...ComparatorOption) *Comparator {
	c := &Comparator{fastTallyThreshold: DefaultFastTallyThreshold, workers: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultComparator = NewComparator()

// Compare runs a comparison with the default comparator.
func Compare(treatment, control []int) (Result, error) {
	return defaultComparator.Compare(treatment, control)
}

// Compare tallies every treatment-control pair and derives the DOOR statistics.
func (c *Comparator) Compare(treatment, control []int) (Result, error) {
	return c.CompareContext(context.Background(), treatment, control)
}

// CompareContext is Compare with cancellation for the parallel enumeration.
func (c *Comparator) CompareContext(ctx context.Context, treatment, control []int) (Result, error) {
	if len(treatment) == 0 || len(control) == 0 {
		return Result{}, &InsufficientSampleError{NTreatment: len(treatment), NControl: len(control)}
	}
	if err := checkRanks("treatment", treatment); err != nil {
		return Result{}, err
	}
	if err := checkRanks("control", control); err != nil {
		return Result{}, err
	}

	nPairs := int64(len(treatment)) * int64(len(control))
	if c.maxPairs > 0 && nPairs > c.maxPairs {
		return Result{}, fmt.Errorf("%w: %d x %d = %d pairs exceeds ceiling %d",
			core.ErrSampleTooLarge, len(treatment), len(control), nPairs, c.maxPairs)
	}

	tally, err := c.tally(ctx, treatment, control, nPairs)
	if err != nil {
		return Result{}, err
	}

	return newResult(len(treatment), len(control), tally, MannWhitney(treatment, control)), nil
}

func (c *Comparator) tally(ctx context.Context, treatment, control []int, nPairs int64) (Tally, error) {
	switch {
	case c.fastTallyThreshold > 0 && nPairs > c.fastTallyThreshold:
		return TallyFrequencies(treatment, control), nil
	case c.workers > 1:
		return TallyPairsParallel(ctx, treatment, control, c.workers)
	default:
		return TallyPairs(treatment, control), nil
	}
}

func checkRanks(arm string, ranks []int) error {
	for i, r := range ranks {
		if r < 1 {
			return fmt.Errorf("%w: %s rank %d at position %d, ranks start at 1", core.ErrInvalidRank, arm, r, i)
		}
	}
	return nil
}
