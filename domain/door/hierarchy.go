// Package door implements Desirability of Outcome Ranking: a pre-declared
// best-to-worst ordering of outcome categories, the pairwise win/loss/tie
// tally between two trial arms, and the statistics derived from it.
//
// Everything in this package is pure. Nothing logs and nothing keeps state
// between calls, so a Hierarchy can be shared freely across goroutines.
package door

import (
	"fmt"
	"sort"

	"godoor/domain/core"
)

// Hierarchy is an immutable ordered list of outcome labels, most desirable
// first. Rank 1 is the best outcome. Ranks are ordinal only.
type Hierarchy struct {
	labels []string
	ranks  map[string]int
}

// NewHierarchy builds a hierarchy from labels ordered best to worst.
func NewHierarchy(labels []string) (*Hierarchy, error) {
	if len(labels) == 0 {
		return nil, core.ErrEmptyHierarchy
	}

	ranks := make(map[string]int, len(labels))
	for i, label := range labels {
		if first, dup := ranks[label]; dup {
			positions := []int{first}
			for j := i; j < len(labels); j++ {
				if labels[j] == label {
					positions = append(positions, j+1)
				}
			}
			return nil, &DuplicateOutcomeError{Label: label, Positions: positions}
		}
		ranks[label] = i + 1
	}

	owned := make([]string, len(labels))
	copy(owned, labels)
	return &Hierarchy{labels: owned, ranks: ranks}, nil
}

// MustHierarchy is NewHierarchy for hierarchies fixed at compile time.
func MustHierarchy(labels ...string) *Hierarchy {
	h, err := NewHierarchy(labels)
	if err != nil {
		panic(err)
	}
	return h
}

// Len returns the number of outcome categories.
func (h *Hierarchy) Len() int { return len(h.labels) }

// Labels returns a copy of the labels in rank order.
func (h *Hierarchy) Labels() []string {
	out := make([]string, len(h.labels))
	copy(out, h.labels)
	return out
}

// Label returns the label at a 1-based rank.
func (h *Hierarchy) Label(rank int) (string, error) {
	if rank < 1 || rank > len(h.labels) {
		return "", fmt.Errorf("%w: %d outside 1..%d", core.ErrInvalidRank, rank, len(h.labels))
	}
	return h.labels[rank-1], nil
}

// Contains reports whether label is part of the hierarchy.
func (h *Hierarchy) Contains(label string) bool {
	_, ok := h.ranks[label]
	return ok
}

// Rank resolves a single label.
func (h *Hierarchy) Rank(label string) (int, error) {
	rank, ok := h.ranks[label]
	if !ok {
		return 0, &UnknownOutcomeError{Labels: []string{label}}
	}
	return rank, nil
}

// RankAll resolves labels in order. If any label is unknown, nothing is
// returned and the error names every distinct unknown label once.
func (h *Hierarchy) RankAll(labels []string) ([]int, error) {
	if err := h.Validate(labels); err != nil {
		return nil, err
	}
	out := make([]int, len(labels))
	for i, label := range labels {
		out[i] = h.ranks[label]
	}
	return out, nil
}

// Validate checks membership of every label without resolving ranks.
func (h *Hierarchy) Validate(labels []string) error {
	var unknown map[string]struct{}
	for _, label := range labels {
		if _, ok := h.ranks[label]; ok {
			continue
		}
		if unknown == nil {
			unknown = make(map[string]struct{})
		}
		unknown[label] = struct{}{}
	}
	if len(unknown) == 0 {
		return nil
	}

	names := make([]string, 0, len(unknown))
	for label := range unknown {
		names = append(names, label)
	}
	sort.Strings(names)
	return &UnknownOutcomeError{Labels: names}
}
