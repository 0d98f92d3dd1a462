// Package memory holds in-process repositories used when no database is
// configured, and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"godoor/domain/core"
	"godoor/domain/door"
)

// AnalysisRepository keeps analyses in a map guarded by a mutex
type AnalysisRepository struct {
	mu       sync.RWMutex
	analyses map[core.AnalysisID]*door.Analysis
}

func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{analyses: make(map[core.AnalysisID]*door.Analysis)}
}

func (r *AnalysisRepository) Save(ctx context.Context, analysis *door.Analysis) error {
	if analysis == nil || analysis.ID == "" {
		return fmt.Errorf("analysis must have an ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analyses[analysis.ID]; exists {
		return fmt.Errorf("analysis %s already exists", analysis.ID)
	}
	r.analyses[analysis.ID] = clone(analysis)
	return nil
}

func (r *AnalysisRepository) Get(ctx context.Context, id core.AnalysisID) (*door.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.analyses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
	}
	return clone(a), nil
}

// List returns the newest analyses first
func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]*door.Analysis, error) {
	r.mu.RLock()
	out := make([]*door.Analysis, 0, len(r.analyses))
	for _, a := range r.analyses {
		out = append(out, clone(a))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id core.AnalysisID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.analyses[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
	}
	delete(r.analyses, id)
	return nil
}

// clone copies an analysis including its slices, so callers never share
// memory with the store
func clone(a *door.Analysis) *door.Analysis {
	out := *a
	out.Hierarchy = append([]string(nil), a.Hierarchy...)
	out.Distribution.Categories = append([]string(nil), a.Distribution.Categories...)
	out.Distribution.Arms = make([]door.ArmDistribution, len(a.Distribution.Arms))
	for i, arm := range a.Distribution.Arms {
		arm.Categories = append([]door.CategoryCount(nil), arm.Categories...)
		out.Distribution.Arms[i] = arm
	}
	return &out
}
