package ports

import (
	"context"

	"godoor/domain/core"
	"godoor/domain/door"
)

// AnalysisRepository stores completed DOOR analyses
type AnalysisRepository interface {
	// Save persists a new analysis; saving an existing ID is an error
	Save(ctx context.Context, analysis *door.Analysis) error

	// Get returns core.ErrAnalysisNotFound (wrapped) when the ID is unknown
	Get(ctx context.Context, id core.AnalysisID) (*door.Analysis, error)

	// List returns the most recent analyses first, at most limit (0 = all)
	List(ctx context.Context, limit int) ([]*door.Analysis, error)

	// Delete removes an analysis
	Delete(ctx context.Context, id core.AnalysisID) error
}

// AnalysisReader is the read-only view the report browser depends on
type AnalysisReader interface {
	Get(ctx context.Context, id core.AnalysisID) (*door.Analysis, error)
	List(ctx context.Context, limit int) ([]*door.Analysis, error)
}

// AnalysisNotifier is told about every stored analysis
type AnalysisNotifier interface {
	AnalysisCompleted(analysis *door.Analysis)
}
