package ports

import (
	"context"

	"godoor/domain/door"
)

// RecordSource supplies the patient rows of one trial
type RecordSource interface {
	ReadRecords(ctx context.Context) ([]door.PatientRecord, error)
}

// HierarchySource supplies a declared outcome hierarchy
type HierarchySource interface {
	LoadHierarchy(ctx context.Context) (*door.Hierarchy, error)
}
