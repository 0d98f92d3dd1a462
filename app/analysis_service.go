package app

import (
	"context"
	"fmt"
	"time"

	"godoor/domain/core"
	"godoor/domain/door"
	"godoor/internal"
	"godoor/internal/errors"
	"godoor/ports"
)

// AnalysisService runs DOOR comparisons and keeps their results
type AnalysisService struct {
	repo       ports.AnalysisRepository
	comparator *door.Comparator
	notifier   ports.AnalysisNotifier
	logger     *internal.Logger
}

// AnalysisRequest defines inputs for one comparison
type AnalysisRequest struct {
	Hierarchy    *door.Hierarchy
	Records      []door.PatientRecord
	TreatmentArm string
	ControlArm   string
}

// NewAnalysisService creates an analysis service. A nil comparator uses the
// default settings.
func NewAnalysisService(repo ports.AnalysisRepository, comparator *door.Comparator, logger *internal.Logger) *AnalysisService {
	if comparator == nil {
		comparator = door.NewComparator()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		repo:       repo,
		comparator: comparator,
		logger:     logger.With("analysis"),
	}
}

// WithNotifier registers a listener for completed analyses
func (s *AnalysisService) WithNotifier(n ports.AnalysisNotifier) *AnalysisService {
	s.notifier = n
	return s
}

// Run validates the request, compares the arms and stores the analysis
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*door.Analysis, error) {
	if req.Hierarchy == nil {
		return nil, errors.Wrap(core.ErrEmptyHierarchy, "analysis request has no hierarchy")
	}
	if req.TreatmentArm == "" || req.ControlArm == "" {
		return nil, errors.InvalidInput("treatment and control arms are required")
	}

	start := time.Now()
	analysis, err := s.comparator.Analyze(ctx, req.Hierarchy, req.Records, req.TreatmentArm, req.ControlArm)
	if err != nil {
		s.logger.Warn("Analysis of %s vs %s rejected: %v", req.TreatmentArm, req.ControlArm, err)
		return nil, errors.Wrapf(err, "analysis of %s vs %s failed", req.TreatmentArm, req.ControlArm)
	}

	r := analysis.Result
	s.logger.Info("Analysis %s: %d vs %d patients, %d pairs, win ratio %s, p=%.4g (%s) in %s",
		analysis.ID, r.NTreatment, r.NControl, r.NPairs, r.WinRatio, r.PValue, r.TestMethod,
		time.Since(start).Round(time.Microsecond))

	if err := s.repo.Save(ctx, analysis); err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to store analysis %s", analysis.ID), err)
	}
	if s.notifier != nil {
		s.notifier.AnalysisCompleted(analysis)
	}
	return analysis, nil
}

// RunFromSource reads the records from source, then runs the analysis
func (s *AnalysisService) RunFromSource(ctx context.Context, source ports.RecordSource, h *door.Hierarchy, treatmentArm, controlArm string) (*door.Analysis, error) {
	records, err := source.ReadRecords(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read patient records")
	}
	s.logger.Debug("Read %d records", len(records))

	return s.Run(ctx, AnalysisRequest{
		Hierarchy:    h,
		Records:      records,
		TreatmentArm: treatmentArm,
		ControlArm:   controlArm,
	})
}

// Get loads a stored analysis
func (s *AnalysisService) Get(ctx context.Context, id core.AnalysisID) (*door.Analysis, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, errors.Wrap(err, fmt.Sprintf("analysis %s not found", id))
		}
		return nil, errors.DatabaseError("failed to load analysis", err)
	}
	return a, nil
}

// List returns stored analyses, newest first
func (s *AnalysisService) List(ctx context.Context, limit int) ([]*door.Analysis, error) {
	analyses, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list analyses", err)
	}
	return analyses, nil
}

// Delete removes a stored analysis
func (s *AnalysisService) Delete(ctx context.Context, id core.AnalysisID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if core.IsNotFoundError(err) {
			return errors.Wrap(err, fmt.Sprintf("analysis %s not found", id))
		}
		return errors.DatabaseError("failed to delete analysis", err)
	}
	s.logger.Info("Deleted analysis %s", id)
	return nil
}
