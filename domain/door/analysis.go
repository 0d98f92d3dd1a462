package door

import (
	"context"
	"fmt"
	"time"

	"godoor/domain/core"
)

// Analysis bundles a comparison with the inputs needed to report it.
type Analysis struct {
	ID           core.AnalysisID `json:"id"`
	Hierarchy    []string        `json:"hierarchy"`
	TreatmentArm string          `json:"treatment_arm"`
	ControlArm   string          `json:"control_arm"`
	Result       Result          `json:"result"`
	Distribution Distribution    `json:"distribution"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Analyze runs a full analysis with the default comparator.
func Analyze(h *Hierarchy, records []PatientRecord, treatmentArm, controlArm string) (*Analysis, error) {
	return defaultComparator.Analyze(context.Background(), h, records, treatmentArm, controlArm)
}

// Analyze validates every record against the hierarchy, resolves ranks and
// compares the two arms. Records in other arms are validated but not compared.
func (c *Comparator) Analyze(ctx context.Context, h *Hierarchy, records []PatientRecord, treatmentArm, controlArm string) (*Analysis, error) {
	if treatmentArm == controlArm {
		return nil, fmt.Errorf("%w: treatment and control are both %q", core.ErrInvalidArm, treatmentArm)
	}

	assignments, err := Assign(h, records)
	if err != nil {
		return nil, err
	}

	result, err := c.CompareContext(ctx, RanksFor(assignments, treatmentArm), RanksFor(assignments, controlArm))
	if err != nil {
		return nil, err
	}

	return &Analysis{
		ID:           core.NewAnalysisID(),
		Hierarchy:    h.Labels(),
		TreatmentArm: treatmentArm,
		ControlArm:   controlArm,
		Result:       result,
		Distribution: Summarize(h, assignments, treatmentArm, controlArm),
		CreatedAt:    time.Now().UTC(),
	}, nil
}
