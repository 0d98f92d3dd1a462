package door

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"godoor/domain/core"
)

func TestAnalyze(t *testing.T) {
	h := MustHierarchy("Best", "Mid", "Worst")

	a, err := Analyze(h, sampleRecords(), "Drug", "Placebo")
	require.NoError(t, err)

	assert.False(t, a.ID.String() == "")
	assert.Equal(t, []string{"Best", "Mid", "Worst"}, a.Hierarchy)
	assert.Equal(t, "Drug", a.TreatmentArm)
	assert.Equal(t, int64(8), a.Result.TreatmentWins)
	assert.Equal(t, int64(1), a.Result.Ties)
	assert.Equal(t, Infinite, a.Result.WinRatio.Kind)
	require.Len(t, a.Distribution.Arms, 2)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestAnalyze_ReportsEveryUnknownOutcome(t *testing.T) {
	h := MustHierarchy("Best", "Mid", "Worst")
	records := append(sampleRecords(),
		PatientRecord{PatientID: "X1", Arm: "Drug", Outcome: "Lost"},
		PatientRecord{PatientID: "X2", Arm: "Other", Outcome: "Withdrawn"},
		PatientRecord{PatientID: "X3", Arm: "Placebo", Outcome: "Lost"},
	)

	_, err := Analyze(h, records, "Drug", "Placebo")

	var unknown *UnknownOutcomeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"Lost", "Withdrawn"}, unknown.Labels)
}

func TestAnalyze_MissingArm(t *testing.T) {
	h := MustHierarchy("Best", "Mid", "Worst")

	_, err := Analyze(h, sampleRecords(), "Drug", "Sham")
	assert.ErrorIs(t, err, core.ErrInsufficientSample)
}

func TestAnalyze_SameArmTwice(t *testing.T) {
	h := MustHierarchy("Best", "Mid", "Worst")

	_, err := Analyze(h, sampleRecords(), "Drug", "Drug")
	assert.ErrorIs(t, err, core.ErrInvalidArm)
}

func TestComparator_AnalyzeHonoursCeiling(t *testing.T) {
	h := MustHierarchy("Best", "Mid", "Worst")
	c := NewComparator(WithMaxPairs(4))

	_, err := c.Analyze(context.Background(), h, sampleRecords(), "Drug", "Placebo")
	assert.ErrorIs(t, err, core.ErrSampleTooLarge)
}
