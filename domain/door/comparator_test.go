package door

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"godoor/domain/core"
)

func TestCompare_BestMidWorstScenario(t *testing.T) {
	h := MustHierarchy("Best", "Mid", "Worst")
	treatment, err := h.RankAll([]string{"Best", "Best", "Mid"})
	require.NoError(t, err)
	control, err := h.RankAll([]string{"Mid", "Worst", "Worst"})
	require.NoError(t, err)
	require.Equal(t, []int{1, 1, 2}, treatment)
	require.Equal(t, []int{2, 3, 3}, control)

	r, err := Compare(treatment, control)
	require.NoError(t, err)

	assert.Equal(t, 3, r.NTreatment)
	assert.Equal(t, 3, r.NControl)
	assert.Equal(t, int64(9), r.NPairs)
	assert.Equal(t, int64(8), r.TreatmentWins)
	assert.Equal(t, int64(0), r.ControlWins)
	assert.Equal(t, int64(1), r.Ties)
	assert.Equal(t, Infinite, r.WinRatio.Kind)
	assert.True(t, math.IsInf(r.WinRatio.Float64(), 1))
	assert.InDelta(t, 8.0/9.0, r.NetBenefit, 1e-12)
	assert.InDelta(t, 8.0/9.0, r.PTreatmentBetter, 1e-12)
	assert.InDelta(t, 1.0/9.0, r.PTie, 1e-12)
	assert.InDelta(t, 0.5, r.MannWhitneyU, 1e-12)
	assert.Greater(t, r.ZScore, 0.0)
	assert.Less(t, r.PValue, 0.5)
	assert.NoError(t, r.Check())

	t.Logf("scenario: U=%.1f z=%.3f p=%.4f (%s)", r.MannWhitneyU, r.ZScore, r.PValue, r.TestMethod)
}

func TestCompare_FiniteWinRatio(t *testing.T) {
	r, err := Compare([]int{1, 2, 3}, []int{2, 2})
	require.NoError(t, err)

	// 1 beats both, 2 ties both, 3 loses to both
	assert.Equal(t, Tally{TreatmentWins: 2, ControlWins: 2, Ties: 2}, r.Tally())
	require.True(t, r.WinRatio.IsFinite())
	assert.Equal(t, 1.0, r.WinRatio.Value)
	assert.Equal(t, 0.0, r.NetBenefit)
}

func TestCompare_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		treatment := randomRanks(rng, 1+rng.Intn(60), 7)
		control := randomRanks(rng, 1+rng.Intn(60), 7)

		r, err := Compare(treatment, control)
		require.NoError(t, err)

		// partition completeness
		assert.Equal(t, int64(len(treatment))*int64(len(control)), r.NPairs)
		assert.Equal(t, r.NPairs, r.TreatmentWins+r.ControlWins+r.Ties)

		// probability closure
		assert.InDelta(t, 1.0, r.PTreatmentBetter+r.PControlBetter+r.PTie, 1e-9)
		assert.GreaterOrEqual(t, r.NetBenefit, -1.0)
		assert.LessOrEqual(t, r.NetBenefit, 1.0)

		// the rank-sum statistic is the pairwise tally in disguise
		assert.InDelta(t, float64(r.ControlWins)+float64(r.Ties)/2, r.MannWhitneyU, 1e-6)
		assert.GreaterOrEqual(t, r.PValue, 0.0)
		assert.LessOrEqual(t, r.PValue, 1.0)

		assert.NoError(t, r.Check())
	}
}

func TestCompare_Antisymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for trial := 0; trial < 50; trial++ {
		a := randomRanks(rng, 1+rng.Intn(40), 5)
		b := randomRanks(rng, 1+rng.Intn(40), 5)

		ab, err := Compare(a, b)
		require.NoError(t, err)
		ba, err := Compare(b, a)
		require.NoError(t, err)

		assert.Equal(t, ab.Tally().Swap(), ba.Tally())
		assert.InDelta(t, -ab.NetBenefit, ba.NetBenefit, 1e-12)
	}
}

func TestCompare_RankMonotonicity(t *testing.T) {
	r, err := Compare([]int{1, 2, 2, 3}, []int{4, 5, 4})
	require.NoError(t, err)

	assert.Equal(t, r.NPairs, r.TreatmentWins)
	assert.Equal(t, int64(0), r.ControlWins)
	assert.Equal(t, Infinite, r.WinRatio.Kind)
	assert.Equal(t, 1.0, r.NetBenefit)

	// and the mirror image
	r, err = Compare([]int{4, 5, 4}, []int{1, 2, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, r.NPairs, r.ControlWins)
	require.True(t, r.WinRatio.IsFinite())
	assert.Equal(t, 0.0, r.WinRatio.Value)
	assert.Equal(t, -1.0, r.NetBenefit)
}

// TestCompare_TieDegeneracy documents the sentinel for an all-tied
// comparison: the win ratio is Undefined, not Infinite.
func TestCompare_TieDegeneracy(t *testing.T) {
	r, err := Compare([]int{3, 3, 3}, []int{3, 3})
	require.NoError(t, err)

	assert.Equal(t, int64(0), r.TreatmentWins)
	assert.Equal(t, int64(0), r.ControlWins)
	assert.Equal(t, r.NPairs, r.Ties)
	assert.Equal(t, 0.0, r.NetBenefit)
	assert.Equal(t, Undefined, r.WinRatio.Kind)
	assert.True(t, math.IsNaN(r.WinRatio.Float64()))
	assert.Equal(t, 1.0, r.PValue)
	assert.Equal(t, 0.0, r.ZScore)
}

func TestCompare_InsufficientSample(t *testing.T) {
	cases := []struct {
		name               string
		treatment, control []int
	}{
		{"empty treatment", nil, []int{1}},
		{"empty control", []int{1}, []int{}},
		{"both empty", nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compare(tc.treatment, tc.control)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInsufficientSample)

			var insufficient *InsufficientSampleError
			require.True(t, errors.As(err, &insufficient))
			assert.Equal(t, len(tc.treatment), insufficient.NTreatment)
			assert.Equal(t, len(tc.control), insufficient.NControl)
		})
	}
}

func TestCompare_InvalidRank(t *testing.T) {
	_, err := Compare([]int{1, 0}, []int{2})
	assert.ErrorIs(t, err, core.ErrInvalidRank)

	_, err = Compare([]int{1}, []int{-3})
	assert.ErrorIs(t, err, core.ErrInvalidRank)
}

func TestComparator_MaxPairs(t *testing.T) {
	c := NewComparator(WithMaxPairs(10))

	_, err := c.Compare([]int{1, 2, 3}, []int{1, 2, 3})
	require.NoError(t, err)

	_, err = c.Compare([]int{1, 2, 3, 4}, []int{1, 2, 3})
	assert.ErrorIs(t, err, core.ErrSampleTooLarge)
	assert.True(t, core.IsSampleError(err))
}

func TestComparator_StrategiesProduceIdenticalResults(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	treatment := randomRanks(rng, 500, 8)
	control := randomRanks(rng, 450, 8)

	direct, err := NewComparator(WithFastTallyThreshold(0)).Compare(treatment, control)
	require.NoError(t, err)
	fast, err := NewComparator(WithFastTallyThreshold(1)).Compare(treatment, control)
	require.NoError(t, err)
	parallel, err := NewComparator(WithFastTallyThreshold(0), WithParallelism(4)).Compare(treatment, control)
	require.NoError(t, err)

	assert.Equal(t, direct, fast)
	assert.Equal(t, direct, parallel)
}

func TestCompare_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	treatment := randomRanks(rng, 80, 6)
	control := randomRanks(rng, 70, 6)

	first, err := Compare(treatment, control)
	require.NoError(t, err)
	second, err := Compare(treatment, control)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, math.Float64bits(first.PValue), math.Float64bits(second.PValue))
}

func TestCompare_DoesNotMutateInputs(t *testing.T) {
	treatment := []int{3, 1, 2}
	control := []int{2, 3, 1}
	_, err := Compare(treatment, control)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1, 2}, treatment)
	assert.Equal(t, []int{2, 3, 1}, control)
}

func TestResult_CheckRejectsCorruptResult(t *testing.T) {
	r, err := Compare([]int{1, 2}, []int{2, 3})
	require.NoError(t, err)

	broken := r
	broken.Ties++
	assert.Error(t, broken.Check())

	broken = r
	broken.PTie += 0.1
	assert.Error(t, broken.Check())

	broken = r
	broken.WinRatio = WinRatio{Kind: Undefined}
	assert.Error(t, broken.Check())
}
