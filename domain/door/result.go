package door

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// probabilityTolerance bounds the rounding error allowed when the three
// pairwise probabilities are summed.
const probabilityTolerance = 1e-9

// Result is the fixed-shape output of one DOOR comparison.
type Result struct {
	NTreatment int   `json:"n_treatment"`
	NControl   int   `json:"n_control"`
	NPairs     int64 `json:"n_pairs"`

	TreatmentWins int64 `json:"treatment_wins"`
	ControlWins   int64 `json:"control_wins"`
	Ties          int64 `json:"ties"`

	PTreatmentBetter float64 `json:"p_treatment_better"`
	PControlBetter   float64 `json:"p_control_better"`
	PTie             float64 `json:"p_tie"`

	WinRatio   WinRatio `json:"win_ratio"`
	NetBenefit float64  `json:"net_benefit"`

	MannWhitneyU float64 `json:"mann_whitney_u"`
	ZScore       float64 `json:"z_score"`
	PValue       float64 `json:"p_value"`
	TestMethod   string  `json:"test_method"`
}

// Tally returns the pairwise partition held by the result.
func (r Result) Tally() Tally {
	return Tally{TreatmentWins: r.TreatmentWins, ControlWins: r.ControlWins, Ties: r.Ties}
}

// Significant reports whether the one-sided p-value is below alpha.
func (r Result) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// Check verifies the partition and probability invariants. A result built by
// Compare always passes; results decoded from storage may not.
func (r Result) Check() error {
	if r.NPairs != int64(r.NTreatment)*int64(r.NControl) {
		return fmt.Errorf("n_pairs %d != %d x %d", r.NPairs, r.NTreatment, r.NControl)
	}
	if got := r.Tally().Pairs(); got != r.NPairs {
		return fmt.Errorf("tally covers %d pairs, expected %d", got, r.NPairs)
	}
	sum := r.PTreatmentBetter + r.PControlBetter + r.PTie
	if !scalar.EqualWithinAbs(sum, 1.0, probabilityTolerance) {
		return fmt.Errorf("probabilities sum to %.12f", sum)
	}
	if want := NewWinRatio(r.Tally()); want.Kind != r.WinRatio.Kind {
		return fmt.Errorf("win ratio kind %s, expected %s", r.WinRatio.Kind, want.Kind)
	}
	return nil
}

func newResult(nTreatment, nControl int, tally Tally, test RankSumTest) Result {
	nPairs := int64(nTreatment) * int64(nControl)
	pairs := float64(nPairs)

	pT := float64(tally.TreatmentWins) / pairs
	pC := float64(tally.ControlWins) / pairs

	return Result{
		NTreatment:       nTreatment,
		NControl:         nControl,
		NPairs:           nPairs,
		TreatmentWins:    tally.TreatmentWins,
		ControlWins:      tally.ControlWins,
		Ties:             tally.Ties,
		PTreatmentBetter: pT,
		PControlBetter:   pC,
		PTie:             float64(tally.Ties) / pairs,
		WinRatio:         NewWinRatio(tally),
		NetBenefit:       pT - pC,
		MannWhitneyU:     test.U,
		ZScore:           test.Z,
		PValue:           test.PValue,
		TestMethod:       test.Method,
	}
}
