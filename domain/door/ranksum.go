package door

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Test methods reported in RankSumTest.Method.
const (
	MethodExact  = "exact"
	MethodNormal = "normal"
)

// exactLimit is the largest arm size for which the exact null distribution is
// enumerated. Larger or tied samples use the normal approximation.
const exactLimit = 8

// RankSumTest is a one-sided Mann-Whitney U test of the alternative that
// treatment ranks are stochastically smaller (better) than control ranks.
type RankSumTest struct {
	// U is the statistic for the treatment sample: R_T - nT(nT+1)/2.
	// It equals ControlWins + Ties/2 of the pairwise tally.
	U float64 `json:"u"`
	// RankSum is the sum of the treatment mid-ranks in the pooled sample.
	RankSum float64 `json:"rank_sum"`
	// Z is positive when treatment looks better; continuity corrected.
	Z      float64 `json:"z"`
	PValue float64 `json:"p_value"`
	Method string  `json:"method"`
}

// MannWhitney runs the test on two non-empty rank samples. Tied ranks get
// mid-ranks and the variance is tie corrected.
func MannWhitney(treatment, control []int) RankSumTest {
	nT := float64(len(treatment))
	nC := float64(len(control))
	n := nT + nC

	tFreq := frequencies(treatment)
	pooled := frequencies(treatment)
	for r, c := range frequencies(control) {
		pooled[r] += c
	}

	values := make([]int, 0, len(pooled))
	for r := range pooled {
		values = append(values, r)
	}
	sort.Ints(values)

	var rankSum, tieSum float64
	var seen int64
	hasTies := false
	for _, r := range values {
		count := pooled[r]
		midRank := float64(seen) + float64(count+1)/2
		rankSum += float64(tFreq[r]) * midRank
		if count > 1 {
			hasTies = true
			t := float64(count)
			tieSum += t*t*t - t
		}
		seen += count
	}

	u := rankSum - nT*(nT+1)/2
	mu := nT * nC / 2
	uControl := nT*nC - u

	variance := nT * nC / 12 * ((n + 1) - tieSum/(n*(n-1)))
	test := RankSumTest{U: u, RankSum: rankSum, Method: MethodNormal}

	if variance <= 0 {
		// every patient shares one rank: no evidence either way
		test.Z = 0
		test.PValue = 1.0
		return test
	}
	test.Z = (uControl - mu - 0.5) / math.Sqrt(variance)

	if !hasTies && len(treatment) <= exactLimit && len(control) <= exactLimit {
		test.Method = MethodExact
		test.PValue = exactLowerTail(len(treatment), len(control), int(math.Round(u)))
		return test
	}

	test.PValue = clampProbability(distuv.UnitNormal.Survival(test.Z))
	return test
}

// exactLowerTail returns P(U <= u) under the null hypothesis for samples of
// size m and n without ties.
func exactLowerTail(m, n, u int) float64 {
	maxU := m * n
	if u >= maxU {
		return 1.0
	}
	if u < 0 {
		return 0
	}

	// counts[i][j][s]: orderings of i treatment and j control values with U = s.
	// Placing the largest value in treatment adds j to U.
	counts := make([][][]float64, m+1)
	for i := range counts {
		counts[i] = make([][]float64, n+1)
		for j := range counts[i] {
			counts[i][j] = make([]float64, i*j+1)
		}
	}
	for i := 0; i <= m; i++ {
		for j := 0; j <= n; j++ {
			if i == 0 || j == 0 {
				counts[i][j][0] = 1
				continue
			}
			for s := 0; s <= i*j; s++ {
				var c float64
				if s-j >= 0 && s-j <= (i-1)*j {
					c += counts[i-1][j][s-j]
				}
				if s <= i*(j-1) {
					c += counts[i][j-1][s]
				}
				counts[i][j][s] = c
			}
		}
	}

	var total, tail float64
	for s, c := range counts[m][n] {
		total += c
		if s <= u {
			tail += c
		}
	}
	return clampProbability(tail / total)
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1.0
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
