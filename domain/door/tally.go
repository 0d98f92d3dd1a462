package door

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Tally is the win/loss/tie partition of a set of treatment-control pairs.
// Tallies over disjoint pair sets combine with Add in any order.
type Tally struct {
	TreatmentWins int64 `json:"treatment_wins"`
	ControlWins   int64 `json:"control_wins"`
	Ties          int64 `json:"ties"`
}

// Add returns the component-wise sum.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		TreatmentWins: t.TreatmentWins + o.TreatmentWins,
		ControlWins:   t.ControlWins + o.ControlWins,
		Ties:          t.Ties + o.Ties,
	}
}

// Pairs is the number of comparisons the tally covers.
func (t Tally) Pairs() int64 {
	return t.TreatmentWins + t.ControlWins + t.Ties
}

// Swap exchanges the roles of the two arms.
func (t Tally) Swap() Tally {
	return Tally{TreatmentWins: t.ControlWins, ControlWins: t.TreatmentWins, Ties: t.Ties}
}

// comparePair is the DOOR rule for one pair: the lower rank is the better outcome.
func comparePair(t, c int) Tally {
	switch {
	case t < c:
		return Tally{TreatmentWins: 1}
	case t > c:
		return Tally{ControlWins: 1}
	default:
		return Tally{Ties: 1}
	}
}

// TallyPairs enumerates the full Cartesian product of the two samples.
func TallyPairs(treatment, control []int) Tally {
	var total Tally
	for _, t := range treatment {
		total = total.Add(tallyRow(t, control))
	}
	return total
}

func tallyRow(t int, control []int) Tally {
	var row Tally
	for _, c := range control {
		row = row.Add(comparePair(t, c))
	}
	return row
}

// TallyPairsParallel splits the treatment sample into chunks and folds each
// chunk on its own goroutine, at most workers at a time. The result is
// identical to TallyPairs.
func TallyPairsParallel(ctx context.Context, treatment, control []int, workers int) (Tally, error) {
	if workers < 1 {
		workers = 1
	}
	chunk := (len(treatment) + workers - 1) / workers
	if chunk == 0 {
		return Tally{}, nil
	}

	partials := make([]Tally, (len(treatment)+chunk-1)/chunk)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range partials {
		i := i
		lo := i * chunk
		hi := min(lo+chunk, len(treatment))
		g.Go(func() error {
			var part Tally
			for j, t := range treatment[lo:hi] {
				if j%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				part = part.Add(tallyRow(t, control))
			}
			partials[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Tally{}, err
	}

	var total Tally
	for _, p := range partials {
		total = total.Add(p)
	}
	return total, nil
}

// TallyFrequencies produces the same counts as TallyPairs from the rank
// frequencies of each arm, in O(n log n) instead of O(n*m).
func TallyFrequencies(treatment, control []int) Tally {
	tFreq := frequencies(treatment)
	cFreq := frequencies(control)

	cRanks := make([]int, 0, len(cFreq))
	for r := range cFreq {
		cRanks = append(cRanks, r)
	}
	sort.Ints(cRanks)

	// below[i] is the number of control patients with rank < cRanks[i]
	below := make([]int64, len(cRanks)+1)
	for i, r := range cRanks {
		below[i+1] = below[i] + cFreq[r]
	}
	nControl := below[len(cRanks)]

	var total Tally
	for r, n := range tFreq {
		i := sort.SearchInts(cRanks, r)
		better := below[i]
		var same int64
		if i < len(cRanks) && cRanks[i] == r {
			same = cFreq[r]
		}
		worse := nControl - better - same

		total = total.Add(Tally{
			TreatmentWins: n * worse,
			ControlWins:   n * better,
			Ties:          n * same,
		})
	}
	return total
}

func frequencies(ranks []int) map[int]int64 {
	freq := make(map[int]int64)
	for _, r := range ranks {
		freq[r]++
	}
	return freq
}
