package door

import (
	"github.com/montanaflynn/stats"
)

// CategoryCount is one cell of the distribution table.
type CategoryCount struct {
	Label   string  `json:"label"`
	Rank    int     `json:"rank"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ArmDistribution is one row of the distribution table. Categories follow
// hierarchy order and include categories with zero patients.
type ArmDistribution struct {
	Arm        string          `json:"arm"`
	Total      int             `json:"total"`
	Categories []CategoryCount `json:"categories"`
	MeanRank   float64         `json:"mean_rank"`
	MedianRank float64         `json:"median_rank"`
}

// Distribution tabulates outcome counts and percentages per arm.
type Distribution struct {
	Categories []string          `json:"categories"`
	Arms       []ArmDistribution `json:"arms"`
}

// Summarize counts assignments per (arm, category). With no arms given, every
// arm present is summarised in order of first appearance.
func Summarize(h *Hierarchy, assignments []Assignment, arms ...string) Distribution {
	if len(arms) == 0 {
		records := make([]PatientRecord, len(assignments))
		for i, a := range assignments {
			records[i] = a.PatientRecord
		}
		arms = Arms(records)
	}

	dist := Distribution{Categories: h.Labels()}
	for _, arm := range arms {
		dist.Arms = append(dist.Arms, summarizeArm(h, arm, RanksFor(assignments, arm)))
	}
	return dist
}

func summarizeArm(h *Hierarchy, arm string, ranks []int) ArmDistribution {
	counts := make([]int, h.Len())
	for _, r := range ranks {
		if r >= 1 && r <= len(counts) {
			counts[r-1]++
		}
	}

	row := ArmDistribution{Arm: arm, Total: len(ranks)}
	for i, label := range h.labels {
		cell := CategoryCount{Label: label, Rank: i + 1, Count: counts[i]}
		if row.Total > 0 {
			cell.Percent = float64(counts[i]) / float64(row.Total) * 100
		}
		row.Categories = append(row.Categories, cell)
	}

	// stats returns an error only for empty input, leaving the zero values
	data := stats.LoadRawData(ranks)
	if mean, err := data.Mean(); err == nil {
		row.MeanRank = mean
	}
	if median, err := data.Median(); err == nil {
		row.MedianRank = median
	}
	return row
}

// Arm returns the row for arm.
func (d Distribution) Arm(arm string) (ArmDistribution, bool) {
	for _, a := range d.Arms {
		if a.Arm == arm {
			return a, true
		}
	}
	return ArmDistribution{}, false
}

// ObservedCategories lists, in hierarchy order, the categories at least one
// patient in any arm falls into.
func (d Distribution) ObservedCategories() []string {
	var out []string
	for i, label := range d.Categories {
		for _, arm := range d.Arms {
			if i < len(arm.Categories) && arm.Categories[i].Count > 0 {
				out = append(out, label)
				break
			}
		}
	}
	return out
}
