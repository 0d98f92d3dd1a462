package report

import (
	"strconv"

	"godoor/domain/door"
)

// ResultColumns is the header of the flat result export.
var ResultColumns = []string{
	"analysis_id", "treatment_arm", "control_arm",
	"n_treatment", "n_control", "n_pairs",
	"treatment_wins", "control_wins", "ties",
	"p_treatment_better", "p_control_better", "p_tie",
	"win_ratio", "net_benefit",
	"mann_whitney_u", "z_score", "p_value", "test_method",
}

// ResultRow flattens an analysis in ResultColumns order. An infinite win
// ratio is written as "inf" and an undefined one as an empty cell.
func ResultRow(a *door.Analysis) []string {
	r := a.Result
	return []string{
		a.ID.String(), a.TreatmentArm, a.ControlArm,
		strconv.Itoa(r.NTreatment), strconv.Itoa(r.NControl), strconv.FormatInt(r.NPairs, 10),
		strconv.FormatInt(r.TreatmentWins, 10), strconv.FormatInt(r.ControlWins, 10), strconv.FormatInt(r.Ties, 10),
		formatFloat(r.PTreatmentBetter), formatFloat(r.PControlBetter), formatFloat(r.PTie),
		winRatioCell(r.WinRatio), formatFloat(r.NetBenefit),
		formatFloat(r.MannWhitneyU), formatFloat(r.ZScore), formatFloat(r.PValue), r.TestMethod,
	}
}

func winRatioCell(w door.WinRatio) string {
	switch w.Kind {
	case door.Finite:
		return formatFloat(w.Value)
	case door.Infinite:
		return "inf"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// DistributionColumns is the header of the long-format distribution export.
var DistributionColumns = []string{"arm", "rank", "category", "count", "percent"}

// DistributionRows flattens the distribution to one row per (arm, category).
func DistributionRows(d door.Distribution) [][]string {
	var rows [][]string
	for _, arm := range d.Arms {
		for _, c := range arm.Categories {
			rows = append(rows, []string{
				arm.Arm, strconv.Itoa(c.Rank), c.Label, strconv.Itoa(c.Count), strconv.FormatFloat(c.Percent, 'f', 2, 64),
			})
		}
	}
	return rows
}
