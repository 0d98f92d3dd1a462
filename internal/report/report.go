// Package report renders DOOR analyses for people: a boxed plain-text
// summary, a markdown document (and its HTML rendering) and flat rows for
// CSV or spreadsheet export. Nothing here computes statistics.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"godoor/domain/door"
)

// DefaultAlpha is the significance threshold used when none is configured.
const DefaultAlpha = 0.05

var printer = message.NewPrinter(language.English)

// count formats with thousands separators.
func count[T ~int | ~int64](n T) string {
	return printer.Sprintf("%d", n)
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// Interpretation returns the bullet points describing which arm is favoured
// and whether the one-sided test is significant at alpha.
func Interpretation(r door.Result, alpha float64) []string {
	var lines []string
	switch r.WinRatio.Favors() {
	case 1:
		lines = append(lines,
			"Treatment demonstrates FAVORABLE benefit-risk profile",
			fmt.Sprintf("For every pair where control \"wins\", treatment \"wins\" %s times", r.WinRatio.Format(2)),
			"Treatment patients more likely to have desirable outcomes",
		)
	case -1:
		lines = append(lines,
			"Control demonstrates more favorable outcomes",
			"Win ratio < 1.0 suggests treatment may not improve outcomes",
		)
	default:
		lines = append(lines, "Treatments appear equivalent on DOOR ranking")
	}

	if r.Significant(alpha) {
		lines = append(lines, fmt.Sprintf("Result is statistically significant (p = %.4f)", r.PValue))
	} else {
		lines = append(lines, fmt.Sprintf("Result is NOT statistically significant (p = %.4f)", r.PValue))
	}
	return lines
}

const ordinalNote = `DOOR preserves the clinical ordering of outcomes without
assuming numerical equivalence between categories. A patient
in category 2 is always better than category 3, but we don't
assume the "distance" between them equals other category gaps.`

const rule = "─────────────────────────────────────────────────────────────"

// Text renders the plain-text report.
func Text(a *door.Analysis, alpha float64) string {
	r := a.Result
	var b strings.Builder

	b.WriteString("╔══════════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║                    DOOR ANALYSIS RESULTS                             ║\n")
	b.WriteString("║            Desirability of Outcome Ranking                           ║\n")
	b.WriteString("╚══════════════════════════════════════════════════════════════════════╝\n\n")

	fmt.Fprintf(&b, "SAMPLE SIZES\n%s\n", rule)
	fmt.Fprintf(&b, "  Treatment arm (%s):  %s patients\n", a.TreatmentArm, count(r.NTreatment))
	fmt.Fprintf(&b, "  Control arm (%s):    %s patients\n", a.ControlArm, count(r.NControl))
	fmt.Fprintf(&b, "  Total comparisons:   %s pairs\n\n", count(r.NPairs))

	fmt.Fprintf(&b, "PAIRWISE COMPARISON RESULTS\n%s\n", rule)
	fmt.Fprintf(&b, "  Treatment patient has better outcome:  %s pairs (%s)\n", count(r.TreatmentWins), percent(r.PTreatmentBetter))
	fmt.Fprintf(&b, "  Control patient has better outcome:    %s pairs (%s)\n", count(r.ControlWins), percent(r.PControlBetter))
	fmt.Fprintf(&b, "  Tied outcomes:                         %s pairs (%s)\n\n", count(r.Ties), percent(r.PTie))

	fmt.Fprintf(&b, "KEY METRICS\n%s\n", rule)
	fmt.Fprintf(&b, "  Win Ratio (Treatment/Control):         %s\n", r.WinRatio.Format(2))
	fmt.Fprintf(&b, "  Net Benefit (P_trt - P_ctrl):          %.3f (%.1f%%)\n", r.NetBenefit, r.NetBenefit*100)
	fmt.Fprintf(&b, "  Mann-Whitney U statistic:              %.1f\n", r.MannWhitneyU)
	fmt.Fprintf(&b, "  p-value (one-sided, %s):            %.4f\n\n", r.TestMethod, r.PValue)

	fmt.Fprintf(&b, "INTERPRETATION\n%s\n", rule)
	for _, line := range Interpretation(r, alpha) {
		fmt.Fprintf(&b, "  • %s\n", line)
	}

	fmt.Fprintf(&b, "\n%s\nNote: %s\n%s\n", rule, ordinalNote, rule)
	return b.String()
}
