package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"godoor/domain/door"
)

// Markdown renders the analysis with its hierarchy and distribution tables.
func Markdown(a *door.Analysis, alpha float64) string {
	r := a.Result
	var b strings.Builder

	fmt.Fprintf(&b, "# DOOR analysis: %s vs %s\n\n", escape(a.TreatmentArm), escape(a.ControlArm))
	fmt.Fprintf(&b, "Analysis `%s`, computed %s.\n\n", a.ID, a.CreatedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Outcome hierarchy\n\n")
	for i, label := range a.Hierarchy {
		fmt.Fprintf(&b, "%d. %s\n", i+1, escape(label))
	}

	b.WriteString("\n## Pairwise comparison\n\n")
	b.WriteString("| | Pairs | Share |\n|---|---:|---:|\n")
	fmt.Fprintf(&b, "| Treatment better | %s | %s |\n", count(r.TreatmentWins), percent(r.PTreatmentBetter))
	fmt.Fprintf(&b, "| Control better | %s | %s |\n", count(r.ControlWins), percent(r.PControlBetter))
	fmt.Fprintf(&b, "| Tied | %s | %s |\n", count(r.Ties), percent(r.PTie))
	fmt.Fprintf(&b, "| **Total** | %s | 100.0%% |\n", count(r.NPairs))

	b.WriteString("\n## Key metrics\n\n")
	fmt.Fprintf(&b, "- **Win ratio:** %s\n", r.WinRatio.Format(2))
	fmt.Fprintf(&b, "- **Net benefit:** %.3f\n", r.NetBenefit)
	fmt.Fprintf(&b, "- **Mann-Whitney U:** %.1f (z = %.3f, %s)\n", r.MannWhitneyU, r.ZScore, r.TestMethod)
	fmt.Fprintf(&b, "- **One-sided p-value:** %.4f\n", r.PValue)

	b.WriteString("\n## Outcome distribution\n\n")
	writeDistribution(&b, a.Distribution)

	b.WriteString("\n## Interpretation\n\n")
	for _, line := range Interpretation(r, alpha) {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	fmt.Fprintf(&b, "\n> %s\n", strings.ReplaceAll(ordinalNote, "\n", " "))
	return b.String()
}

// writeDistribution tabulates only the categories some patient falls into.
func writeDistribution(b *strings.Builder, d door.Distribution) {
	observed := d.ObservedCategories()
	shown := make(map[string]bool, len(observed))
	b.WriteString("| Arm | N |")
	for _, label := range observed {
		shown[label] = true
		fmt.Fprintf(b, " %s |", escape(label))
	}
	b.WriteString(" Median rank |\n|---|---:|")
	for range observed {
		b.WriteString("---:|")
	}
	b.WriteString("---:|\n")

	for _, arm := range d.Arms {
		fmt.Fprintf(b, "| %s | %s |", escape(arm.Arm), count(arm.Total))
		for _, c := range arm.Categories {
			if shown[c.Label] {
				fmt.Fprintf(b, " %d (%.1f%%) |", c.Count, c.Percent)
			}
		}
		fmt.Fprintf(b, " %.1f |\n", arm.MedianRank)
	}
}

// escape keeps user-supplied labels from breaking table cells.
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// HTML renders the markdown report as an HTML fragment.
func HTML(a *door.Analysis, alpha float64) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML | html.Safelink})
	return markdown.ToHTML([]byte(Markdown(a, alpha)), p, renderer)
}
