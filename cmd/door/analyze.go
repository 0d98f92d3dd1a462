package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"godoor/adapters/excel"
	"godoor/adapters/hierarchyfile"
	"godoor/app"
	"godoor/domain/door"
	"godoor/internal"
	"godoor/internal/config"
	"godoor/internal/container"
	"godoor/internal/report"
)

// inputFlags are shared by every command that reads patient rows
type inputFlags struct {
	input     string
	hierarchy string
	sheet     string
	patient   string
	arm       string
	outcome   string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Patient data file, .csv or .xlsx (default $DOOR_INPUT_FILE)")
	cmd.Flags().StringVarP(&f.hierarchy, "hierarchy", "H", "", "Hierarchy definition file (default $DOOR_HIERARCHY_FILE)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read (default first sheet)")
	cmd.Flags().StringVar(&f.patient, "patient-column", "", "Patient ID column (default patient_id)")
	cmd.Flags().StringVar(&f.arm, "arm-column", "", "Treatment arm column (default treatment)")
	cmd.Flags().StringVar(&f.outcome, "outcome-column", "", "Outcome column (default outcome)")
}

// resolve fills unset flags from the environment configuration
func (f *inputFlags) resolve(cfg config.DataConfig) error {
	f.input = orDefault(f.input, cfg.InputFile)
	f.hierarchy = orDefault(f.hierarchy, cfg.HierarchyFile)
	f.sheet = orDefault(f.sheet, cfg.Sheet)
	f.patient = orDefault(f.patient, cfg.PatientColumn)
	f.arm = orDefault(f.arm, cfg.ArmColumn)
	f.outcome = orDefault(f.outcome, cfg.OutcomeColumn)

	if f.input == "" {
		return fmt.Errorf("an input file is required (--input or DOOR_INPUT_FILE)")
	}
	if f.hierarchy == "" {
		return fmt.Errorf("a hierarchy file is required (--hierarchy or DOOR_HIERARCHY_FILE)")
	}
	return nil
}

func (f *inputFlags) load(ctx context.Context, logger *internal.Logger) (*door.Hierarchy, []door.PatientRecord, error) {
	h, err := hierarchyfile.NewFileSource(f.hierarchy).LoadHierarchy(ctx)
	if err != nil {
		return nil, nil, err
	}

	reader := excel.NewRecordReader(excel.ExcelConfig{
		FilePath: f.input,
		Sheet:    f.sheet,
		Columns:  excel.Columns{Patient: f.patient, Arm: f.arm, Outcome: f.outcome},
	}, logger)
	records, err := reader.ReadRecords(ctx)
	if err != nil {
		return nil, nil, err
	}
	return h, records, nil
}

func newAnalyzeCmd() *cobra.Command {
	var in inputFlags
	var treatment, control string
	var format, output, reportFile string
	var alpha float64

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compare a treatment arm against a control arm",
		Long: `Rank every patient by the outcome hierarchy, compare all treatment/control
pairs and report the win ratio, net benefit and Mann-Whitney p-value.

Example: door analyze -i trial.xlsx -H outcomes.yaml --treatment "Drug A" --control Placebo -o results.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := in.resolve(cfg.Data); err != nil {
				return err
			}
			if !cmd.Flags().Changed("alpha") {
				alpha = cfg.Analysis.Alpha
			}

			h, records, err := in.load(cmd.Context(), logger)
			if err != nil {
				return err
			}

			treatment = orDefault(treatment, cfg.Data.TreatmentArm)
			control = orDefault(control, cfg.Data.ControlArm)
			if treatment == "" || control == "" {
				if treatment, control, err = pickArms(records, treatment, control); err != nil {
					return err
				}
				logger.Warn("Arms not given, comparing %q (treatment) against %q (control)", treatment, control)
			}

			c, err := container.New(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			analysis, err := c.AnalysisService.Run(cmd.Context(), app.AnalysisRequest{
				Hierarchy:    h,
				Records:      records,
				TreatmentArm: treatment,
				ControlArm:   control,
			})
			if err != nil {
				return err
			}

			if output != "" {
				if err := excel.WriteResults(output, analysis); err != nil {
					return err
				}
				logger.Info("Results saved to %s", output)
			}

			w := cmd.OutOrStdout()
			if reportFile != "" {
				f, err := os.Create(reportFile)
				if err != nil {
					return fmt.Errorf("failed to create report file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeReport(w, analysis, format, alpha)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&treatment, "treatment", "t", "", "Treatment arm (default $DOOR_TREATMENT_ARM)")
	cmd.Flags().StringVarP(&control, "control", "c", "", "Control arm (default $DOOR_CONTROL_ARM)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Report format: text, markdown, html or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also export the result row to a .csv or .xlsx file")
	cmd.Flags().StringVar(&reportFile, "report", "", "Write the report to this file instead of stdout")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level (default $DOOR_ALPHA)")

	return cmd
}

// pickArms completes a partially specified comparison when the data holds
// exactly two arms, taking them in order of appearance.
func pickArms(records []door.PatientRecord, treatment, control string) (string, string, error) {
	arms := door.Arms(records)
	if len(arms) != 2 {
		return "", "", fmt.Errorf("data has %d arms %q; specify --treatment and --control", len(arms), arms)
	}
	switch {
	case treatment == "" && control == "":
		return arms[0], arms[1], nil
	case treatment == "":
		return other(arms, control), control, nil
	default:
		return treatment, other(arms, treatment), nil
	}
}

func other(arms []string, arm string) string {
	if arms[0] == arm {
		return arms[1]
	}
	return arms[0]
}

func writeReport(w io.Writer, a *door.Analysis, format string, alpha float64) error {
	switch format {
	case "text", "":
		_, err := io.WriteString(w, report.Text(a, alpha))
		return err
	case "markdown", "md":
		_, err := io.WriteString(w, report.Markdown(a, alpha))
		return err
	case "html":
		_, err := w.Write(report.HTML(a, alpha))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	default:
		return fmt.Errorf("unknown report format %q (text, markdown, html, json)", format)
	}
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
