package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"godoor/adapters/excel"
	"godoor/adapters/hierarchyfile"
	"godoor/app"
	"godoor/internal/container"
	"godoor/internal/report"
	"godoor/internal/trialsim"
)

func newSimulateCmd() *cobra.Command {
	var seed int64
	var treatmentSize, controlSize int
	var output, hierarchyOutput string
	var analyze bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate an example cardiovascular trial",
		Long: `Generate a seeded two-arm cardiovascular trial with an eight-category outcome
hierarchy, and write the patient rows and the hierarchy definition.

Example: door simulate -o door_example.xlsx --analyze`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			sim := trialsim.DefaultConfig()
			sim.Seed = seed
			sim.Treatment.Size = treatmentSize
			sim.Control.Size = controlSize

			trial, err := trialsim.Generate(sim)
			if err != nil {
				return err
			}

			if err := excel.WriteRecords(output, trial.Records); err != nil {
				return err
			}
			logger.Info("Example data saved to %s (%d patients)", output, len(trial.Records))

			if hierarchyOutput != "" {
				data, err := hierarchyfile.Marshal("cardiovascular", trial.Hierarchy)
				if err != nil {
					return err
				}
				if err := os.WriteFile(hierarchyOutput, data, 0o644); err != nil {
					return fmt.Errorf("failed to write hierarchy file: %w", err)
				}
				logger.Info("Hierarchy saved to %s", hierarchyOutput)
			}

			if !analyze {
				return nil
			}

			c, err := container.New(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			analysis, err := c.AnalysisService.Run(cmd.Context(), app.AnalysisRequest{
				Hierarchy:    trial.Hierarchy,
				Records:      trial.Records,
				TreatmentArm: trial.TreatmentArm,
				ControlArm:   trial.ControlArm,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Text(analysis, cfg.Analysis.Alpha))
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().IntVar(&treatmentSize, "treatment-size", 500, "Patients in the treatment arm")
	cmd.Flags().IntVar(&controlSize, "control-size", 500, "Patients in the control arm")
	cmd.Flags().StringVarP(&output, "output", "o", "door_example.csv", "Patient data file, .csv or .xlsx")
	cmd.Flags().StringVar(&hierarchyOutput, "hierarchy-output", "door_hierarchy.yaml", "Hierarchy definition file (empty to skip)")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Analyze the generated trial and print the report")

	return cmd
}
