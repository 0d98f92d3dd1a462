package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"godoor/domain/door"
	"godoor/internal/report"
)

func newRankCmd() *cobra.Command {
	var in inputFlags
	var output string
	var summary bool

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Assign every patient the rank of their outcome",
		Long: `Resolve each patient's outcome label to its hierarchy rank (1 = best) and
write patient_id, arm, outcome, rank as CSV. Unknown outcomes are all listed.

Example: door rank -i trial.csv -H outcomes.yaml --summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := in.resolve(cfg.Data); err != nil {
				return err
			}

			h, records, err := in.load(cmd.Context(), logger)
			if err != nil {
				return err
			}
			assignments, err := door.Assign(h, records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			w := csv.NewWriter(out)
			if err := w.Write([]string{"patient_id", "arm", "outcome", "rank"}); err != nil {
				return err
			}
			for _, a := range assignments {
				if err := w.Write([]string{a.PatientID, a.Arm, a.Outcome, strconv.Itoa(a.Rank)}); err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}

			if summary {
				dist := door.Summarize(h, assignments, door.Arms(records)...)
				sw := csv.NewWriter(cmd.ErrOrStderr())
				if err := sw.Write(report.DistributionColumns); err != nil {
					return err
				}
				if err := sw.WriteAll(report.DistributionRows(dist)); err != nil {
					return err
				}
			}
			logger.Info("Ranked %d patients across %d arms", len(assignments), len(door.Arms(records)))
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the ranked rows to this CSV file instead of stdout")
	cmd.Flags().BoolVar(&summary, "summary", false, "Also print the per-arm outcome distribution to stderr")

	return cmd
}
