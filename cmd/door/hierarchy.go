package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"godoor/adapters/excel"
	"godoor/adapters/hierarchyfile"
)

func newHierarchyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Inspect outcome hierarchy files",
	}
	cmd.AddCommand(newHierarchyValidateCmd())
	return cmd
}

func newHierarchyValidateCmd() *cobra.Command {
	var input, sheet, outcomeColumn string

	cmd := &cobra.Command{
		Use:   "validate [hierarchy-file]",
		Short: "Check a hierarchy file and, optionally, the outcomes of a data file against it",
		Long: `Parse a hierarchy definition, reject empty or duplicated outcome lists and
print each outcome with its rank. With --input, every outcome label in the
data file must also appear in the hierarchy.

Example: door hierarchy validate outcomes.yaml --input trial.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := loadConfig()
			if err != nil {
				return err
			}

			def, err := hierarchyfile.NewFileSource(args[0]).Load()
			if err != nil {
				return err
			}
			h, err := def.Hierarchy()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if def.Name != "" {
				fmt.Fprintf(out, "%s\n", def.Name)
			}
			for i, label := range h.Labels() {
				fmt.Fprintf(out, "%3d  %s\n", i+1, label)
			}

			if input == "" {
				return nil
			}

			data, err := excel.NewDataReader(input, sheet, logger).ReadData(cmd.Context())
			if err != nil {
				return err
			}
			if !data.HasColumn(outcomeColumn) {
				return fmt.Errorf("column %q not found in %s", outcomeColumn, input)
			}
			var labels []string
			for _, row := range data.Rows {
				if !row.IsBlank() {
					labels = append(labels, row[outcomeColumn])
				}
			}
			if err := h.Validate(labels); err != nil {
				return err
			}
			fmt.Fprintf(out, "All %d outcomes in %s are in the hierarchy\n", len(labels), input)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Data file whose outcomes must all be known")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (default first sheet)")
	cmd.Flags().StringVar(&outcomeColumn, "outcome-column", "outcome", "Outcome column")

	return cmd
}
