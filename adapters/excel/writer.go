package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"godoor/domain/door"
	"godoor/internal/report"
)

const (
	resultsSheet      = "Results"
	distributionSheet = "Distribution"
	recordsSheet      = "Patients"
)

// WriteResults exports analyses by file extension: one result row per
// analysis to CSV, or a workbook with Results and Distribution sheets.
func WriteResults(path string, analyses ...*door.Analysis) error {
	if len(analyses) == 0 {
		return fmt.Errorf("no analyses to export")
	}

	rows := make([][]string, 0, len(analyses))
	for _, a := range analyses {
		rows = append(rows, report.ResultRow(a))
	}

	if fileTypeOf(path) == "csv" {
		return writeCSV(path, report.ResultColumns, rows)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSheet(f, resultsSheet, report.ResultColumns, rows, true); err != nil {
		return err
	}

	if _, err := f.NewSheet(distributionSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	header := append([]string{"analysis_id"}, report.DistributionColumns...)
	var dist [][]string
	for _, a := range analyses {
		for _, row := range report.DistributionRows(a.Distribution) {
			dist = append(dist, append([]string{a.ID.String()}, row...))
		}
	}
	if err := writeSheet(f, distributionSheet, header, dist, true); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteRecords exports patient records in the layout DefaultColumns reads
func WriteRecords(path string, records []door.PatientRecord) error {
	cols := DefaultColumns()
	header := []string{cols.Patient, cols.Arm, cols.Outcome}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.PatientID, r.Arm, r.Outcome}
	}

	if fileTypeOf(path) == "csv" {
		return writeCSV(path, header, rows)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSheet(f, recordsSheet, header, rows, false); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return file.Close()
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, numeric bool) error {
	if err := f.SetSheetRow(sheet, "A1", cells(header, false)); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, cells(row, numeric)); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// cells converts a row for SetSheetRow. With numeric set, finite numbers
// become numeric cells; everything else stays text.
func cells(values []string, numeric bool) *[]interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if !numeric {
			out[i] = v
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			out[i] = f
			continue
		}
		out[i] = v
	}
	return &out
}
