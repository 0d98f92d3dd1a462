package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"godoor/domain/core"
	"godoor/domain/door"
	"godoor/internal"
)

// RecordReader implements ports.RecordSource over a CSV or XLSX file
type RecordReader struct {
	config ExcelConfig
	reader *DataReader
	logger *internal.Logger
}

// NewRecordReader creates a record source for the configured file
func NewRecordReader(config ExcelConfig, logger *internal.Logger) *RecordReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	config = config.withDefaults()
	return &RecordReader{
		config: config,
		reader: NewDataReader(config.FilePath, config.Sheet, logger),
		logger: logger.With("RecordReader"),
	}
}

// ReadRecords reads one patient record per non-blank data row. Arm and
// outcome cells are required; a missing patient ID column falls back to the
// spreadsheet row number.
func (r *RecordReader) ReadRecords(ctx context.Context) ([]door.PatientRecord, error) {
	data, err := r.reader.ReadData(ctx)
	if err != nil {
		return nil, err
	}
	records, err := RecordsFromData(data, r.config.Columns)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Read %d patient records from %s", len(records), r.config.FilePath)
	return records, nil
}

// RecordsFromData maps parsed rows onto patient records
func RecordsFromData(data *ExcelData, cols Columns) ([]door.PatientRecord, error) {
	for _, required := range []string{cols.Arm, cols.Outcome} {
		if !data.HasColumn(required) {
			return nil, fmt.Errorf("%w: column %q not found (have %v)", core.ErrInvalidRecord, required, data.Headers)
		}
	}
	hasPatient := data.HasColumn(cols.Patient)

	records := make([]door.PatientRecord, 0, len(data.Rows))
	for i, row := range data.Rows {
		if row.IsBlank() {
			continue
		}
		line := i + 2 // header is line 1

		arm := row[cols.Arm]
		if strings.TrimSpace(arm) == "" {
			return nil, core.NewRecordError(line, fmt.Sprintf("empty %s", cols.Arm))
		}
		outcome := row[cols.Outcome]
		if strings.TrimSpace(outcome) == "" {
			return nil, core.NewRecordError(line, fmt.Sprintf("empty %s", cols.Outcome))
		}

		id := strconv.Itoa(line)
		if hasPatient && row[cols.Patient] != "" {
			id = row[cols.Patient]
		}
		records = append(records, door.PatientRecord{PatientID: id, Arm: arm, Outcome: outcome})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no patient rows", core.ErrInvalidRecord)
	}
	return records, nil
}
