package excel

// Columns names the header cells holding each patient record field
type Columns struct {
	Patient string `json:"patient"`
	Arm     string `json:"arm"`
	Outcome string `json:"outcome"`
}

// DefaultColumns matches the layout written by the trial simulator
func DefaultColumns() Columns {
	return Columns{
		Patient: "patient_id",
		Arm:     "treatment",
		Outcome: "outcome",
	}
}

// ExcelConfig holds configuration for a CSV or XLSX patient file
type ExcelConfig struct {
	FilePath string  `json:"file_path"`
	Sheet    string  `json:"sheet"` // empty selects the first sheet
	Columns  Columns `json:"columns"`
}

// DefaultExcelConfig returns sensible defaults for path
func DefaultExcelConfig(path string) ExcelConfig {
	return ExcelConfig{
		FilePath: path,
		Columns:  DefaultColumns(),
	}
}

// withDefaults fills blank column names
func (c ExcelConfig) withDefaults() ExcelConfig {
	d := DefaultColumns()
	if c.Columns.Patient == "" {
		c.Columns.Patient = d.Patient
	}
	if c.Columns.Arm == "" {
		c.Columns.Arm = d.Arm
	}
	if c.Columns.Outcome == "" {
		c.Columns.Outcome = d.Outcome
	}
	return c
}
