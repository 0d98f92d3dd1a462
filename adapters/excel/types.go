package excel

import "strings"

// RawRowData represents a row of raw cell text keyed by header
type RawRowData map[string]string

// ExcelData represents a complete sheet
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// HasColumn reports whether header is present
func (d *ExcelData) HasColumn(header string) bool {
	for _, h := range d.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// IsBlank reports whether every cell is empty or whitespace
func (r RawRowData) IsBlank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
