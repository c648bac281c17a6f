package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row maps a cleaned header name to the cell value of one data row.
type Row map[string]string

// Identity columns that distinguish real data rows from the instructional
// or sample rows that ship with the upload templates.
var identityColumns = []string{"firstName", "lastName", "email"}

// Parse reads an uploaded roster file into ordered data rows keyed by the
// cleaned header names. Files with a .csv extension use the CSV rules below;
// anything else is opened as a spreadsheet workbook, first sheet only.
//
// The first row must be a header row. A header cell's display text is cut at
// its first parenthesis and trimmed, so "email (REQUIRED, must be unique)"
// becomes the key "email". An empty resulting header name is a fatal error,
// as is a file with fewer than two rows or one whose data rows are all
// filtered out.
func Parse(path string) ([]Row, error) {
	var records [][]string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read csv file: %w", err)
		}
		records = splitCSV(string(raw))
	} else {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close() //nolint:errcheck
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		records, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
		}
	}
	return buildRows(records)
}

func buildRows(records [][]string) ([]Row, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	headers := make([]string, len(records[0]))
	for i, cell := range records[0] {
		name := cleanHeader(cell)
		if name == "" {
			return nil, fmt.Errorf("empty header name in column %d", i+1)
		}
		headers[i] = name
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		empty := true
		for i, header := range headers {
			var value string
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[header] = value
			if value != "" {
				empty = false
			}
		}
		if empty || !hasIdentity(row) {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no valid data rows found")
	}
	return rows, nil
}

// cleanHeader cuts the header text at its first parenthesis and trims the
// remainder, dropping inline usage hints from the template.
func cleanHeader(cell string) string {
	if idx := strings.Index(cell, "("); idx >= 0 {
		cell = cell[:idx]
	}
	return strings.TrimSpace(cell)
}

func hasIdentity(row Row) bool {
	for _, col := range identityColumns {
		if row[col] != "" {
			return true
		}
	}
	return false
}

// splitCSV splits raw CSV text on unescaped newlines, then on unescaped
// commas. Double-quote delimited values may embed commas and newlines, and
// backslash-escaped quotes inside a quoted value are honored.
func splitCSV(raw string) [][]string {
	var (
		records  [][]string
		fields   []string
		current  strings.Builder
		inQuotes bool
		escaped  bool
		sawAny   bool
	)

	endField := func() {
		fields = append(fields, strings.TrimSpace(current.String()))
		current.Reset()
	}
	endRecord := func() {
		endField()
		records = append(records, fields)
		fields = nil
		sawAny = false
	}

	for _, r := range raw {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inQuotes {
				escaped = true
			} else {
				current.WriteRune(r)
			}
			sawAny = true
		case '"':
			inQuotes = !inQuotes
			sawAny = true
		case ',':
			if inQuotes {
				current.WriteRune(r)
			} else {
				endField()
			}
			sawAny = true
		case '\n':
			if inQuotes {
				current.WriteRune(r)
			} else if sawAny || len(fields) > 0 {
				endRecord()
			}
		case '\r':
			if inQuotes {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
			sawAny = true
		}
	}
	if sawAny || len(fields) > 0 {
		endRecord()
	}

	return records
}
