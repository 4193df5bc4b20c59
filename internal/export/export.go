package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/KaramelBytes/sheetpulse/internal/table"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Options controls delimited output.
type Options struct {
	// Delimiter between fields. If 0, ',' is used.
	Delimiter rune
}

// EncodingError indicates a value could not be written as UTF-8.
type EncodingError struct {
	Row    int
	Column string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encode row %d column %q: %v", e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("encode row %d column %q: invalid UTF-8", e.Row, e.Column)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ToDelimitedBuffer writes columns as a header line followed by one line per
// record. The output is UTF-8 with a leading byte-order mark so spreadsheet
// applications detect the encoding. Fields missing from a record are empty.
// Line breaks inside a field are written as "\n"; encoding/csv reads "\r\n"
// back as "\n", so only that form survives a round trip.
func ToDelimitedBuffer(records []table.Record, columns []string, opt Options) ([]byte, error) {
	for i, c := range columns {
		if !utf8.ValidString(c) {
			return nil, &EncodingError{Row: 0, Column: columns[i]}
		}
	}
	for r, rec := range records {
		for _, c := range columns {
			if !utf8.ValidString(rec.Value(c)) {
				return nil, &EncodingError{Row: r + 1, Column: c}
			}
		}
	}

	var buf bytes.Buffer
	tw := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(tw)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}
	if err := w.Write(table.NormalizeAll(columns)); err != nil {
		return nil, &EncodingError{Row: 0, Err: err}
	}
	row := make([]string, len(columns))
	for r, rec := range records {
		for j, c := range columns {
			row[j] = table.Normalize(rec.Value(c))
		}
		if err := w.Write(row); err != nil {
			return nil, &EncodingError{Row: r + 1, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &EncodingError{Err: err}
	}
	if err := tw.Close(); err != nil {
		return nil, &EncodingError{Err: err}
	}
	return buf.Bytes(), nil
}

// TableCSV is ToDelimitedBuffer over every column of t.
func TableCSV(t *table.Table, opt Options) ([]byte, error) {
	return ToDelimitedBuffer(t.Records(), t.Header, opt)
}

// ToXLSX writes the records to a single-sheet workbook.
func ToXLSX(records []table.Record, columns []string, sheet string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for r, rec := range records {
		row := make([]interface{}, len(columns))
		for j, c := range columns {
			row[j] = rec.Value(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns <prefix>_<YYYYMMDD>.<ext> for the export time at.
func Filename(prefix string, at time.Time, ext string) string {
	if ext == "" {
		ext = FormatCSV
	}
	return fmt.Sprintf("%s_%s.%s", prefix, at.Format("20060102"), ext)
}
