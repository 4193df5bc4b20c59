package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// File reads a local .csv, .tsv or .xlsx file.
type File struct {
	Path string
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
	// Delimiter for CSV. If 0, '\t' for .tsv and ',' otherwise.
	Delimiter rune
}

// Fetch reads the whole file on every call.
func (f File) Fetch(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, f.fail(err)
	}
	var (
		grid [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".xlsx", ".xlsm":
		grid, err = f.readXLSX()
	case ".csv", ".tsv", ".txt":
		grid, err = f.readCSV()
	default:
		err = fmt.Errorf("unsupported file type %q (use .csv, .tsv or .xlsx)", filepath.Ext(f.Path))
	}
	if err != nil {
		return nil, f.fail(err)
	}
	return grid, nil
}

func (f File) fail(err error) error {
	return &Error{Source: filepath.Base(f.Path), Err: err}
}

func (f File) readCSV() ([][]string, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()
	// A leading BOM (as written by our exporter and by spreadsheet apps) is dropped.
	r := csv.NewReader(transform.NewReader(fh, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	r.FieldsPerRecord = -1
	r.Comma = f.Delimiter
	if r.Comma == 0 {
		r.Comma = ','
		if strings.HasSuffix(strings.ToLower(f.Path), ".tsv") {
			r.Comma = '\t'
		}
	}
	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return grid, nil
}

func (f File) readXLSX() ([][]string, error) {
	wb, err := excelize.OpenFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()
	sheet := f.Sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	} else if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", sheet, strings.Join(wb.GetSheetList(), ", "))
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}
