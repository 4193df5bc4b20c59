package table

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table is a header-indexed grid of string cells. Row 0 of the source grid
// becomes Header; every row in Rows has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// Record is one table row as an ordered column -> value mapping.
type Record struct {
	Columns []string
	Values  []string
}

// Get returns the value for column and whether the column exists.
func (r Record) Get(column string) (string, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return "", false
}

// Value returns the value for column or "" when the column is absent.
func (r Record) Value(column string) string {
	v, _ := r.Get(column)
	return v
}

// New builds a Table from a raw grid whose first row is the header.
// Header names and cells go through Normalize, ragged rows are padded with
// empty cells and over-long rows are cut to the header width.
func New(grid [][]string) (*Table, error) {
	if len(grid) == 0 {
		return &Table{index: map[string]int{}}, nil
	}
	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = Normalize(strings.TrimSpace(h))
	}
	rows := make([][]string, 0, len(grid)-1)
	for _, raw := range grid[1:] {
		row := make([]string, len(header))
		for j := 0; j < len(header) && j < len(raw); j++ {
			row[j] = Normalize(raw[j])
		}
		rows = append(rows, row)
	}
	return build(header, rows)
}

func build(header []string, rows [][]string) (*Table, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if _, dup := idx[h]; dup {
			return nil, &SchemaError{Column: h, Reason: "duplicate column name"}
		}
		idx[h] = i
	}
	return &Table{Header: header, Rows: rows, index: idx}, nil
}

// derive builds a table that shares the (already validated) header.
func derive(header []string, rows [][]string) *Table {
	t, _ := build(header, rows)
	return t
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize returns s in Unicode NFC with every line break written as "\n".
// Configured column names and filter values are compared in this form.
func Normalize(s string) string {
	if strings.ContainsRune(s, '\r') {
		s = lineBreaks.Replace(s)
	}
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// NormalizeAll applies Normalize to every element of vals.
func NormalizeAll(vals []string) []string {
	if vals == nil {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = Normalize(v)
	}
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	if t == nil {
		return -1
	}
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Has reports whether column is part of the header.
func (t *Table) Has(column string) bool { return t.Index(column) >= 0 }

// Column returns every value of column in row order, or nil when absent.
func (t *Table) Column(column string) []string {
	i := t.Index(column)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Value returns the cell at row for column, or "" when the column is absent.
func (t *Table) Value(row int, column string) string {
	i := t.Index(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Records converts the rows into ordered records.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	recs := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		vals := make([]string, len(row))
		copy(vals, row)
		recs[i] = Record{Columns: t.Header, Values: vals}
	}
	return recs
}
