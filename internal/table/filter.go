package table

import (
	"fmt"
	"strings"
)

// DropEmptyColumns removes every column whose data cells are all empty.
// Column order is preserved.
func DropEmptyColumns(t *Table) *Table {
	keep := make([]int, 0, len(t.Header))
	for j := range t.Header {
		for _, row := range t.Rows {
			if row[j] != "" {
				keep = append(keep, j)
				break
			}
		}
	}
	return t.pick(keep)
}

// FilterByAllowedValues keeps rows whose value in column is one of allowed.
// An empty string in allowed matches blank cells.
func FilterByAllowedValues(t *Table, column string, allowed []string) (*Table, error) {
	j := t.Index(column)
	if j < 0 {
		return nil, &SchemaError{Column: column, Reason: "열을 찾을 수 없습니다."}
	}
	set := toSet(allowed)
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if _, ok := set[row[j]]; ok {
			rows = append(rows, row)
		}
	}
	return derive(t.Header, rows), nil
}

// ProjectColumns keeps the columns of want that exist in t, in want's order.
func ProjectColumns(t *Table, want []string) (*Table, error) {
	keep := make([]int, 0, len(want))
	seen := map[int]bool{}
	for _, c := range want {
		if j := t.Index(c); j >= 0 && !seen[j] {
			keep = append(keep, j)
			seen[j] = true
		}
	}
	if len(keep) == 0 {
		return nil, &SchemaError{Reason: fmt.Sprintf("필요한 컬럼을 찾을 수 없습니다. (%s)", strings.Join(want, ", "))}
	}
	return t.pick(keep), nil
}

// ExcludeByValues drops rows whose value in column is one of excluded.
// A missing column leaves the table unchanged.
func ExcludeByValues(t *Table, column string, excluded []string) *Table {
	j := t.Index(column)
	if j < 0 {
		return t
	}
	set := toSet(excluded)
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if _, drop := set[row[j]]; !drop {
			rows = append(rows, row)
		}
	}
	return derive(t.Header, rows)
}

// MatchValue keeps rows whose value in column equals value.
func MatchValue(t *Table, column, value string) *Table {
	return ExcludeFunc(t, column, func(v string) bool { return v != value })
}

// ExcludeFunc drops rows for which drop(value) is true; missing column is a no-op.
func ExcludeFunc(t *Table, column string, drop func(string) bool) *Table {
	j := t.Index(column)
	if j < 0 {
		return t
	}
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if !drop(row[j]) {
			rows = append(rows, row)
		}
	}
	return derive(t.Header, rows)
}

func (t *Table) pick(cols []int) *Table {
	header := make([]string, len(cols))
	for i, j := range cols {
		header[i] = t.Header[j]
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, len(cols))
		for i, j := range cols {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return derive(header, rows)
}

func toSet(vals []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}
