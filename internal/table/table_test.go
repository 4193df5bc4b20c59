package table

import (
	"errors"
	"reflect"
	"testing"
)

func mustNew(t *testing.T, grid [][]string) *Table {
	t.Helper()
	tb, err := New(grid)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tb
}

func TestNewPadsRaggedRowsAndNormalizes(t *testing.T) {
	// "결과" spelled with decomposed jamo must match the composed form.
	decomposed := "\u1100\u1167\u11af\u1100\u116a"
	tb := mustNew(t, [][]string{
		{"이름", " 유입 ", decomposed},
		{"A"},
		{"B", "1", "장기", "extra"},
	})
	if got := tb.Header; !reflect.DeepEqual(got, []string{"이름", "유입", "결과"}) {
		t.Fatalf("header = %q", got)
	}
	if !tb.Has("결과") {
		t.Fatalf("expected NFC header lookup to succeed")
	}
	if got := tb.Rows[0]; !reflect.DeepEqual(got, []string{"A", "", ""}) {
		t.Fatalf("padded row = %q", got)
	}
	if got := tb.Rows[1]; len(got) != 3 {
		t.Fatalf("long row not truncated: %q", got)
	}
}

func TestNewRejectsDuplicateHeader(t *testing.T) {
	_, err := New([][]string{{"이름", "이름"}, {"A", "B"}})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if _, err := New([][]string{{"", "", "이름"}, {"", "", "A"}}); err != nil {
		t.Fatalf("blank duplicate headers should be tolerated: %v", err)
	}
}

func TestNewEmptyGrid(t *testing.T) {
	tb := mustNew(t, nil)
	if tb.Len() != 0 || len(tb.Header) != 0 {
		t.Fatalf("expected empty table, got %+v", tb)
	}
}

func TestDropEmptyColumnsIdempotent(t *testing.T) {
	tb := mustNew(t, [][]string{
		{"이름", "메모", "유입", ""},
		{"A", "", "1", ""},
		{"B", "", "", ""},
	})
	once := DropEmptyColumns(tb)
	if want := []string{"이름", "유입"}; !reflect.DeepEqual(once.Header, want) {
		t.Fatalf("header after drop = %q, want %q", once.Header, want)
	}
	twice := DropEmptyColumns(once)
	if !reflect.DeepEqual(once.Header, twice.Header) || !reflect.DeepEqual(once.Rows, twice.Rows) {
		t.Fatalf("DropEmptyColumns not idempotent: %+v vs %+v", once, twice)
	}
}

func TestFilterByAllowedValues(t *testing.T) {
	tb := mustNew(t, [][]string{
		{"이름", "유입", "티엠 결과"},
		{"A", "1", ""},
		{"B", "1", "장기"},
		{"C", "2", "J-should-not-apply-here"},
	})
	allowed := []string{"", "장기"}
	out, err := FilterByAllowedValues(tb, "티엠 결과", allowed)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("rows = %d, want 2", out.Len())
	}
	for _, v := range out.Column("티엠 결과") {
		if v != "" && v != "장기" {
			t.Fatalf("unexpected status %q survived", v)
		}
	}
	// Deny-list on inflow removes nothing: no row has "J" or "".
	final := ExcludeByValues(out, "유입", []string{"", "J"})
	if final.Len() != 2 {
		t.Fatalf("final rows = %d, want 2", final.Len())
	}
	if got := final.Column("이름"); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("names = %q", got)
	}
}

func TestFilterByAllowedValuesMissingColumn(t *testing.T) {
	tb := mustNew(t, [][]string{{"이름"}, {"A"}})
	_, err := FilterByAllowedValues(tb, "티엠 결과", []string{""})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Column != "티엠 결과" {
		t.Fatalf("column = %q", se.Column)
	}
}

func TestFilterDropsValuesOutsideAllowList(t *testing.T) {
	tb := mustNew(t, [][]string{{"s"}, {"x"}, {"y"}})
	out, err := FilterByAllowedValues(tb, "s", []string{"y"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if got := out.Column("s"); !reflect.DeepEqual(got, []string{"y"}) {
		t.Fatalf("got %q", got)
	}
}

func TestProjectColumns(t *testing.T) {
	tb := mustNew(t, [][]string{
		{"메모", "티엠 결과", "이름"},
		{"m", "장기", "A"},
	})
	out, err := ProjectColumns(tb, []string{"이름", "유입", "티엠 결과"})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if want := []string{"이름", "티엠 결과"}; !reflect.DeepEqual(out.Header, want) {
		t.Fatalf("header = %q, want %q", out.Header, want)
	}
	if want := []string{"A", "장기"}; !reflect.DeepEqual(out.Rows[0], want) {
		t.Fatalf("row = %q, want %q", out.Rows[0], want)
	}

	_, err = ProjectColumns(tb, []string{"없음"})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError for empty projection, got %v", err)
	}
}

func TestExcludeByValuesMissingColumnIsNoop(t *testing.T) {
	tb := mustNew(t, [][]string{{"이름"}, {"A"}, {"B"}})
	if out := ExcludeByValues(tb, "유입", []string{"A"}); out != tb {
		t.Fatalf("expected the same table back")
	}
}

func TestExcludeNeverIncreasesRows(t *testing.T) {
	tb := mustNew(t, [][]string{
		{"유입", "s"},
		{"1", "a"}, {"J", "a"}, {"", "b"}, {"2", "c"},
	})
	filtered, err := FilterByAllowedValues(tb, "s", []string{"a", "b"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	out := ExcludeByValues(filtered, "유입", []string{"", "J"})
	if out.Len() > filtered.Len() {
		t.Fatalf("exclude increased rows")
	}
	for _, v := range out.Column("유입") {
		if v == "" || v == "J" {
			t.Fatalf("excluded value %q present", v)
		}
	}
}

func TestRecordsGet(t *testing.T) {
	tb := mustNew(t, [][]string{{"이름", "유입"}, {"A", "1"}})
	recs := tb.Records()
	if v, ok := recs[0].Get("유입"); !ok || v != "1" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := recs[0].Get("없음"); ok {
		t.Fatalf("unexpected column")
	}
	if v := recs[0].Value("없음"); v != "" {
		t.Fatalf("Value of missing column = %q", v)
	}
}

func TestNewFoldsLineBreaks(t *testing.T) {
	tb := mustNew(t, [][]string{{"메모"}, {"a\r\nb"}, {"c\rd"}})
	if got := tb.Column("메모"); !reflect.DeepEqual(got, []string{"a\nb", "c\nd"}) {
		t.Fatalf("cells = %q", got)
	}
}

func TestNormalizeAll(t *testing.T) {
	// "장기" in decomposed jamo.
	decomposed := "\u110c\u1161\u11bc\u1100\u1175"
	got := NormalizeAll([]string{"", decomposed})
	if !reflect.DeepEqual(got, []string{"", "장기"}) {
		t.Fatalf("NormalizeAll = %q", got)
	}
	if NormalizeAll(nil) != nil {
		t.Fatalf("nil input should stay nil")
	}
}
