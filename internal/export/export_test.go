package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sheetpulse/internal/table"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func records(t *testing.T) ([]table.Record, []string) {
	t.Helper()
	tb, err := table.New([][]string{
		{"유입", "티엠 결과", "이름"},
		{"1", "신규", "김철수"},
		{"1", "티엠 예약", "이영희, 주니어"},
		{"2", "장기", "\"따옴표\""},
	})
	require.NoError(t, err)
	return tb.Records(), tb.Header
}

func TestToDelimitedBufferRoundTrip(t *testing.T) {
	recs, cols := records(t)
	b, err := ToDelimitedBuffer(recs, cols, Options{})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, bom), "missing BOM")

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, bom))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(recs)+1)
	assert.Equal(t, cols, rows[0])
	for i, rec := range recs {
		assert.Equal(t, rec.Values, rows[i+1])
	}
}

func TestToDelimitedBufferLineBreaksInCells(t *testing.T) {
	// Records built by hand keep their CRLF; the writer folds it.
	recs := []table.Record{{Columns: []string{"메모"}, Values: []string{"a\r\nb"}}}
	b, err := ToDelimitedBuffer(recs, []string{"메모"}, Options{})
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, bom))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"메모"}, {"a\nb"}}, rows)

	// A table read from a sheet round-trips exactly.
	tb, err := table.New([][]string{{"이름", "메모"}, {"김철수", "첫째 줄\r\n둘째 줄\r셋째 줄"}})
	require.NoError(t, err)
	b, err = TableCSV(tb, Options{})
	require.NoError(t, err)
	rows, err = csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, bom))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tb.Header, rows[0])
	assert.Equal(t, tb.Rows[0], rows[1])
}

func TestToDelimitedBufferMissingFieldsAndDelimiter(t *testing.T) {
	recs, _ := records(t)
	b, err := ToDelimitedBuffer(recs[:1], []string{"이름", "메모"}, Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, string(bom)+"이름;메모\n김철수;\n", string(b))
}

func TestToDelimitedBufferInvalidUTF8(t *testing.T) {
	recs := []table.Record{{Columns: []string{"이름"}, Values: []string{"\xff"}}}
	_, err := ToDelimitedBuffer(recs, []string{"이름"}, Options{})
	var ee *EncodingError
	require.True(t, errors.As(err, &ee), "expected EncodingError, got %v", err)
	assert.Equal(t, 1, ee.Row)
}

func TestToXLSX(t *testing.T) {
	recs, cols := records(t)
	b, err := ToXLSX(recs, cols, "분석")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("분석")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, cols, rows[0])
	assert.Equal(t, []string{"1", "티엠 예약", "이영희, 주니어"}, rows[2])
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 3, 7, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "유입결과_분석_20260307.csv", Filename("유입결과_분석", at, FormatCSV))
	assert.Equal(t, "x_20260307.xlsx", Filename("x", at, FormatXLSX))
}
