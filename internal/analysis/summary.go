package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/sheetpulse/internal/table"
)

// CannotSummarize is rendered when the grouping columns are missing.
const CannotSummarize = "통계를 생성할 수 없습니다."

// CategoryCount is a value with its frequency and share of the total.
type CategoryCount struct {
	Value   string
	Label   string
	Count   int
	Percent float64 // rounded to one decimal
}

// Summary is the headline report: totals per category and per sub-category.
type Summary struct {
	Total         int
	Categories    []CategoryCount
	SubCategories []CategoryCount
}

// Summarize counts records per category and per sub-category. Counts are
// ordered most frequent first; ties keep first-seen order. ok is false when
// either grouping column is absent.
func Summarize(t *table.Table, f Fields) (*Summary, bool) {
	if !f.grouped(t) {
		return nil, false
	}
	s := &Summary{Total: t.Len()}
	s.Categories = valueCounts(t.Column(f.Category), s.Total, func(v string) string { return v })
	s.SubCategories = valueCounts(t.Column(f.SubCategory), s.Total, f.Label)
	return s, true
}

func valueCounts(vals []string, total int, label func(string) string) []CategoryCount {
	idx := map[string]int{}
	var out []CategoryCount
	for _, v := range vals {
		i, ok := idx[v]
		if !ok {
			i = len(out)
			idx[v] = i
			out = append(out, CategoryCount{Value: v, Label: label(v)})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	for i := range out {
		out[i].Percent = percent(out[i].Count, total)
	}
	return out
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	p, err := stats.Round(float64(count)*100/float64(total), 1)
	if err != nil {
		return 0
	}
	return p
}

// Text renders the summary as a Markdown chat message.
func (s *Summary) Text() string {
	var b strings.Builder
	b.WriteString("📊 **데이터 요약**\n")
	b.WriteString(fmt.Sprintf("총 인원: %d명\n\n", s.Total))
	b.WriteString("**구역별 현황:**\n")
	for _, c := range s.Categories {
		b.WriteString(fmt.Sprintf("• %s구역: %d명 (%.1f%%)\n", safeVal(c.Label), c.Count, c.Percent))
	}
	b.WriteString("\n**티엠 결과별 현황:**\n")
	for _, c := range s.SubCategories {
		b.WriteString(fmt.Sprintf("• %s: %d명 (%.1f%%)\n", safeVal(c.Label), c.Count, c.Percent))
	}
	return b.String()
}

// SummaryText renders the summary for t, or CannotSummarize.
func SummaryText(t *table.Table, f Fields) string {
	s, ok := Summarize(t, f)
	if !ok {
		return CannotSummarize
	}
	return s.Text()
}
