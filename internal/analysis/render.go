package analysis

import (
	"fmt"
	"strings"
)

// Layout holds the display knobs for rendered listings.
type Layout struct {
	// NameLimit truncates name lists in the breakdown view.
	NameLimit int
	// NamesPerLine wraps name lists in the category view.
	NamesPerLine int
}

// DefaultLayout matches the chat views: 10 names before truncation in the
// breakdown, 8 names per line in the category view.
func DefaultLayout() Layout {
	return Layout{NameLimit: 10, NamesPerLine: 8}
}

// RenderBreakdown renders the detailed per-category statistics message.
func RenderBreakdown(groups []CategoryGroup, l Layout) string {
	var b strings.Builder
	b.WriteString("📊 **상세 통계**\n\n")
	for _, g := range groups {
		b.WriteString(fmt.Sprintf("**【%s구역】** (%d명)\n", safeVal(g.Category), g.Count))
		for _, s := range g.Subs {
			b.WriteString(fmt.Sprintf("  ▪️ %s: %d명\n", safeVal(s.Label), s.Count))
			if len(s.Names) > 0 {
				b.WriteString(fmt.Sprintf("    👤 %s\n", TruncateNames(s.Names, l.NameLimit)))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Text renders the category view message.
func (v CategoryView) Text(l Layout) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 **【%s구역】 유입 데이터**\n\n", safeVal(v.Category)))
	b.WriteString(fmt.Sprintf("총 인원: %d명\n\n", v.Total))
	if !v.HasStatus {
		b.WriteString("⚠️ '티엠 결과' 정보를 찾을 수 없습니다.\n")
		return b.String()
	}
	for _, s := range v.Statuses {
		b.WriteString(fmt.Sprintf("**▶ %s** (%d명)\n", safeVal(s.Label), s.Count))
		switch {
		case s.Count == 0:
		case !v.HasNames:
			b.WriteString(fmt.Sprintf("👤 %d명 (이름 컬럼 없음)\n", s.Count))
		case len(s.Names) == 0:
			b.WriteString("👤 (이름 정보 없음)\n")
		default:
			b.WriteString(fmt.Sprintf("👤 %s\n", strings.Join(BatchNames(s.Names, l.NamesPerLine), "\n")))
		}
		b.WriteString("\n")
	}
	return b.String()
}
