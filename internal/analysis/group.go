package analysis

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/sheetpulse/internal/table"
)

// Fields names the columns the aggregator works on.
type Fields struct {
	Name        string
	Category    string
	SubCategory string
	// NewLabel replaces an empty sub-category in rendered output.
	NewLabel string
	// ExportSubCategory heads the sub-category column of GroupForExport;
	// empty means SubCategory.
	ExportSubCategory string
}

// DefaultNewLabel is shown for records whose sub-category is blank.
const DefaultNewLabel = "신규"

// Label returns the display label for a raw sub-category value.
func (f Fields) Label(sub string) string {
	if sub != "" {
		return sub
	}
	if f.NewLabel == "" {
		return DefaultNewLabel
	}
	return f.NewLabel
}

func (f Fields) grouped(t *table.Table) bool {
	return t.Has(f.Category) && t.Has(f.SubCategory)
}

// AnalysisRecord pairs a source row with its resolved category labels.
type AnalysisRecord struct {
	Category    string
	SubCategory string
	Name        string
}

// bucket is one group key with the member row indexes in source order.
type bucket struct {
	key  string
	rows []int
}

// groupRows buckets rows by the value of column, ordered by ascending key.
func groupRows(t *table.Table, rows []int, column string) []bucket {
	j := t.Index(column)
	byKey := map[string]*bucket{}
	for _, r := range rows {
		k := t.Rows[r][j]
		b := byKey[k]
		if b == nil {
			b = &bucket{key: k}
			byKey[k] = b
		}
		b.rows = append(b.rows, r)
	}
	out := make([]bucket, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func allRows(t *table.Table) []int {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// Analyze groups records by category, then by sub-category, and emits one
// AnalysisRecord per row. ok is false when either grouping column is absent.
func Analyze(t *table.Table, f Fields) (out []AnalysisRecord, ok bool) {
	if !f.grouped(t) {
		return nil, false
	}
	out = make([]AnalysisRecord, 0, t.Len())
	for _, cat := range groupRows(t, allRows(t), f.Category) {
		for _, sub := range groupRows(t, cat.rows, f.SubCategory) {
			for _, r := range sub.rows {
				out = append(out, AnalysisRecord{
					Category:    cat.key,
					SubCategory: f.Label(sub.key),
					Name:        t.Value(r, f.Name),
				})
			}
		}
	}
	return out, true
}

// GroupForExport returns the analysis records as a table with the columns
// [Category, SubCategory, Name]. When the grouping columns are missing the
// input table is returned unchanged.
func GroupForExport(t *table.Table, f Fields) *table.Table {
	recs, ok := Analyze(t, f)
	if !ok {
		return t
	}
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{r.Category, r.SubCategory, r.Name}
	}
	sub := f.SubCategory
	if f.ExportSubCategory != "" {
		sub = f.ExportSubCategory
	}
	out, err := table.New(append([][]string{{f.Category, sub, f.Name}}, rows...))
	if err != nil {
		// Category, SubCategory and Name collide; keep the source shape.
		return t
	}
	return out
}

// SubGroup is one sub-category inside a CategoryGroup.
type SubGroup struct {
	Value string // raw value
	Label string // display value
	Count int
	Names []string // trimmed, blanks removed
}

// CategoryGroup is one category with its sub-category breakdown.
type CategoryGroup struct {
	Category string
	Count    int
	Subs     []SubGroup
}

// GroupedBreakdown lists names per category and sub-category.
// Blank names are left out of Names but still counted.
func GroupedBreakdown(t *table.Table, f Fields) ([]CategoryGroup, bool) {
	if !f.grouped(t) {
		return nil, false
	}
	var out []CategoryGroup
	for _, cat := range groupRows(t, allRows(t), f.Category) {
		g := CategoryGroup{Category: cat.key, Count: len(cat.rows)}
		for _, sub := range groupRows(t, cat.rows, f.SubCategory) {
			g.Subs = append(g.Subs, SubGroup{
				Value: sub.key,
				Label: f.Label(sub.key),
				Count: len(sub.rows),
				Names: names(t, sub.rows, f.Name),
			})
		}
		out = append(out, g)
	}
	return out, true
}

func names(t *table.Table, rows []int, column string) []string {
	if !t.Has(column) {
		return nil
	}
	var out []string
	for _, r := range rows {
		if n := strings.TrimSpace(t.Value(r, column)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Categories returns the distinct category values in first-seen order.
func Categories(t *table.Table, column string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range t.Column(column) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// CategoryView is the per-category listing over a fixed list of statuses.
type CategoryView struct {
	Category string
	Total    int
	// HasStatus is false when the sub-category column is absent.
	HasStatus bool
	// HasNames is false when the name column is absent.
	HasNames bool
	Statuses []SubGroup
}

// ViewCategory builds a CategoryView for rows already narrowed to one
// category. Every status in statuses is listed in order, including ones with
// no rows; statuses present in the data but not listed are appended in
// lexical order.
func ViewCategory(t *table.Table, f Fields, category string, statuses []string) CategoryView {
	v := CategoryView{
		Category:  category,
		Total:     t.Len(),
		HasStatus: t.Has(f.SubCategory),
		HasNames:  t.Has(f.Name),
	}
	if !v.HasStatus {
		return v
	}
	groups := map[string][]int{}
	for _, b := range groupRows(t, allRows(t), f.SubCategory) {
		groups[b.key] = b.rows
	}
	listed := map[string]bool{}
	order := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if !listed[s] {
			listed[s] = true
			order = append(order, s)
		}
	}
	for _, b := range groupRows(t, allRows(t), f.SubCategory) {
		if !listed[b.key] {
			order = append(order, b.key)
		}
	}
	for _, s := range order {
		rows := groups[s]
		v.Statuses = append(v.Statuses, SubGroup{
			Value: s,
			Label: f.Label(s),
			Count: len(rows),
			Names: names(t, rows, f.Name),
		})
	}
	return v
}
