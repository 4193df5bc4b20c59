package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/sheetpulse/internal/table"
)

// Report profiles the raw sheet so column names and filter values can be
// checked before configuring the bot.
type Report struct {
	Name string
	Rows int
	Cols []ColumnProfile
}

// ColumnProfile captures fill rate and value distribution per column.
type ColumnProfile struct {
	Name     string
	Kind     string // numeric|categorical|text|empty
	NonEmpty int
	Missing  int
	Unique   int
	// Padded counts cells with leading or trailing whitespace. Filters
	// compare cells as stored, so " 1" never matches "1".
	Padded int
	// Numeric stats
	Min, Max, Mean float64
	// Most frequent values, count desc
	TopValues []CategoryCount
}

// Columns with at most this many distinct values are reported as categorical.
const categoricalMaxUnique = 20

// Profile summarises every column of t. top bounds the listed values per column.
func Profile(t *table.Table, name string, top int) *Report {
	r := &Report{Name: name, Rows: t.Len()}
	for j, col := range t.Header {
		values := make([]string, 0, t.Len())
		for _, row := range t.Rows {
			values = append(values, row[j])
		}
		r.Cols = append(r.Cols, profileColumn(col, values, top))
	}
	return r
}

func profileColumn(name string, values []string, top int) ColumnProfile {
	c := ColumnProfile{Name: name}
	var nonEmpty []string
	var nums []float64
	for _, v := range values {
		if v == "" {
			c.Missing++
			continue
		}
		nonEmpty = append(nonEmpty, v)
		trimmed := strings.TrimSpace(v)
		if trimmed != v {
			c.Padded++
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
			nums = append(nums, f)
		}
	}
	c.NonEmpty = len(nonEmpty)
	counts := valueCounts(nonEmpty, c.NonEmpty, func(v string) string { return v })
	c.Unique = len(counts)
	switch {
	case c.NonEmpty == 0:
		c.Kind = "empty"
	case len(nums) == c.NonEmpty && c.Unique > categoricalMaxUnique:
		c.Kind = "numeric"
		c.Min, _ = stats.Min(nums)
		c.Max, _ = stats.Max(nums)
		c.Mean, _ = stats.Mean(nums)
	case c.Unique <= categoricalMaxUnique:
		c.Kind = "categorical"
	default:
		c.Kind = "text"
	}
	if top > 0 && len(counts) > top {
		counts = counts[:top]
	}
	if c.Kind != "numeric" {
		c.TopValues = counts
	}
	return c
}

// Markdown renders the profile as a plain-text schema listing.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[SHEET PROFILE]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		missPct := 0.0
		if total := c.NonEmpty + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := c.Name
		if name == "" {
			name = "(blank header)"
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-empty %d, missing %.1f%%)", name, c.Kind, c.NonEmpty, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" - min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean))
		case "categorical", "text":
			if len(c.TopValues) > 0 {
				b.WriteString(" - top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", profileVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		if c.Padded > 0 {
			b.WriteString(fmt.Sprintf("; padded=%d", c.Padded))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// profileVal quotes values with surrounding whitespace so they stand out.
func profileVal(v string) string {
	if strings.TrimSpace(v) != v {
		return strconv.Quote(v)
	}
	return safeVal(v)
}
