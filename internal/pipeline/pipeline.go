// Package pipeline runs one fetch -> filter -> aggregate pass per call and
// exposes the operations the chat router and the CLI need.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/sheetpulse/internal/analysis"
	"github.com/KaramelBytes/sheetpulse/internal/export"
	"github.com/KaramelBytes/sheetpulse/internal/source"
	"github.com/KaramelBytes/sheetpulse/internal/table"
)

// Config is the static filter and display configuration of one pipeline.
type Config struct {
	NameColumn     string
	CategoryColumn string
	StatusColumn   string

	// AllowedStatuses keeps rows whose status is listed; "" matches blanks.
	AllowedStatuses []string
	// ExcludedCategories drops rows whose category is listed.
	ExcludedCategories []string
	// SelectedColumns is the column subset kept after filtering.
	SelectedColumns []string

	NewLabel     string
	ExportPrefix string
	ExportFormat string
	// ExportStatusHeader names the status column in exported files; empty
	// keeps StatusColumn.
	ExportStatusHeader string
	// ExportDelimiter separates CSV fields; 0 means ','.
	ExportDelimiter rune
	Layout          analysis.Layout
	// MaxMessageChars caps rendered text; 0 disables the cap.
	MaxMessageChars int
	// FetchTimeout bounds one Source.Fetch; 0 means no timeout.
	FetchTimeout time.Duration
}

// DefaultConfig mirrors the columns and statuses of the TM result sheet.
func DefaultConfig() Config {
	return Config{
		NameColumn:         "이름",
		CategoryColumn:     "유입",
		StatusColumn:       "티엠 결과",
		AllowedStatuses:    []string{"", "부재중/재티엠", "티엠 예약", "장기"},
		ExcludedCategories: []string{"", "J"},
		SelectedColumns:    []string{"이름", "유입", "티엠 결과"},
		NewLabel:           analysis.DefaultNewLabel,
		ExportPrefix:       "유입결과_분석",
		ExportFormat:       export.FormatCSV,
		ExportStatusHeader: "티엠결과",
		Layout:             analysis.DefaultLayout(),
		MaxMessageChars:    4000,
		FetchTimeout:       60 * time.Second,
	}
}

// Fields returns the aggregator view of the configured columns.
func (c Config) Fields() analysis.Fields {
	return analysis.Fields{
		Name:              c.NameColumn,
		Category:          c.CategoryColumn,
		SubCategory:       c.StatusColumn,
		NewLabel:          c.NewLabel,
		ExportSubCategory: c.ExportStatusHeader,
	}
}

// normalized returns c with column names and filter values in the form
// table.New gives the sheet.
func (c Config) normalized() Config {
	c.NameColumn = table.Normalize(c.NameColumn)
	c.CategoryColumn = table.Normalize(c.CategoryColumn)
	c.StatusColumn = table.Normalize(c.StatusColumn)
	c.AllowedStatuses = table.NormalizeAll(c.AllowedStatuses)
	c.ExcludedCategories = table.NormalizeAll(c.ExcludedCategories)
	c.SelectedColumns = table.NormalizeAll(c.SelectedColumns)
	return c
}

// Pipeline is safe for concurrent use; it holds no mutable state.
type Pipeline struct {
	src source.Source
	cfg Config
	log logrus.FieldLogger
	now func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for timings and row counts.
func WithLogger(l logrus.FieldLogger) Option { return func(p *Pipeline) { p.log = l } }

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// New returns a pipeline over src.
func New(src source.Source, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{src: src, cfg: cfg.normalized(), log: discard(), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Load fetches the sheet and applies the filters: drop blank columns, keep
// allowed statuses, project the selected columns, drop excluded categories.
func (p *Pipeline) Load(ctx context.Context) (*table.Table, error) {
	raw, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	cleaned := table.DropEmptyColumns(raw)

	filtered, err := p.filter(cleaned)
	if err != nil {
		return nil, &Error{Stage: StageProcess, Err: err}
	}
	p.log.WithField("rows", filtered.Len()).Debug("filtered records")
	return filtered, nil
}

func (p *Pipeline) fetch(ctx context.Context) (*table.Table, error) {
	start := time.Now()
	fetchCtx := ctx
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}
	grid, err := p.src.Fetch(fetchCtx)
	if err != nil {
		return nil, &Error{Stage: StageFetch, Err: err}
	}
	raw, err := table.New(grid)
	if err != nil {
		return nil, &Error{Stage: StageFetch, Err: err}
	}
	p.log.WithFields(logrus.Fields{"rows": raw.Len(), "columns": len(raw.Header), "elapsed": time.Since(start)}).Debug("fetched sheet")
	return raw, nil
}

// Profile fetches the sheet and profiles every column before any filter runs.
func (p *Pipeline) Profile(ctx context.Context, name string, top int) (*analysis.Report, error) {
	raw, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.Profile(raw, name, top), nil
}

func (p *Pipeline) filter(t *table.Table) (*table.Table, error) {
	t, err := table.FilterByAllowedValues(t, p.cfg.StatusColumn, p.cfg.AllowedStatuses)
	if err != nil {
		return nil, err
	}
	t, err = table.ProjectColumns(t, p.cfg.SelectedColumns)
	if err != nil {
		return nil, err
	}
	return table.ExcludeByValues(t, p.cfg.CategoryColumn, p.cfg.ExcludedCategories), nil
}

// SummaryText renders the headline summary.
func (p *Pipeline) SummaryText(ctx context.Context) (string, error) {
	t, err := p.Load(ctx)
	if err != nil {
		return "", err
	}
	return p.cap(analysis.SummaryText(t, p.cfg.Fields())), nil
}

// DetailedStatsText renders the per-category, per-status breakdown.
func (p *Pipeline) DetailedStatsText(ctx context.Context) (string, error) {
	t, err := p.Load(ctx)
	if err != nil {
		return "", err
	}
	groups, ok := analysis.GroupedBreakdown(t, p.cfg.Fields())
	if !ok {
		return "", &Error{Stage: StageStats, Err: &table.SchemaError{Reason: "필요한 컬럼을 찾을 수 없습니다."}}
	}
	return p.cap(analysis.RenderBreakdown(groups, p.cfg.Layout)), nil
}

// Export is a rendered file ready for upload.
type Export struct {
	Filename  string
	Format    string
	Data      []byte
	Rows      int
	CreatedAt time.Time
}

// Export groups the filtered records and serialises them in the configured
// format.
func (p *Pipeline) Export(ctx context.Context) (*Export, error) {
	return p.ExportAs(ctx, p.cfg.ExportFormat)
}

// ExportAs is Export with an explicit format (csv or xlsx).
func (p *Pipeline) ExportAs(ctx context.Context, format string) (*Export, error) {
	t, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := analysis.GroupForExport(t, p.cfg.Fields())
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = export.FormatCSV
	}
	var data []byte
	switch format {
	case export.FormatCSV:
		data, err = export.TableCSV(out, export.Options{Delimiter: p.cfg.ExportDelimiter})
	case export.FormatXLSX:
		data, err = export.ToXLSX(out.Records(), out.Header, "분석")
	default:
		err = fmt.Errorf("unsupported export format: %s (use csv or xlsx)", format)
	}
	if err != nil {
		return nil, &Error{Stage: StageExport, Err: err}
	}
	now := p.now()
	return &Export{
		Filename:  export.Filename(p.cfg.ExportPrefix, now, format),
		Format:    format,
		Data:      data,
		Rows:      out.Len(),
		CreatedAt: now,
	}, nil
}

// CategoryResult is the outcome of FilteredByCategory. Found is false when no
// row matched; Available then lists the categories that do exist.
type CategoryResult struct {
	Category  string
	Found     bool
	Records   *table.Table
	Available []string
	Text      string
}

// FilteredByCategory narrows the records to one category and renders the
// per-status listing. A category with no rows is not an error.
func (p *Pipeline) FilteredByCategory(ctx context.Context, category string) (*CategoryResult, error) {
	t, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !t.Has(p.cfg.CategoryColumn) {
		return nil, &Error{Stage: StageCategory, Err: &table.SchemaError{Column: p.cfg.CategoryColumn, Reason: "컬럼을 찾을 수 없습니다."}}
	}
	category = table.Normalize(strings.TrimSpace(category))
	res := &CategoryResult{Category: category}
	matched := table.MatchValue(t, p.cfg.CategoryColumn, category)
	if matched.Len() == 0 {
		res.Available = analysis.Categories(t, p.cfg.CategoryColumn)
		res.Text = p.cap(notFoundText(category, res.Available))
		return res, nil
	}
	res.Found = true
	res.Records = matched
	view := analysis.ViewCategory(matched, p.cfg.Fields(), category, p.cfg.AllowedStatuses)
	res.Text = p.cap(view.Text(p.cfg.Layout))
	return res, nil
}

func notFoundText(category string, available []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ '%s구역' 유입을 찾을 수 없습니다.\n\n", category))
	b.WriteString("📋 **사용 가능한 유입 목록:**\n")
	for i, a := range available {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("• " + a)
	}
	return b.String()
}

func (p *Pipeline) cap(s string) string { return analysis.Cap(s, p.cfg.MaxMessageChars) }
