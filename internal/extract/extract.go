// Package extract computes a report document from a live database through an
// adapter.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/dbexplorer/internal/adapter"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"golang.org/x/sync/errgroup"
)

// Options controls what is extracted.
type Options struct {
	// Schema to read. Empty uses the adapter's default schema.
	Schema string
	// Extended adds null, distinct and quantile facts.
	Extended bool
	// Top is the number of most common values kept for character columns.
	Top int
	// MaxTextLength disables value statistics for longer text columns.
	MaxTextLength int
	// Workers bounds the number of tables read concurrently.
	Workers int
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{Top: 5, MaxTextLength: 100, Workers: 4}
}

// Extractor reads table statistics from a connected adapter.
type Extractor struct {
	db     adapter.Adapter
	opts   Options
	logger *slog.Logger
}

// New creates an Extractor. Zero option values fall back to the defaults.
func New(db adapter.Adapter, opts Options, logger *slog.Logger) *Extractor {
	def := DefaultOptions()
	if opts.Top <= 0 {
		opts.Top = def.Top
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = def.MaxTextLength
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{db: db, opts: opts, logger: logger}
}

// Extract reads every table of the schema. A table that fails is logged and
// left out of the document; only listing the tables is fatal.
func (e *Extractor) Extract(ctx context.Context) (*report.Document, error) {
	schema := e.opts.Schema
	if schema == "" {
		schema = e.db.DefaultSchema()
	}

	start := time.Now()
	names, err := e.db.ListTables(ctx, schema)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("found tables", "schema", schema, "count", len(names))

	tables := make([]*report.Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, name := range names {
		g.Go(func() error {
			t, err := e.Table(gctx, schema, name)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("failed to extract table", "table", name, "error", err)
				return nil
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &report.Document{
		Database: e.db.DatabaseName(),
		Schema:   schema,
		Tables:   tables,
	}
	report.Normalize(doc)

	e.logger.Info("extraction complete",
		"database", doc.Database,
		"tables", len(doc.Tables),
		"skipped", len(names)-len(doc.Tables),
		"duration", time.Since(start).Round(time.Millisecond))
	return doc, nil
}

// Table reads one table.
func (e *Extractor) Table(ctx context.Context, schema, name string) (*report.Table, error) {
	columns, err := e.db.ListColumns(ctx, schema, name)
	if err != nil {
		return nil, err
	}

	from := e.db.QualifiedName(schema, name)
	var records int64
	if err := e.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+from, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	e.logger.Debug("extracting table", "table", name, "columns", len(columns), "records", records)

	t := &report.Table{Name: name, Records: records, Columns: make([]*report.Column, 0, len(columns))}
	for _, col := range columns {
		c, err := e.column(ctx, from, col, records)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		t.Columns = append(t.Columns, c)
	}
	return t, nil
}

func (e *Extractor) column(ctx context.Context, from string, col adapter.Column, records int64) (*report.Column, error) {
	group := e.db.ClassifyType(col.Type)
	facts := []report.Fact{
		{Key: report.FactName, Value: report.String(col.Name)},
		{Key: report.FactSQLType, Value: report.String(col.Type)},
	}
	if records == 0 {
		return report.NewColumn(string(group), facts...), nil
	}

	q := columnQuery{db: e.db, from: from, col: adapter.QuoteIdent(col.Name), sqlType: col.Type}

	var (
		more    []report.Fact
		tooLong bool
		err     error
	)
	switch group {
	case report.GroupNumeric:
		more, err = q.numeric(ctx)
	case report.GroupDatetime:
		more, err = q.datetime(ctx)
	case report.GroupCharacter:
		tooLong, err = q.longerThan(ctx, e.opts.MaxTextLength)
		if err == nil {
			more, err = q.mostCommon(ctx, e.opts.Top, tooLong)
		}
	}
	if err != nil {
		return nil, err
	}
	facts = append(facts, more...)

	if e.opts.Extended {
		ext, nulls, err := q.extended(ctx, col.Nullable, records, tooLong)
		if err != nil {
			return nil, err
		}
		facts = append(facts, ext...)

		if group == report.GroupNumeric {
			qs, err := q.quantiles(ctx, records-nulls)
			if err != nil {
				return nil, err
			}
			facts = append(facts, qs...)
		}
	}
	return report.NewColumn(string(group), facts...), nil
}
