package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ringaudit/internal/config"
	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/reconcile"
)

// Source returns the raw nodesync_status rows of one table. Zero rows is a
// valid answer.
type Source interface {
	Rows(ctx context.Context, keyspace, table string) ([]nodesync.Row, error)
}

// Reporter consumes table results in table order.
type Reporter interface {
	Report(TableResult) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(TableResult) error

// Report calls f(r).
func (f ReporterFunc) Report(r TableResult) error { return f(r) }

// TableResult is the outcome of auditing one table. Records is the coverage
// set when Err is nil.
type TableResult struct {
	Position int
	Keyspace string
	Table    string
	Rows     int
	Records  []nodesync.Record
	Err      *TableError
	Duration time.Duration
}

// Failed reports whether the table was aborted.
func (r TableResult) Failed() bool { return r.Err != nil }

// Summary counts what a run produced.
type Summary struct {
	Tables int
	Failed int
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets the logger. Sweep decisions are traced at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithParallelism bounds the number of tables processed at once.
// Values below 1 are treated as 1.
func WithParallelism(n int) Option {
	return func(a *Auditor) { a.parallelism = max(n, 1) }
}

// Auditor runs the table pipeline over a Source.
type Auditor struct {
	source      Source
	logger      *zap.Logger
	parallelism int
}

// New creates an Auditor reading from source.
func New(source Source, opts ...Option) *Auditor {
	a := &Auditor{
		source:      source,
		logger:      zap.NewNop(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run audits tables and reports every result in table order. Table failures
// are reported, not returned; the error is non-nil only when the reporter
// fails, in which case outstanding tables are cancelled.
func (a *Auditor) Run(ctx context.Context, tables []config.Table, reporter Reporter) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]TableResult, len(tables))
	ready := make([]chan struct{}, len(tables))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(a.parallelism)

	// Go blocks at the limit, so launching happens off the reporting goroutine.
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, t := range tables {
			g.Go(func() error {
				defer close(ready[i])
				results[i] = a.Table(ctx, i, t)
				return nil
			})
		}
	}()

	var (
		summary   Summary
		reportErr error
	)
	for i := range tables {
		<-ready[i]
		summary.Tables++
		if results[i].Failed() {
			summary.Failed++
		}
		if err := reporter.Report(results[i]); err != nil {
			reportErr = fmt.Errorf("report %s: %w", tables[i], err)
			cancel()
			break
		}
	}

	<-launched
	_ = g.Wait()
	return summary, reportErr
}

// Table audits a single table.
func (a *Auditor) Table(ctx context.Context, position int, t config.Table) TableResult {
	start := time.Now()
	logger := a.logger.With(zap.String("keyspace", t.Keyspace), zap.String("table", t.Name))

	result := TableResult{Position: position, Keyspace: t.Keyspace, Table: t.Name}
	fail := func(err error) TableResult {
		result.Err = &TableError{Keyspace: t.Keyspace, Table: t.Name, Code: classify(err), Err: err}
		result.Duration = time.Since(start)
		logger.Warn("table audit failed", zap.String("code", string(result.Err.Code)), zap.Error(err))
		return result
	}

	rows, err := a.source.Rows(ctx, t.Keyspace, t.Name)
	if err != nil {
		return fail(fmt.Errorf("fetch rows: %w", err))
	}
	result.Rows = len(rows)

	records, err := nodesync.DecodeAll(rows)
	if err != nil {
		return fail(err)
	}

	coverage, err := reconcile.Coverage(t.Keyspace, t.Name, records, reconcile.WithLogger(logger))
	if err != nil {
		return fail(err)
	}

	result.Records = coverage
	result.Duration = time.Since(start)
	logger.Info("table audited",
		zap.Int("rows", result.Rows),
		zap.Int("records", len(coverage)),
		zap.Duration("duration", result.Duration),
	)
	return result
}
