package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core"
	"github.com/JonMunkholm/etl/internal/csvio"
	"github.com/JonMunkholm/etl/internal/logging"
	"github.com/JonMunkholm/etl/internal/storage"
)

// Options control a run. Zero values fall back to the defaults below.
type Options struct {
	// Tables lists the raw table names picked up from the raw store.
	Tables []string

	Concurrency    int
	Timeout        time.Duration
	PublishRetries int
	RetryBaseDelay time.Duration
}

// Defaults applied by New.
const (
	DefaultConcurrency    = 1
	DefaultTimeout        = 10 * time.Minute
	DefaultRetryBaseDelay = 200 * time.Millisecond
)

// OptionsFromConfig maps the pipeline configuration section.
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		Tables:         cfg.Tables,
		Concurrency:    cfg.Concurrency,
		Timeout:        cfg.Timeout,
		PublishRetries: cfg.PublishRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
	}
}

// Pipeline reads raw tables, cleans them and publishes the results.
type Pipeline struct {
	raw        storage.Store
	registry   *core.Registry
	publishers []Publisher
	opts       Options
	metrics    *Metrics
	limiter    *RunLimiter
}

// Option configures optional collaborators.
type Option func(*Pipeline)

// WithMetrics records runs into m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLimiter shares a run limiter between pipelines and triggers.
func WithLimiter(l *RunLimiter) Option {
	return func(p *Pipeline) { p.limiter = l }
}

// New creates a pipeline reading from raw and publishing to every publisher.
func New(raw storage.Store, registry *core.Registry, opts Options, publishers []Publisher, options ...Option) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PublishRetries < 0 {
		opts.PublishRetries = 0
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = DefaultRetryBaseDelay
	}

	p := &Pipeline{
		raw:        raw,
		registry:   registry,
		publishers: publishers,
		opts:       opts,
	}
	for _, o := range options {
		o(p)
	}
	if p.limiter == nil {
		p.limiter = NewRunLimiter(DefaultRunWait)
	}
	return p
}

// Limiter returns the limiter serializing this pipeline's runs.
func (p *Pipeline) Limiter() *RunLimiter { return p.limiter }

// Registry returns the cleaner registry.
func (p *Pipeline) Registry() *core.Registry { return p.registry }

// Run processes every configured raw table once.
//
// It returns an error without a result when the run cannot start (another
// run holds the slot, the raw store cannot be listed). Otherwise the result
// is always returned and the error joins every failed table.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.limiter.Release()
	return p.run(ctx)
}

// TryRun is Run without waiting: when another run holds the slot it returns
// ErrRunInProgress at once.
func (p *Pipeline) TryRun(ctx context.Context) (*RunResult, error) {
	if !p.limiter.TryAcquire() {
		return nil, ErrRunInProgress
	}
	defer p.limiter.Release()
	return p.run(ctx)
}

// run performs one pass. The caller holds the run slot.
func (p *Pipeline) run(ctx context.Context) (*RunResult, error) {
	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	ctx = logging.WithRunID(ctx, res.RunID)
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	logger := logging.FromContext(ctx)
	logger.Info("pipeline run started", "raw", p.raw.Location(), "concurrency", p.opts.Concurrency)

	tables, err := p.selectTables(ctx)
	if err != nil {
		p.metrics.observeAborted(time.Since(res.StartedAt))
		logger.Error("pipeline run aborted", "error", err)
		return nil, err
	}

	results := make([]TableResult, len(tables))
	errs := make([]error, len(tables))

	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, name := range tables {
		g.Go(func() error {
			results[i], errs[i] = p.processTable(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	res.Tables = results
	res.Err = errors.Join(errs...)
	res.FinishedAt = time.Now().UTC()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)

	for _, t := range results {
		p.metrics.observeTable(t)
	}
	p.metrics.observeRun(res)

	logger.Info("pipeline run completed",
		"tables", len(results),
		"failed", res.Failed(),
		"publish_failures", res.PublishFailures(),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, res.Err
}

// selectTables lists the raw store and keeps configured tables in listing
// order. A configured table that a cleaner of this run also derives (a raw
// Ownership.csv next to Account.csv) is skipped so the derived output is not
// overwritten.
func (p *Pipeline) selectTables(ctx context.Context) ([]string, error) {
	objects, err := p.raw.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p.raw.Location(), err)
	}

	wanted := make(map[string]bool, len(p.opts.Tables))
	for _, t := range p.opts.Tables {
		wanted[t] = true
	}

	var present []string
	for _, obj := range objects {
		table, ok := csvio.TableName(obj)
		if !ok || !wanted[table] {
			slog.Debug("raw object ignored", "object", obj)
			continue
		}
		present = append(present, table)
	}

	derived := make(map[string]bool)
	for _, table := range present {
		def, ok := p.registry.Lookup(table)
		if !ok {
			continue
		}
		for _, out := range def.Info.Outputs {
			if out != table {
				derived[out] = true
			}
		}
	}

	selected := make([]string, 0, len(present))
	for _, table := range present {
		if derived[table] {
			logging.FromContext(ctx).Warn("raw table shadowed by derived output", "table", table)
			continue
		}
		selected = append(selected, table)
	}
	return selected, nil
}

// processTable reads, cleans and publishes one raw table. The returned error
// is table-fatal and already names the table; publish failures only show up
// in the result.
func (p *Pipeline) processTable(ctx context.Context, table string) (TableResult, error) {
	logger := logging.WithFields(ctx, "table", table)
	result := TableResult{Table: table}
	start := time.Now()

	fail := func(err error) (TableResult, error) {
		result.Outcome = outcomeFailed
		result.Error = err.Error()
		logger.Error("table failed", "error", err)
		return result, err
	}

	if err := ctx.Err(); err != nil {
		result.Outcome = outcomeSkipped
		result.Error = err.Error()
		return result, fmt.Errorf("%s: %w", table, err)
	}

	raw, n, err := p.read(ctx, table)
	result.Bytes = n
	if err != nil {
		return fail(err)
	}
	result.RowsIn = len(raw.Rows)

	frames, cleaned, err := p.clean(raw)
	if err != nil {
		return fail(err)
	}
	result.Outcome = outcomePassthrough
	if cleaned {
		result.Outcome = outcomeCleaned
	}

	for _, f := range frames {
		out := OutputResult{Table: f.Name, Rows: f.Len()}
		for _, pub := range p.publishers {
			if err := p.publish(ctx, pub, f); err != nil {
				out.Failed = append(out.Failed, pub.Name())
				logger.Error("publish failed",
					"output", f.Name,
					"publisher", pub.Name(),
					"error", err,
				)
			}
		}
		result.Outputs = append(result.Outputs, out)
	}

	logger.Info("table processed",
		"outcome", result.Outcome,
		"rows_in", result.RowsIn,
		"outputs", len(result.Outputs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (p *Pipeline) read(ctx context.Context, table string) (core.RawTable, int64, error) {
	name := csvio.FileName(table)
	rc, err := p.raw.Open(ctx, name)
	if err != nil {
		return core.RawTable{}, 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	cr := csvio.NewCountingReader(rc)
	raw, err := csvio.Read(table, cr)
	return raw, cr.BytesRead(), err
}

// clean dispatches raw to its registered cleaner. Tables without one are
// passed through unchanged; cleaned reports which path was taken.
func (p *Pipeline) clean(raw core.RawTable) (frames []*core.Frame, cleaned bool, err error) {
	def, ok := p.registry.Lookup(raw.Name)
	if !ok {
		return []*core.Frame{core.FromRaw(raw)}, false, nil
	}
	frames, err = def.Clean(raw)
	if err != nil {
		return nil, true, err
	}
	return frames, true, nil
}
