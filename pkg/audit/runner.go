// Package audit runs the enabled checks over a set of store tables and
// hands every table's results to the report sink as soon as it is done.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/block/qualitychecker/pkg/buildinfo"
	"github.com/block/qualitychecker/pkg/check"
	"github.com/block/qualitychecker/pkg/dbconn"
	"github.com/block/qualitychecker/pkg/metadata"
	"github.com/block/qualitychecker/pkg/metrics"
	"github.com/block/qualitychecker/pkg/report"
	"github.com/block/qualitychecker/pkg/status"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrNoChecks = errors.New("no checks enabled")

// Config controls one audit run.
type Config struct {
	Checks   []check.Definition
	Naming   metadata.Naming
	Analyze  bool // refresh optimizer statistics before each table
	Threads  int
	FailFast bool

	// ReportName is the name every table's delta is persisted under,
	// usually stamped with report.RunName.
	ReportName string

	// SchemaPattern selects tables from the catalog when Run is given
	// no targets.
	SchemaPattern string
}

// Runner audits tables.
type Runner struct {
	config     Config
	tableDefs  []check.Definition
	columnDefs []check.Definition

	querier    dbconn.Querier
	resolver   *metadata.Resolver
	aggregator *report.Aggregator
	sink       report.Sink
	metrics    metrics.Sink

	// fold and persist happen as one step per table
	persistLock sync.Mutex

	status   status.State // must use atomic helpers to change.
	total    atomic.Int64
	finished atomic.Int64

	runID  string
	logger *slog.Logger
}

// NewRunner creates a runner sending queries to q and report deltas to sink.
func NewRunner(q dbconn.Querier, sink report.Sink, config Config) (*Runner, error) {
	if len(config.Checks) == 0 {
		return nil, ErrNoChecks
	}
	if config.Threads < 1 {
		config.Threads = 1
	}
	tableDefs, columnDefs := check.Split(config.Checks)
	runID := uuid.NewString()
	return &Runner{
		config:     config,
		tableDefs:  tableDefs,
		columnDefs: columnDefs,
		querier:    q,
		resolver:   metadata.NewResolver(q, config.Naming),
		aggregator: report.NewAggregator(config.Checks),
		sink:       sink,
		metrics:    &metrics.NoopSink{},
		runID:      runID,
		logger:     slog.Default().With("run_id", runID),
	}, nil
}

// SetLogger sets the logger for the runner
func (r *Runner) SetLogger(logger *slog.Logger) {
	r.logger = logger.With("run_id", r.runID)
}

func (r *Runner) SetMetricsSink(sink metrics.Sink) {
	r.metrics = sink
}

func (r *Runner) RunID() string {
	return r.runID
}

var _ status.Task = (*Runner)(nil)

func (r *Runner) Progress() status.Progress {
	state := r.status.Get()
	if state != status.Auditing {
		return status.Progress{CurrentState: state}
	}
	total, finished := r.total.Load(), r.finished.Load()
	pct := 0.0
	if total > 0 {
		pct = float64(finished) / float64(total) * 100
	}
	return status.Progress{
		CurrentState: state,
		Summary:      fmt.Sprintf("%d/%d tables %.2f%% %s", finished, total, pct, state),
	}
}

func (r *Runner) Status() string {
	p := r.Progress()
	if p.Summary == "" {
		return "audit " + p.CurrentState.String()
	}
	return "audit " + p.Summary
}

// Aggregator returns the accumulated report of this run.
func (r *Runner) Aggregator() *report.Aggregator {
	return r.aggregator
}

// Discover lists the store tables matching the configured schema pattern.
func (r *Runner) Discover(ctx context.Context) ([]metadata.TableTarget, error) {
	targets, err := r.resolver.ListTables(ctx, r.config.SchemaPattern)
	if err != nil {
		return nil, fmt.Errorf("could not discover tables: %w", err)
	}
	return targets, nil
}

// Run audits targets, or the discovered tables when targets is empty.
// A table that fails is recorded in the summary and the run continues,
// unless FailFast is set, in which case the first failure is returned.
func (r *Runner) Run(ctx context.Context, targets []metadata.TableTarget) (*Summary, error) {
	summary := &Summary{RunID: r.runID, ReportName: r.config.ReportName}
	stop := status.WatchTask(ctx, r, r.logger)
	defer stop()
	if len(targets) == 0 {
		r.status.Set(status.Discovering)
		var err error
		if targets, err = r.Discover(ctx); err != nil {
			r.status.Set(status.Failed)
			return summary, err
		}
	}
	r.total.Store(int64(len(targets)))
	r.status.Set(status.Auditing)
	r.logger.Info("starting audit",
		"tables", len(targets),
		"checks", len(r.config.Checks),
		"threads", r.config.Threads,
		"report", r.config.ReportName,
		"build", buildinfo.Get(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Threads)
	for _, target := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer r.finished.Add(1)
			err := r.auditTable(gctx, target, summary)
			if err == nil {
				return nil
			}
			summary.addFailed(target, err)
			r.logger.Error("table audit failed", "table", target.String(), "error", err)
			if r.config.FailFast {
				return fmt.Errorf("audit of %s failed: %w", target, err)
			}
			return nil
		})
	}
	err := g.Wait()
	summary.sort()
	r.sendRunMetrics(ctx, summary)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		r.status.Set(status.Failed)
		return summary, err
	}
	r.status.Set(status.Complete)
	r.logger.Info("audit complete", "summary", summary.String())
	return summary, nil
}

// auditTable runs one table pass: statistics, emptiness test, table
// checks, column checks, then fold and persist.
func (r *Runner) auditTable(ctx context.Context, target metadata.TableTarget, summary *Summary) error {
	logger := r.logger.With("table", target.String())
	start := time.Now()

	if r.config.Analyze {
		if err := r.resolver.Analyze(ctx, target.Schema, target.Table); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("could not refresh statistics", "error", err)
		}
	}
	hasRows, err := r.resolver.HasRows(ctx, target.Schema, target.Table)
	if err != nil {
		return err
	}
	if !hasRows {
		logger.Info("table is empty, skipping")
		summary.addEmpty(target)
		return nil
	}
	columns, err := r.resolver.Columns(ctx, target.Schema, target.Table)
	if err != nil {
		return err
	}

	bundle := report.NewTableBundle(target)
	res := check.Resources{
		Querier: r.querier,
		Naming:  r.config.Naming,
		Target:  target,
		Columns: columns,
		Lookup:  newTableLookup(r.resolver, target),
		Logger:  logger,
	}

	noKeyLogged := false
	for _, def := range r.tableDefs {
		result, err := r.runCheck(ctx, def, res, bundle)
		if err != nil {
			return err
		}
		if result.Kind == check.KindNoPrimaryKey && !noKeyLogged {
			logger.Warn("table has no primary key, key-dependent checks skipped")
			noKeyLogged = true
		}
		bundle.Results[def.ID] = result
	}

	if len(r.columnDefs) > 0 {
		for _, col := range columns {
			res.Column = &col
			cr := report.ColumnResults{Column: col.Name, Results: map[int]check.Result{}}
			for _, def := range r.columnDefs {
				result, err := r.runCheck(ctx, def, res, bundle)
				if err != nil {
					return fmt.Errorf("column %s: %w", col.Name, err)
				}
				if def.Flag && result.Flagged() {
					bundle.Flagged[def.ID]++
				}
				cr.Results[def.ID] = result
			}
			bundle.Columns = append(bundle.Columns, cr)
		}
	}

	if err := r.persist(ctx, bundle); err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("table audited",
		"columns", len(columns),
		"warnings", len(bundle.Warnings),
		"duration", elapsed.String(),
	)
	r.sendTableMetrics(ctx, bundle, elapsed)
	summary.addAudited(target, len(bundle.Warnings) > 0)
	return nil
}

// runCheck evaluates def. Errors of a best-effort check become a failed
// result and a warning on the bundle.
func (r *Runner) runCheck(ctx context.Context, def check.Definition, res check.Resources, bundle *report.TableBundle) (check.Result, error) {
	result, err := check.Run(ctx, def, res)
	if err == nil {
		return result, nil
	}
	if def.BestEffort && ctx.Err() == nil {
		res.Logger.Warn("best-effort check failed", "check", def.ID, "name", def.Name, "error", err)
		bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("check %d (%s): %v", def.ID, def.Name, err))
		return check.Sentinel(check.KindFailed), nil
	}
	return check.Result{}, fmt.Errorf("check %d (%s): %w", def.ID, def.Name, err)
}

func (r *Runner) persist(ctx context.Context, bundle *report.TableBundle) error {
	r.persistLock.Lock()
	defer r.persistLock.Unlock()
	general, detail := r.aggregator.Fold(bundle)
	if err := r.sink.Persist(ctx, r.config.ReportName, general, detail); err != nil {
		return fmt.Errorf("could not persist report %s: %w", r.config.ReportName, err)
	}
	return nil
}

func (r *Runner) sendTableMetrics(ctx context.Context, bundle *report.TableBundle, elapsed time.Duration) {
	labels := func(extra ...string) map[string]string {
		l := map[string]string{"schema": bundle.Target.Schema, "table": bundle.Target.Table}
		for i := 0; i+1 < len(extra); i += 2 {
			l[extra[i]] = extra[i+1]
		}
		return l
	}
	m := &metrics.Metrics{Values: []metrics.MetricValue{
		{Name: metrics.TableAuditTimeMetricName, Type: metrics.GAUGE, Value: elapsed.Seconds(), Labels: labels()},
		{Name: metrics.ChecksRunMetricName, Type: metrics.COUNTER, Value: float64(len(r.tableDefs) + len(r.columnDefs)*len(bundle.Columns)), Labels: labels()},
		{Name: metrics.CheckWarningsMetricName, Type: metrics.COUNTER, Value: float64(len(bundle.Warnings)), Labels: labels()},
	}}
	for _, def := range r.columnDefs {
		if !def.Flag {
			continue
		}
		m.Values = append(m.Values, metrics.MetricValue{
			Name:   metrics.FlaggedColumnsMetricName,
			Type:   metrics.GAUGE,
			Value:  float64(bundle.Flagged[def.ID]),
			Labels: labels("check", strconv.Itoa(def.ID)),
		})
	}
	for id, name := range map[int]string{11: metrics.RowCountMetricName, 1: metrics.DuplicateKeyRowsMetricName} {
		if v, ok := bundle.Results[id].Value.(int64); ok && bundle.Results[id].Kind == check.KindValue {
			m.Values = append(m.Values, metrics.MetricValue{Name: name, Type: metrics.GAUGE, Value: float64(v), Labels: labels()})
		}
	}
	r.send(ctx, m)
}

func (r *Runner) sendRunMetrics(ctx context.Context, s *Summary) {
	byStatus := func(name string, n int) metrics.MetricValue {
		return metrics.MetricValue{
			Name:   metrics.TableStatusMetricName,
			Type:   metrics.GAUGE,
			Value:  float64(n),
			Labels: map[string]string{"status": name},
		}
	}
	r.send(ctx, &metrics.Metrics{Values: []metrics.MetricValue{
		byStatus("audited", len(s.Audited)),
		byStatus("empty", len(s.Empty)),
		byStatus("failed", len(s.Failed)),
		byStatus("warned", len(s.Warned)),
		{
			Name:   metrics.BuildInfoMetricName,
			Type:   metrics.GAUGE,
			Value:  1,
			Labels: buildinfo.Get().Labels(),
		},
	}})
}

func (r *Runner) send(ctx context.Context, m *metrics.Metrics) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metrics.SinkTimeout)
	defer cancel()
	if err := r.metrics.Send(ctx, m); err != nil {
		r.logger.Warn("could not send metrics", "error", err)
	}
}
