package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/block/qualitychecker/pkg/audit"
	"github.com/block/qualitychecker/pkg/config"
	"github.com/block/qualitychecker/pkg/dbconn"
	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/block/qualitychecker/pkg/metrics"
	"github.com/block/qualitychecker/pkg/report"
	"github.com/block/qualitychecker/pkg/utils"
)

var ErrTablesFailed = errors.New("one or more tables failed")

// AuditCmd runs an audit described by a YAML file. Flags override the file.
type AuditCmd struct {
	ConfigFile      string   `arg:"" name:"config" help:"Path to YAML configuration file" type:"existingfile"`
	Checks          string   `name:"checks" help:"Checks to run: all, or a comma separated list of ids" optional:""`
	Targets         []string `name:"target" help:"schema.table to audit; repeatable. Discovers tables when unset" optional:""`
	Dialect         string   `name:"dialect" help:"vertica or greenplum" optional:""`
	Threads         int      `name:"threads" help:"Number of tables audited concurrently" optional:""`
	ReportDir       string   `name:"report-dir" help:"Directory the report is written to" optional:""`
	CredentialsFile string   `name:"credentials-file" help:"ini file with a [client] section holding host, port, database, user and password" optional:""`
	DryRun          bool     `name:"dry-run" help:"Run the checks but do not write the report" optional:""`
	FailFast        bool     `name:"fail-fast" help:"Stop at the first failed table" optional:""`
	LogLevel        string   `name:"log-level" help:"debug, info, warn or error" optional:""`
}

// load reads the config file and applies the flag overrides.
func (a *AuditCmd) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(a.ConfigFile)
	if err != nil {
		return nil, err
	}
	ac := &cfg.Audit
	if a.Checks != "" {
		if ac.Checks, err = config.ParseCheckSet(a.Checks); err != nil {
			return nil, err
		}
	}
	if len(a.Targets) > 0 {
		ac.Targets = a.Targets
	}
	if a.Dialect != "" {
		if ac.Dialect, err = dialect.Parse(a.Dialect); err != nil {
			return nil, fmt.Errorf("%w: --dialect: %w", config.ErrInvalidConfig, err)
		}
	}
	if a.Threads != 0 {
		ac.Performance.Threads = a.Threads
	}
	if a.ReportDir != "" {
		ac.Report.Dir = a.ReportDir
	}
	if a.CredentialsFile != "" {
		ac.Connection.CredentialsFile = a.CredentialsFile
	}
	if a.DryRun {
		ac.Report.DryRun = true
	}
	if a.FailFast {
		ac.Performance.FailFast = true
	}
	if a.LogLevel != "" {
		ac.Logging.Level = a.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *AuditCmd) Run() error {
	cfg, err := a.load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := cfg.Audit.Logging.NewLogger(os.Stdout)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	params, err := cfg.Audit.Connection.ConnParams(cfg.Audit.Dialect)
	if err != nil {
		return err
	}
	dbConfig := cfg.Audit.Performance.DBConfig()
	db, err := dbconn.New(ctx, cfg.Audit.Dialect, params, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Audit.Dialect, err)
	}
	defer utils.CloseAndLog(db)

	executor := dbconn.NewExecutor(db, cfg.Audit.Dialect, dbConfig, logger)
	summary, err := runAudit(ctx, cfg, executor, time.Now(), logger)
	if err != nil {
		return err
	}
	printSummary(os.Stdout, summary)
	if summary.HasFailures() {
		return fmt.Errorf("%w: %w", ErrTablesFailed, summary.Err())
	}
	return nil
}

// runAudit wires the sinks for cfg and runs the audit through q.
func runAudit(ctx context.Context, cfg *config.Config, q dbconn.Querier, start time.Time, logger *slog.Logger) (*audit.Summary, error) {
	defs, err := cfg.Audit.Checks.Definitions()
	if err != nil {
		return nil, err
	}

	var sink report.Sink
	if cfg.Audit.Report.DryRun {
		sink = report.NewMemorySink()
	} else {
		if err := os.MkdirAll(cfg.Audit.Report.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create report dir: %w", err)
		}
		sink = report.NewXLSXSink(cfg.Audit.Report.Dir, logger)
	}

	runner, err := audit.NewRunner(q, sink, audit.Config{
		Checks:        defs,
		Naming:        cfg.Audit.Naming,
		Analyze:       cfg.Audit.ShouldAnalyze(),
		Threads:       cfg.Audit.Performance.Threads,
		FailFast:      cfg.Audit.Performance.FailFast,
		ReportName:    report.RunName(cfg.Audit.Report.Name, start),
		SchemaPattern: cfg.Audit.Discover.SchemaPattern,
	})
	if err != nil {
		return nil, err
	}
	runner.SetLogger(logger)
	metricsSink := metrics.Sink(metrics.NewLogSink(logger))
	if path := cfg.Audit.Metrics.TextfilePath; path != "" {
		metricsSink = metrics.NewMultiSink(metricsSink, metrics.NewTextfileSink(path))
	}
	runner.SetMetricsSink(metricsSink)

	return runner.Run(ctx, cfg.Audit.TargetList())
}

func printSummary(w io.Writer, s *audit.Summary) {
	fmt.Fprintf(w, "run %s, report %s: %s\n", s.RunID, s.ReportName, s.String())
	for _, t := range s.Empty {
		fmt.Fprintf(w, "  empty   %s\n", t)
	}
	for _, t := range s.Warned {
		fmt.Fprintf(w, "  warned  %s\n", t)
	}
	for _, f := range s.Failed {
		fmt.Fprintf(w, "  failed  %s: %v\n", f.Target, f.Err)
	}
}
