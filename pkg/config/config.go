// Package config loads the YAML run file of an audit.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/block/qualitychecker/pkg/metadata"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	defaultThreads    = 1
	defaultMaxRetries = 3
	defaultReportDir  = "."
)

// Config represents the complete audit configuration
type Config struct {
	Version string      `yaml:"version"`
	Audit   AuditConfig `yaml:"audit"`
}

// AuditConfig contains the main audit configuration
type AuditConfig struct {
	// Environment name, used as the report name prefix (e.g. PROD).
	Name              string            `yaml:"name"`
	Dialect           dialect.Dialect   `yaml:"dialect"`
	Connection        ConnectionConfig  `yaml:"connection"`
	Checks            CheckSet          `yaml:"checks"`
	Targets           []string          `yaml:"targets"`
	Discover          DiscoverConfig    `yaml:"discover"`
	Naming            metadata.Naming   `yaml:"naming"`
	AnalyzeStatistics *bool             `yaml:"analyze_statistics"`
	Performance       PerformanceConfig `yaml:"performance"`
	Report            ReportConfig      `yaml:"report"`
	Metrics           MetricsConfig     `yaml:"metrics"`
	Logging           LoggingConfig     `yaml:"logging"`
}

// ConnectionConfig defines how to reach the warehouse. Values left empty
// are taken from the ini credentials file when one is given.
type ConnectionConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Database        string `yaml:"database"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	TLSMode         string `yaml:"tls_mode"`
	CredentialsFile string `yaml:"credentials_file"`
}

// DiscoverConfig selects targets from the catalog when none are listed.
type DiscoverConfig struct {
	SchemaPattern string `yaml:"schema_pattern"` // SQL LIKE pattern
}

// PerformanceConfig defines concurrency and retry behavior
type PerformanceConfig struct {
	Threads      int           `yaml:"threads"`
	MaxRetries   int           `yaml:"max_retries"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	FailFast     bool          `yaml:"fail_fast"`
}

// ReportConfig defines where the report is written
type ReportConfig struct {
	Name   string `yaml:"name"`
	Dir    string `yaml:"dir"`
	DryRun bool   `yaml:"dry_run"` // keep the report in memory only
}

// MetricsConfig defines the metrics sink
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"` // Prometheus textfile collector output
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid and sets defaults.
func (c *Config) Validate() error {
	a := &c.Audit
	if a.Dialect != dialect.Vertica && a.Dialect != dialect.Greenplum {
		return fmt.Errorf("%w: audit.dialect: %w", ErrInvalidConfig, dialect.ErrUnsupportedDialect)
	}

	if a.Checks.IsEmpty() {
		a.Checks = AllChecks()
	}
	if _, err := a.Checks.Definitions(); err != nil {
		return fmt.Errorf("%w: audit.checks: %w", ErrInvalidConfig, err)
	}

	for i, target := range a.Targets {
		if _, ok := metadata.ParseTarget(target); !ok {
			return fmt.Errorf("%w: audit.targets[%d] %q is not schema.table", ErrInvalidConfig, i, target)
		}
	}

	if a.Performance.Threads < 0 {
		return fmt.Errorf("%w: audit.performance.threads must not be negative", ErrInvalidConfig)
	}

	// Set defaults
	if c.Version == "" {
		c.Version = "1"
	}

	defaults := metadata.DefaultNaming()
	if a.Naming.StorePrefix == "" {
		a.Naming.StorePrefix = defaults.StorePrefix
	}
	if a.Naming.StagingPrefix == "" {
		a.Naming.StagingPrefix = defaults.StagingPrefix
	}
	if a.Naming.LoadTSColumn == "" {
		a.Naming.LoadTSColumn = defaults.LoadTSColumn
	}
	if a.Naming.DeletedFlagColumn == "" {
		a.Naming.DeletedFlagColumn = defaults.DeletedFlagColumn
	}

	if a.Discover.SchemaPattern == "" {
		a.Discover.SchemaPattern = likePrefix(a.Naming.StorePrefix)
	}

	if a.AnalyzeStatistics == nil {
		analyze := true
		a.AnalyzeStatistics = &analyze
	}

	if a.Performance.Threads == 0 {
		a.Performance.Threads = defaultThreads
	}
	if a.Performance.MaxRetries == 0 {
		a.Performance.MaxRetries = defaultMaxRetries
	}

	if a.Report.Name == "" {
		a.Report.Name = "report"
		if a.Name != "" {
			a.Report.Name = a.Name + "_report"
		}
	}
	if a.Report.Dir == "" {
		a.Report.Dir = defaultReportDir
	}

	if a.Logging.Level == "" {
		a.Logging.Level = "info"
	}
	if a.Logging.Format == "" {
		a.Logging.Format = "text"
	}

	return nil
}

// TargetList returns the configured targets. Validate has already
// checked that each one parses.
func (a *AuditConfig) TargetList() []metadata.TableTarget {
	targets := make([]metadata.TableTarget, 0, len(a.Targets))
	for _, s := range a.Targets {
		if t, ok := metadata.ParseTarget(s); ok {
			targets = append(targets, t)
		}
	}
	return targets
}

// ShouldAnalyze reports whether statistics are refreshed before a table
// is audited.
func (a *AuditConfig) ShouldAnalyze() bool {
	return a.AnalyzeStatistics == nil || *a.AnalyzeStatistics
}

// likePrefix turns a schema prefix into a LIKE pattern matching it
// literally, e.g. ODS_ becomes ODS\_%.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `_`, `\_`, `%`, `\%`)
	return r.Replace(prefix) + "%"
}
