package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/block/qualitychecker/pkg/check"
	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/block/qualitychecker/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("testdata/example-config.yaml")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if config.Version != "1.0" {
		t.Errorf("expected version 1.0, got %s", config.Version)
	}
	if config.Audit.Dialect != dialect.Vertica {
		t.Errorf("expected dialect vertica, got %s", config.Audit.Dialect)
	}
	if config.Audit.Checks.String() != "1,2,3,4,6,11" {
		t.Errorf("unexpected checks %s", config.Audit.Checks)
	}
	if len(config.Audit.TargetList()) != 2 {
		t.Errorf("expected 2 targets, got %d", len(config.Audit.TargetList()))
	}
	if config.Audit.Performance.QueryTimeout != 10*time.Minute {
		t.Errorf("expected query timeout 10m, got %v", config.Audit.Performance.QueryTimeout)
	}

	// Validate defaults
	if config.Audit.Naming.StagingPrefix != "STG_" {
		t.Errorf("expected staging prefix STG_, got %s", config.Audit.Naming.StagingPrefix)
	}
	if config.Audit.Report.Name != "PROD_report" {
		t.Errorf("expected report name PROD_report, got %s", config.Audit.Report.Name)
	}
	if !config.Audit.ShouldAnalyze() {
		t.Error("analyze_statistics should default to true")
	}
	if config.Audit.Performance.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", config.Audit.Performance.MaxRetries)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestValidateDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "audit:\n  dialect: greenplum\n"))
	require.NoError(t, err)
	a := config.Audit
	assert.Equal(t, dialect.Greenplum, a.Dialect)
	assert.True(t, a.Checks.All)
	assert.Equal(t, metadata.DefaultNaming(), a.Naming)
	assert.Equal(t, `ODS\_%`, a.Discover.SchemaPattern)
	assert.Equal(t, 1, a.Performance.Threads)
	assert.Equal(t, "report", a.Report.Name)
	assert.Equal(t, ".", a.Report.Dir)
	assert.Equal(t, "info", a.Logging.Level)
	assert.Empty(t, a.TargetList())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing dialect", "audit:\n  checks: all\n"},
		{"unknown dialect", "audit:\n  dialect: oracle\n"},
		{"unknown check", "audit:\n  dialect: vertica\n  checks: [1, 15]\n"},
		{"non numeric check", "audit:\n  dialect: vertica\n  checks: [one]\n"},
		{"bad target", "audit:\n  dialect: vertica\n  targets: [orders]\n"},
		{"negative threads", "audit:\n  dialect: vertica\n  performance:\n    threads: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	config := &Config{Audit: AuditConfig{Dialect: dialect.Vertica, Checks: CheckSet{IDs: []int{99}}}}
	err := config.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, check.ErrUnknownCheck)

	config = &Config{}
	assert.ErrorIs(t, config.Validate(), dialect.ErrUnsupportedDialect)
}

func TestAnalyzeStatisticsCanBeDisabled(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "audit:\n  dialect: vertica\n  analyze_statistics: false\n"))
	require.NoError(t, err)
	assert.False(t, config.Audit.ShouldAnalyze())
}

func TestCheckSet(t *testing.T) {
	set, err := ParseCheckSet("all")
	require.NoError(t, err)
	assert.True(t, set.All)
	defs, err := set.Definitions()
	require.NoError(t, err)
	assert.Len(t, defs, 14)

	set, err = ParseCheckSet("11, 2")
	require.NoError(t, err)
	assert.Equal(t, "2,11", set.String())
	defs, err = set.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, 2, defs[0].ID)

	_, err = ParseCheckSet("1,x")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var s CheckSet
	require.NoError(t, s.UnmarshalText([]byte("ALL")))
	assert.True(t, s.All)
	assert.True(t, CheckSet{}.IsEmpty())
}

func TestCheckSetYAML(t *testing.T) {
	var doc struct {
		A CheckSet `yaml:"a"`
		B CheckSet `yaml:"b"`
		C CheckSet `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: all\nb: [2, 11]\nc: \"1,5\"\n"), &doc))
	assert.True(t, doc.A.All)
	assert.Equal(t, []int{2, 11}, doc.B.IDs)
	assert.Equal(t, []int{1, 5}, doc.C.IDs)

	err := yaml.Unmarshal([]byte("a: {x: 1}\n"), &doc)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "table", "ODS_SALES.orders")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"table":"ODS_SALES.orders"`)

	_, err = LoggingConfig{Level: "loud"}.NewLogger(&buf)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = LoggingConfig{Level: "info", Format: "xml"}.NewLogger(&buf)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
