package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/block/qualitychecker/pkg/audit"
	"github.com/block/qualitychecker/pkg/check"
	"github.com/block/qualitychecker/pkg/config"
	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/block/qualitychecker/pkg/metadata"
	"github.com/block/qualitychecker/pkg/report"
	"github.com/block/qualitychecker/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
audit:
  name: TEST
  dialect: vertica
  checks: all
  targets: [ODS_SALES.orders]
`

func TestAuditCmdOverrides(t *testing.T) {
	cmd := &AuditCmd{
		ConfigFile: writeConfig(t, minimalConfig),
		Checks:     "2,11",
		Dialect:    "greenplum",
		Threads:    3,
		ReportDir:  "/tmp/reports",
		DryRun:     true,
		Targets:    []string{"ODS_HR.people"},
	}
	cfg, err := cmd.load()
	require.NoError(t, err)
	assert.Equal(t, config.CheckSet{IDs: []int{2, 11}}, cfg.Audit.Checks)
	assert.Equal(t, dialect.Greenplum, cfg.Audit.Dialect)
	assert.Equal(t, 3, cfg.Audit.Performance.Threads)
	assert.Equal(t, "/tmp/reports", cfg.Audit.Report.Dir)
	assert.True(t, cfg.Audit.Report.DryRun)
	assert.Equal(t, []metadata.TableTarget{{Schema: "ODS_HR", Table: "people"}}, cfg.Audit.TargetList())
	assert.Equal(t, "TEST_report", cfg.Audit.Report.Name)
}

func TestAuditCmdRejectsBadOverrides(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	_, err := (&AuditCmd{ConfigFile: path, Checks: "1,99"}).load()
	assert.ErrorIs(t, err, check.ErrUnknownCheck)

	_, err = (&AuditCmd{ConfigFile: path, Dialect: "mysql"}).load()
	assert.ErrorIs(t, err, dialect.ErrUnsupportedDialect)

	_, err = (&AuditCmd{ConfigFile: path, Threads: -1}).load()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunAuditWritesStampedReport(t *testing.T) {
	dir := t.TempDir()
	cfg, err := (&AuditCmd{ConfigFile: writeConfig(t, minimalConfig), Checks: "11", ReportDir: dir}).load()
	require.NoError(t, err)
	*cfg.Audit.AnalyzeStatistics = false

	q := testutils.NewFakeQuerier(dialect.Vertica).
		On(testutils.Rows([]any{int64(1)}), `"ODS_SALES"."orders" LIMIT 1`).
		On(testutils.Rows([]any{"id", "int", int64(0)}), "ORDER BY ordinal_position").
		On(testutils.Rows([]any{int64(7)}), "SELECT COUNT(*)")
	start := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	summary, err := runAudit(t.Context(), cfg, q, start, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "TEST_report_2024-03-01_12-30", summary.ReportName)

	general, _, err := report.ReadXLSX(filepath.Join(dir, "TEST_report_2024-03-01_12-30.xlsx"))
	require.NoError(t, err)
	require.Equal(t, 1, general.Len())
	assert.Equal(t, int64(7), general.Rows[0]["row_count"])
}

func TestPrintChecks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printChecks(&buf, check.All()))
	out := buf.String()
	assert.Contains(t, out, "OUTPUTS")
	assert.Contains(t, out, "increment_check")
	assert.Contains(t, out, "best effort")
	assert.Contains(t, out, "staging pk")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	orders := metadata.TableTarget{Schema: "ODS_SALES", Table: "orders"}
	printSummary(&buf, &audit.Summary{
		RunID:      "run-1",
		ReportName: "TEST_report",
		Audited:    []metadata.TableTarget{orders},
		Failed:     []audit.TableFailure{{Target: metadata.TableTarget{Schema: "ODS_SALES", Table: "broken"}, Err: errors.New("boom")}},
	})
	assert.Contains(t, buf.String(), "audited=1 empty=0 failed=1 warned=0")
	assert.Contains(t, buf.String(), "failed  ODS_SALES.broken: boom")
}
