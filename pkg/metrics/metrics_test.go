package metrics

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableMetrics(rows float64) *Metrics {
	return &Metrics{Values: []MetricValue{
		{Name: RowCountMetricName, Type: GAUGE, Value: rows, Labels: map[string]string{"schema": "ODS_SALES", "table": "orders"}},
		{Name: ChecksRunMetricName, Type: COUNTER, Value: 3, Labels: map[string]string{"schema": "ODS_SALES", "table": "orders"}},
	}}
}

func TestTextfileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qualitychecker.prom")
	s := NewTextfileSink(path)
	require.NoError(t, s.Send(t.Context(), tableMetrics(10)))
	require.NoError(t, s.Send(t.Context(), tableMetrics(12)))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, `qualitychecker_row_count{schema="ODS_SALES",table="orders"} 12`)
	assert.Contains(t, text, `qualitychecker_checks_run_total{schema="ODS_SALES",table="orders"} 6`)
}

func TestTextfileSinkRejectsBadValues(t *testing.T) {
	s := NewTextfileSink(filepath.Join(t.TempDir(), "x.prom"))
	err := s.Send(t.Context(), &Metrics{Values: []MetricValue{{Name: "x", Type: UNKNOWN}}})
	assert.Error(t, err)

	require.NoError(t, s.Send(t.Context(), tableMetrics(1)))
	err = s.Send(t.Context(), &Metrics{Values: []MetricValue{
		{Name: RowCountMetricName, Type: GAUGE, Value: 1, Labels: map[string]string{"schema": "ODS_SALES"}},
	}})
	assert.Error(t, err)
}

func TestLogAndMultiSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewMultiSink(&NoopSink{}, NewLogSink(logger))
	require.NoError(t, s.Send(t.Context(), tableMetrics(5)))
	assert.Contains(t, buf.String(), "name=row_count")
	assert.Contains(t, buf.String(), "type=counter")
}
