// Package metrics contains a sink interface to be used by clients to implement sink.
// It also provides a default NoopSink, a LogSink and a Prometheus textfile sink.
package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Metric types.
const (
	UNKNOWN byte = iota
	COUNTER
	GAUGE
)

const (
	SinkTimeout                = 1 * time.Second
	TableAuditTimeMetricName   = "table_audit_seconds"
	ChecksRunMetricName        = "checks_run"
	FlaggedColumnsMetricName   = "flagged_columns"
	TableStatusMetricName      = "tables"
	CheckWarningsMetricName    = "check_warnings"
	RowCountMetricName         = "row_count"
	DuplicateKeyRowsMetricName = "duplicate_key_rows"
	BuildInfoMetricName        = "build_info"
)

// Metrics are collection of MetricValues.
type Metrics struct {
	Values []MetricValue
}

type MetricValue struct {
	// Name is the metric name
	Name string

	// Value is the value of the metric.
	Value float64

	// Type is the metric type: GAUGE, COUNTER, and other const.
	Type byte

	// Labels identify the series, e.g. schema, table and check.
	// Every value sent under one name must use the same label keys.
	Labels map[string]string
}

// Sink sends metrics to an external destination.
type Sink interface {
	// Send sends metrics to the sink. It must respect the context timeout, if any.
	Send(ctx context.Context, metrics *Metrics) error
}

// NoopSink is the default sink which does nothing
type NoopSink struct{}

func (s *NoopSink) Send(ctx context.Context, m *Metrics) error {
	return nil
}

var _ Sink = &NoopSink{}

// logSink logs metrics
type logSink struct {
	logger *slog.Logger
}

func (l *logSink) Send(ctx context.Context, m *Metrics) error {
	for _, v := range m.Values {
		switch v.Type {
		case COUNTER:
			l.logger.Debug("metric", "name", v.Name, "type", "counter", "value", v.Value, "labels", v.Labels)
		case GAUGE:
			l.logger.Debug("metric", "name", v.Name, "type", "gauge", "value", v.Value, "labels", v.Labels)
		default:
			l.logger.Error("Received invalid metric type", "type", v.Type, "name", v.Name, "value", v.Value)
		}
	}
	return nil
}

var _ Sink = &logSink{}

func NewLogSink(logger *slog.Logger) *logSink {
	return &logSink{
		logger: logger,
	}
}

// multiSink fans metrics out to several sinks.
type multiSink []Sink

func (m multiSink) Send(ctx context.Context, metrics *Metrics) error {
	for _, s := range m {
		if err := s.Send(ctx, metrics); err != nil {
			return err
		}
	}
	return nil
}

// NewMultiSink returns a sink sending to each of sinks in order.
func NewMultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}
