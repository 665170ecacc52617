package metrics

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qualitychecker"

// TextfileSink keeps the latest value of every series in a private
// registry and rewrites a Prometheus textfile-collector file on each Send.
type TextfileSink struct {
	path string

	sync.Mutex
	registry *prometheus.Registry
	gauges   map[string]*prometheus.GaugeVec
	counters map[string]*prometheus.CounterVec
}

var _ Sink = &TextfileSink{}

func NewTextfileSink(path string) *TextfileSink {
	return &TextfileSink{
		path:     path,
		registry: prometheus.NewRegistry(),
		gauges:   map[string]*prometheus.GaugeVec{},
		counters: map[string]*prometheus.CounterVec{},
	}
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func (s *TextfileSink) Send(ctx context.Context, m *Metrics) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	for _, v := range m.Values {
		if err := s.record(v); err != nil {
			return err
		}
	}
	return prometheus.WriteToTextfile(s.path, s.registry)
}

func (s *TextfileSink) record(v MetricValue) error {
	switch v.Type {
	case GAUGE:
		vec, ok := s.gauges[v.Name]
		if !ok {
			vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      v.Name,
				Help:      "qualitychecker gauge " + v.Name,
			}, labelNames(v.Labels))
			if err := s.registry.Register(vec); err != nil {
				return err
			}
			s.gauges[v.Name] = vec
		}
		g, err := vec.GetMetricWith(v.Labels)
		if err != nil {
			return fmt.Errorf("metric %s: %w", v.Name, err)
		}
		g.Set(v.Value)
	case COUNTER:
		vec, ok := s.counters[v.Name]
		if !ok {
			vec = prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      v.Name + "_total",
				Help:      "qualitychecker counter " + v.Name,
			}, labelNames(v.Labels))
			if err := s.registry.Register(vec); err != nil {
				return err
			}
			s.counters[v.Name] = vec
		}
		c, err := vec.GetMetricWith(v.Labels)
		if err != nil {
			return fmt.Errorf("metric %s: %w", v.Name, err)
		}
		c.Add(v.Value)
	default:
		return fmt.Errorf("metric %s: invalid metric type %d", v.Name, v.Type)
	}
	return nil
}
