package telemetry

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds a worker's Prometheus counters and a private registry, so
// multiple worker processes on the same host never collide on the
// default global registry.
type Metrics struct {
	registry          *prometheus.Registry
	PartitionsWritten prometheus.Counter
	PixelsFilled      prometheus.Counter
	ProjectionErrors  prometheus.Counter
}

// NewMetrics constructs and registers a Metrics set labeled with rank.
func NewMetrics(rank int) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"rank": fmt.Sprint(rank)}

	m := &Metrics{
		registry: reg,
		PartitionsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "prasterblaster_partitions_written_total",
			Help:        "Output partitions written by this worker.",
			ConstLabels: labels,
		}),
		PixelsFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "prasterblaster_pixels_filled_total",
			Help:        "Output pixels of partitions whose whole source window was empty, written with the fill value.",
			ConstLabels: labels,
		}),
		ProjectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "prasterblaster_projection_errors_total",
			Help:        "Per-pixel projection failures absorbed as fill values.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.PartitionsWritten, m.PixelsFilled, m.ProjectionErrors)
	return m
}

// HasSamples reports whether any counter has been incremented, so a
// caller can skip writing an all-zero metrics file.
func (m *Metrics) HasSamples() bool {
	families, err := m.registry.Gather()
	if err != nil {
		return false
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if metric.GetCounter().GetValue() > 0 {
				return true
			}
		}
	}
	return false
}

// WriteTextfile gathers the current metric values and writes them in the
// Prometheus text exposition format to path, for node_exporter-style
// textfile collection after the worker exits.
func (m *Metrics) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("telemetry: gathering metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("telemetry: creating metrics file: %w", err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("telemetry: encoding metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
