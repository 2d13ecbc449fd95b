package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipsix/logagg/internal/scanner"
	"github.com/ipsix/logagg/internal/state"
)

const namespace = "logagg"

// Collector records one aggregation run in a private Prometheus registry.
type Collector struct {
	registry  *prometheus.Registry
	lines     *prometheus.CounterVec
	files     *prometheus.CounterVec
	errorKeys prometheus.Gauge
	duration  prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Classified log lines by severity.",
		}, []string{"severity"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Scanned input files by outcome.",
		}, []string{"status"}),
		errorKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error_keys",
			Help:      "Distinct error messages after aggregation.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time spent scanning a single file.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	c.registry.MustRegister(c.lines, c.files, c.errorKeys, c.duration)
	for _, sev := range scanner.Severities {
		c.lines.WithLabelValues(string(sev))
	}
	c.files.WithLabelValues(string(state.StatusSuccess))
	c.files.WithLabelValues(string(state.StatusFailed))
	return c
}

func (c *Collector) ObserveFile(p scanner.PartialResult, took time.Duration) {
	status := state.StatusSuccess
	if p.Err != nil {
		status = state.StatusFailed
	}
	c.files.WithLabelValues(string(status)).Inc()
	c.duration.Observe(took.Seconds())
	for sev, n := range p.Counts {
		c.lines.WithLabelValues(string(sev)).Add(float64(n))
	}
}

func (c *Collector) ObserveSnapshot(snap state.Snapshot) {
	c.errorKeys.Set(float64(len(snap.ErrorKeys)))
}

// WriteTextfile dumps the registry in the text exposition format, suitable
// for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
