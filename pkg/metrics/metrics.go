// Package metrics exposes Prometheus counters for an analysis run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccollicutt/sensorlog/pkg/burst"
)

const namespace = "sensorlog"

// Reasons an event is left out of burst detection.
const (
	ReasonIncompleteStart = "incomplete_start"
	ReasonMissingID       = "missing_id"
	ReasonDuplicateID     = "duplicate_id"
	ReasonFiltered        = "filtered"
	ReasonBelowRecBytes   = "below_min_recbytes"
)

// Collector holds the counters of one run.
type Collector struct {
	registry *prometheus.Registry

	EventsParsed   prometheus.Counter
	EventsSkipped  *prometheus.CounterVec
	DocumentErrors prometheus.Counter
	Bursts         *prometheus.CounterVec
	Groups         prometheus.Gauge
}

// NewCollector creates the counters and registers them on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		EventsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "events_total",
			Help:      "Number of events read from the sensor log.",
		}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "events_skipped_total",
			Help:      "Number of events excluded from burst detection, labelled by reason.",
		}, []string{"reason"}),
		DocumentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "document_errors_total",
			Help:      "Number of documents that stopped parsing early.",
		}),
		Bursts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "burst",
			Name:      "detected_total",
			Help:      "Number of bursts detected, labelled by grouping mode.",
		}, []string{"group_by"}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "burst",
			Name:      "groups",
			Help:      "Number of windows used in the last detection pass.",
		}),
	}

	c.registry.MustRegister(c.EventsParsed, c.EventsSkipped, c.DocumentErrors, c.Bursts, c.Groups)
	return c
}

// Registry returns the registry the counters are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveParse records the outcome of parsing a document.
func (c *Collector) ObserveParse(records, dropped int, complete bool) {
	c.EventsParsed.Add(float64(records + dropped))
	if dropped > 0 {
		c.EventsSkipped.WithLabelValues(ReasonMissingID).Add(float64(dropped))
	}
	if !complete {
		c.DocumentErrors.Inc()
	}
}

// IncSkipped records n events excluded for reason.
func (c *Collector) IncSkipped(reason string, n int) {
	if n > 0 {
		c.EventsSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveBursts records a detection pass.
func (c *Collector) ObserveBursts(mode burst.GroupMode, result *burst.Result) {
	c.Bursts.WithLabelValues(string(mode)).Add(float64(len(result.Triggers)))
	c.Groups.Set(float64(result.Groups))
}

// WriteTextfile writes the counters in the text exposition format for the
// node exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
