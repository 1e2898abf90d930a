// Package metrics exposes container construction events to Prometheus.
//
// Install the collector as the container's observer and register it:
//
//	col := metrics.NewCollector()
//	reg := metrics.NewRegistry(col)
//	c := digo.New(digo.WithObserver(col))
package metrics

import (
	"net/http"
	"time"

	"github.com/centraunit/digo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "digo"

// Collector records constructions and multibinding sets. It implements
// both digo.Observer and prometheus.Collector.
type Collector struct {
	constructions *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	setSize       *prometheus.GaugeVec
}

var _ digo.Observer = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates an unregistered Collector.
func NewCollector() *Collector {
	return &Collector{
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "container",
				Name:      "constructions_total",
				Help:      "Factory invocations by bound type and outcome.",
			},
			[]string{"type", "outcome"}, // "success" | "error"
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "container",
				Name:      "construction_duration_seconds",
				Help:      "Time spent in factories, dependencies included.",
				Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
			},
			[]string{"type"},
		),
		setSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "container",
				Name:      "multibinding_set_size",
				Help:      "Distinct elements of each materialized multibinding set.",
			},
			[]string{"type"},
		),
	}
}

func (c *Collector) ObserveConstruction(id digo.TypeID, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.constructions.WithLabelValues(id.Name(), outcome).Inc()
	c.duration.WithLabelValues(id.Name()).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveMultibindings(id digo.TypeID, size int) {
	c.setSize.WithLabelValues(id.Name()).Set(float64(size))
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.constructions.Describe(ch)
	c.duration.Describe(ch)
	c.setSize.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.constructions.Collect(ch)
	c.duration.Collect(ch)
	c.setSize.Collect(ch)
}

// NewRegistry returns a registry holding the Go runtime and process
// collectors plus cs.
func NewRegistry(cs ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	// Go runtime metrics (GC, goroutines, memory)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(cs...)
	return reg
}

// Handler serves the metrics page of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
