package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resellz"

// Collector holds the tracker's Prometheus instruments. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	undos           *prometheus.CounterVec
	persistFailures prometheus.Counter
	persistDuration prometheus.Histogram
	publishFailures prometheus.Counter
	items           prometheus.Gauge
	sales           prometheus.Gauge
	history         prometheus.Gauge
}

// New registers all instruments on a fresh registry together with the Go
// runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutations by action type and result.",
		}, []string{"action", "result"}),
		undos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undos_total",
			Help:      "Undo requests by undone action type and result.",
		}, []string{"action", "result"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Writes of tracker state that failed.",
		}),
		persistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing tracker state.",
			Buckets:   prometheus.DefBuckets,
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_publish_failures_total",
			Help:      "Activity events that could not be published.",
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Items currently tracked.",
		}),
		sales: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sales",
			Help:      "Sales currently recorded.",
		}),
		history: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_entries",
			Help:      "Entries in the undo history.",
		}),
	}
	c.registry.MustRegister(
		c.mutations,
		c.undos,
		c.persistFailures,
		c.persistDuration,
		c.publishFailures,
		c.items,
		c.sales,
		c.history,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Mutation(action, result string) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(action, result).Inc()
}

func (c *Collector) Undo(action, result string) {
	if c == nil {
		return
	}
	c.undos.WithLabelValues(action, result).Inc()
}

func (c *Collector) Persisted(took time.Duration, err error) {
	if c == nil {
		return
	}
	c.persistDuration.Observe(took.Seconds())
	if err != nil {
		c.persistFailures.Inc()
	}
}

func (c *Collector) PublishFailed() {
	if c == nil {
		return
	}
	c.publishFailures.Inc()
}

// Sizes sets the collection gauges.
func (c *Collector) Sizes(items, sales, history int) {
	if c == nil {
		return
	}
	c.items.Set(float64(items))
	c.sales.Set(float64(sales))
	c.history.Set(float64(history))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry is exposed for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
