// Package prom exports tagdex metrics to Prometheus.
//
//	c := prom.NewCollector(prometheus.DefaultRegisterer)
//	d := tagdex.New[string](tagdex.WithMetricsCollector(c))
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/tagdex"
)

// Collector implements tagdex.MetricsCollector with Prometheus metrics.
type Collector struct {
	latency   *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	queries   *prometheus.CounterVec
	matches   *prometheus.HistogramVec
	rollbacks *prometheus.CounterVec
}

// Options configures a Collector.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "tagdex".
	Namespace string
	// ConstLabels are attached to every metric, e.g. a collection name.
	ConstLabels prometheus.Labels
	// Buckets for the latency histogram. Defaults to prometheus.DefBuckets.
	Buckets []float64
}

// NewCollector creates a Collector with default options and registers it
// with reg. A nil reg skips registration.
func NewCollector(reg prometheus.Registerer) *Collector {
	return NewCollectorWithOptions(reg, Options{})
}

// NewCollectorWithOptions creates a Collector and registers it with reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewCollectorWithOptions(reg prometheus.Registerer, opts Options) *Collector {
	if opts.Namespace == "" {
		opts.Namespace = "tagdex"
	}
	if len(opts.Buckets) == 0 {
		opts.Buckets = prometheus.DefBuckets
	}

	c := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "operation_latency_seconds",
			Help:        "Latency of collection operations",
			ConstLabels: opts.ConstLabels,
			Buckets:     opts.Buckets,
		}, []string{"kind", "op", "status"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "mutations_total",
			Help:        "Total public mutations",
			ConstLabels: opts.ConstLabels,
		}, []string{"op", "status"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "queries_total",
			Help:        "Total query evaluations",
			ConstLabels: opts.ConstLabels,
		}, []string{"shape", "status"}),
		matches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "query_matches",
			Help:        "Entries matched per successful query",
			ConstLabels: opts.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"shape"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "rollbacks_total",
			Help:        "Total mutations undone after a failed primitive",
			ConstLabels: opts.ConstLabels,
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(c.latency, c.mutations, c.queries, c.matches, c.rollbacks)
	}
	return c
}

// RecordMutation implements tagdex.MetricsCollector.
func (c *Collector) RecordMutation(op string, d time.Duration, err error) {
	s := status(err)
	c.latency.WithLabelValues("mutation", op, s).Observe(d.Seconds())
	c.mutations.WithLabelValues(op, s).Inc()
}

// RecordQuery implements tagdex.MetricsCollector.
func (c *Collector) RecordQuery(shape tagdex.Shape, matches int, d time.Duration, err error) {
	s := status(err)
	name := shape.String()
	c.latency.WithLabelValues("query", name, s).Observe(d.Seconds())
	c.queries.WithLabelValues(name, s).Inc()
	if err == nil {
		c.matches.WithLabelValues(name).Observe(float64(matches))
	}
}

// RecordRollback implements tagdex.MetricsCollector.
func (c *Collector) RecordRollback(op string) {
	c.rollbacks.WithLabelValues(op).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ tagdex.MetricsCollector = (*Collector)(nil)
