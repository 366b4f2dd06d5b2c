// Package metrics exposes Prometheus collectors for the request
// coordination pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded on RequestsTotal.
const (
	OutcomeProcessed = "processed"
	OutcomeQueued    = "queued"
	OutcomeError     = "error"
)

// Config configures metric registration.
type Config struct {
	// Namespace is the metrics namespace (default: "pulse").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for drain duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures metric registration.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the drain duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the collectors for one coordinator. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	mergesTotal   prometheus.Counter
	drainDuration prometheus.Histogram
	queueDepth    prometheus.Gauge
}

// New registers and returns the coordinator collectors.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: "pulse",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "requests_total",
			Help:        "Component update requests by outcome",
			ConstLabels: cfg.ConstLabels,
		}, []string{"outcome"}),

		mergesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "merges_total",
			Help:        "Requests folded into a merged request during a drain",
			ConstLabels: cfg.ConstLabels,
		}),

		drainDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "drain_duration_seconds",
			Help:        "Full drain duration in seconds, merge passes included",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "pending_queue_depth",
			Help:        "Pending requests observed in the queue at enqueue time",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// ObserveRequest records one request outcome.
func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMerge records n requests folded into one merged request.
func (m *Metrics) ObserveMerge(n int) {
	if m == nil {
		return
	}
	m.mergesTotal.Add(float64(n))
}

// ObserveDrain records one complete drain.
func (m *Metrics) ObserveDrain(d time.Duration) {
	if m == nil {
		return
	}
	m.drainDuration.Observe(d.Seconds())
}

// ObserveQueueDepth records the queue length seen at enqueue time.
func (m *Metrics) ObserveQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
