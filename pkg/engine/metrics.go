package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the engine's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "retain").
	Namespace string

	// Subsystem is the metrics subsystem (default: "engine").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the engine's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	paintOps      *prometheus.CounterVec
	messages      *prometheus.CounterVec
	events        *prometheus.CounterVec
	errors        *prometheus.CounterVec
	queuedOps     prometheus.Counter
	droppedOps    prometheus.Counter
	activeRoots   prometheus.Gauge
	epochDuration prometheus.Histogram
}

// NewMetrics registers the engine metrics:
//
//   - retain_engine_paint_ops_total: painter decisions by result
//   - retain_engine_messages_total: messages and queries by mode
//   - retain_engine_events_total: host events dispatched by type
//   - retain_engine_errors_total: structural and invariant errors by code
//   - retain_engine_queued_ops_total: operations deferred by the barrier
//   - retain_engine_dropped_ops_total: deferred operations whose target was pruned
//   - retain_engine_active_roots: live roots
//   - retain_engine_epoch_duration_seconds: time spent per outermost operation
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "retain",
		Subsystem: "engine",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		paintOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "paint_ops_total",
			Help:        "Painter decisions by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_total",
			Help:        "Messages and queries routed, by mode",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Host events dispatched, by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Structural and invariant errors, by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		queuedOps: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queued_ops_total",
			Help:        "Operations deferred until the running one completed",
			ConstLabels: config.ConstLabels,
		}),

		droppedOps: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dropped_ops_total",
			Help:        "Deferred operations dropped because their target was pruned",
			ConstLabels: config.ConstLabels,
		}),

		activeRoots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_roots",
			Help:        "Number of live roots",
			ConstLabels: config.ConstLabels,
		}),

		epochDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "epoch_duration_seconds",
			Help:        "Duration of outermost mutating operations, including drained ones",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
	}
}

func (m *Metrics) paint(result string) {
	if m != nil {
		m.paintOps.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) message(mode string) {
	if m != nil {
		m.messages.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) event(typ string) {
	if m != nil {
		m.events.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) structural(code string) {
	if m != nil {
		m.errors.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) queued() {
	if m != nil {
		m.queuedOps.Inc()
	}
}

func (m *Metrics) dropped() {
	if m != nil {
		m.droppedOps.Inc()
	}
}

func (m *Metrics) roots(n int) {
	if m != nil {
		m.activeRoots.Set(float64(n))
	}
}

func (m *Metrics) epoch(d time.Duration) {
	if m != nil {
		m.epochDuration.Observe(d.Seconds())
	}
}
