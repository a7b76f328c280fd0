// Package metrics provides Prometheus metrics for the arena scoreboard
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector for the service.
type Manager struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry

	// Action pipeline
	actionsProcessed prometheus.Counter
	actionsDuplicate prometheus.Counter
	actionsRejected  prometheus.Counter
	eventsLogged     prometheus.Counter

	// Store
	sessionCount          prometheus.Gauge
	watcherCount          prometheus.Gauge
	applyLatency          prometheus.Histogram
	eventLogAppendLatency prometheus.Histogram
	teamProgressPercent   *prometheus.GaugeVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager backed by a custom registry, so the default Go
// collectors stay out of /healthz.
var (
	globalManager  *Manager                  //nolint:gochecknoglobals // singleton metrics manager
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "arena",
		subsystem: "scoreboard",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	factory := promauto.With(m.registry)

	m.actionsProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "actions_processed_total",
		Help: "Actions applied to the board.",
	})
	m.actionsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "actions_duplicate_total",
		Help: "Actions acknowledged as duplicates by the idempotency cache.",
	})
	m.actionsRejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "actions_rejected_total",
		Help: "Actions rejected because a counter was already at zero.",
	})
	m.eventsLogged = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_logged_total",
		Help: "Action records appended to the event log.",
	})

	m.sessionCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sessions",
		Help: "Live sessions in the store.",
	})
	m.watcherCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "watchers",
		Help: "Connected change-feed watchers.",
	})
	m.applyLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "apply_latency_ms",
		Help:    "Latency of applying an action to the store.",
		Buckets: prometheus.DefBuckets,
	})
	m.eventLogAppendLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "eventlog_append_latency_ms",
		Help:    "Latency of appending to the sqlite event log.",
		Buckets: prometheus.DefBuckets,
	})
	m.teamProgressPercent = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "team_progress_percent",
		Help: "Clamped team progress toward the configured target.",
	}, []string{"session"})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Actions currently buffered in the queue.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured queue capacity.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_utilization",
		Help: "Queue fill ratio, 0 to 1.",
	})
	m.queueEnqueueErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_errors_total",
		Help: "Rejected enqueues by reason.",
	}, []string{"reason"})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "workers",
		Help: "Running apply workers.",
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Worker failures while applying or recording actions.",
	})
	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_ms",
		Help:    "End-to-end latency of processing one action.",
		Buckets: prometheus.DefBuckets,
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration by endpoint, method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry exposes the custom registry for the /healthz handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers over the global manager.

func RecordActionProcessed() { globalManager.actionsProcessed.Inc() }
func RecordActionDuplicate() { globalManager.actionsDuplicate.Inc() }
func RecordActionRejected()  { globalManager.actionsRejected.Inc() }
func RecordEventLogged()     { globalManager.eventsLogged.Inc() }
func RecordWorkerError()     { globalManager.workerErrors.Inc() }

func UpdateSessionCount(n int)         { globalManager.sessionCount.Set(float64(n)) }
func UpdateWatcherCount(n int)         { globalManager.watcherCount.Set(float64(n)) }
func UpdateWorkerCount(n int)          { globalManager.workerCount.Set(float64(n)) }
func UpdateQueueSize(n int)            { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)        { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(u float64) { globalManager.queueUtilization.Set(u) }

func UpdateTeamProgress(session string, percent float64) {
	globalManager.teamProgressPercent.WithLabelValues(session).Set(percent)
}

func RecordApplyLatency(ms float64) { globalManager.applyLatency.Observe(ms) }
func RecordEventLogAppendLatency(ms float64) {
	globalManager.eventLogAppendLatency.Observe(ms)
}
func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerProcessingLatency.Observe(ms)
}

func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
