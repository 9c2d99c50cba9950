// Package metrics provides Prometheus metrics for the pixelrace service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the race service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsClosed  prometheus.Counter
	transitions     *prometheus.CounterVec
	racesCompleted  prometheus.Counter
	rejections      *prometheus.CounterVec
	sessionsByState *prometheus.GaugeVec

	// Race clock
	ticks           prometheus.Counter
	staleTicks      prometheus.Counter
	tickLatency     prometheus.Histogram
	rankingLatency  prometheus.Histogram
	racersFinished  prometheus.Counter
	commandQueueLen prometheus.Gauge

	// Garage economy
	purchases      *prometheus.CounterVec
	prizeMoneyPaid prometheus.Counter

	// Presentation feeds
	streamClients prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pixelrace",
		subsystem:        "race",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.sessionsActive = m.gauge("sessions_active", "Number of live race sessions")
	m.sessionsCreated = m.counter("sessions_created_total", "Total number of race sessions created")
	m.sessionsClosed = m.counter("sessions_closed_total", "Total number of race sessions torn down")
	m.transitions = m.counterVec("state_transitions_total", "Session state transitions", "from", "to")
	m.racesCompleted = m.counter("races_completed_total", "Races that reached the results state")
	m.rejections = m.counterVec("commands_rejected_total", "Session commands rejected by the state machine", "reason")
	m.sessionsByState = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sessions_by_state",
		Help:        "Live sessions per state machine phase",
		ConstLabels: m.constLabels,
	}, []string{"state"})

	m.ticks = m.counter("ticks_total", "Race clock ticks applied")
	m.staleTicks = m.counter("ticks_stale_total", "Ticks dropped because their generation was superseded")
	m.tickLatency = m.histogram("tick_latency_milliseconds", "Time spent applying one tick including ranking", m.histogramBuckets)
	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Time spent recomputing standings", m.histogramBuckets)
	m.racersFinished = m.counter("racers_finished_total", "Racers that crossed the finish threshold")
	m.commandQueueLen = m.gauge("command_queue_length", "Commands waiting in the most recently used session mailbox")

	m.purchases = m.counterVec("purchases_total", "Garage purchases by kind and outcome", "kind", "outcome")
	m.prizeMoneyPaid = m.counter("prize_money_paid_total", "Prize money credited to player wallets")

	m.streamClients = m.gauge("stream_clients", "Connected standings stream clients")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint, type and severity",
		"endpoint", "method", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// SessionOpened records a new live session.
func SessionOpened() {
	globalManager.sessionsCreated.Inc()
	globalManager.sessionsActive.Inc()
}

// SessionClosed records a torn down session.
func SessionClosed() {
	globalManager.sessionsClosed.Inc()
	globalManager.sessionsActive.Dec()
}

// RecordTransition counts a state machine transition.
func RecordTransition(from, to string) {
	globalManager.transitions.WithLabelValues(from, to).Inc()
}

// UpdateSessionsByState sets the number of live sessions in state.
func UpdateSessionsByState(state string, n int) {
	globalManager.sessionsByState.WithLabelValues(state).Set(float64(n))
}

// RecordRaceCompleted counts a race reaching results.
func RecordRaceCompleted() {
	globalManager.racesCompleted.Inc()
}

// RecordRejection counts a command the state machine refused.
func RecordRejection(reason string) {
	globalManager.rejections.WithLabelValues(reason).Inc()
}

// RecordTick records an applied tick and its latency in milliseconds.
func RecordTick(latencyMs float64) {
	globalManager.ticks.Inc()
	globalManager.tickLatency.Observe(latencyMs)
}

// RecordStaleTick counts a tick dropped by the generation guard.
func RecordStaleTick() {
	globalManager.staleTicks.Inc()
}

// RecordRankingLatency records standings recomputation latency in milliseconds.
func RecordRankingLatency(latencyMs float64) {
	globalManager.rankingLatency.Observe(latencyMs)
}

// RecordRacersFinished adds n newly finished racers.
func RecordRacersFinished(n int) {
	if n > 0 {
		globalManager.racersFinished.Add(float64(n))
	}
}

// UpdateCommandQueueLength sets the mailbox backlog gauge.
func UpdateCommandQueueLength(n int) {
	globalManager.commandQueueLen.Set(float64(n))
}

// RecordPurchase counts a garage purchase attempt.
func RecordPurchase(kind, outcome string) {
	globalManager.purchases.WithLabelValues(kind, outcome).Inc()
}

// RecordPrizePaid adds credited prize money.
func RecordPrizePaid(amount float64) {
	if amount > 0 {
		globalManager.prizeMoneyPaid.Add(amount)
	}
}

// StreamClientConnected increments the stream client gauge.
func StreamClientConnected() {
	globalManager.streamClients.Inc()
}

// StreamClientDisconnected decrements the stream client gauge.
func StreamClientDisconnected() {
	globalManager.streamClients.Dec()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
}

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom metrics registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
