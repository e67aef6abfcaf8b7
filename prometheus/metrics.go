package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cmms_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Signup counter
	SignupCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cmms_signup_total",
			Help: "Total number of tenant signups",
		},
	)

	// Work-order transition counter
	WorkOrderTransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_work_order_transitions_total",
			Help: "Total number of work-order state transitions",
		},
		[]string{"transition"}, // transition is "assign", "start" or "finish"
	)

	// Entity operation counter
	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"entity", "operation"},
	)

	// Error counter by taxonomy code
	ErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_errors_total",
			Help: "Total number of application errors by code",
		},
		[]string{"code"},
	)

	// Scheduler run counter
	SchedulerRunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmms_scheduler_runs_total",
			Help: "Total number of preventive scheduler runs",
		},
		[]string{"outcome"}, // outcome is "ok" or "error"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cmms_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cmms_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cmms_info",
			Help: "Information about the maintenance service",
		},
		[]string{"version"},
	)

	// Work orders spawned by the preventive scheduler in the last run
	SchedulerSpawnedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cmms_scheduler_spawned_work_orders",
			Help: "Work orders created by the last preventive scheduler run",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(SignupCounter)
	prometheus.MustRegister(WorkOrderTransitionCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(ErrorCounter)
	prometheus.MustRegister(SchedulerRunCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(SchedulerSpawnedGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordHTTPRequest records a completed HTTP request
func RecordHTTPRequest(endpoint, method string, status int, duration float64) {
	labels := prometheus.Labels{
		"endpoint": endpoint,
		"method":   method,
		"status":   strconv.Itoa(status),
	}
	HTTPRequestCounter.With(labels).Inc()
	RequestDuration.With(labels).Observe(duration)
}

// RecordTransition records a work-order state transition
func RecordTransition(transition string) {
	WorkOrderTransitionCounter.With(prometheus.Labels{"transition": transition}).Inc()
}

// RecordEntityOperation records an entity operation
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.With(prometheus.Labels{"entity": entity, "operation": operation}).Inc()
}

// RecordError records an application error by taxonomy code
func RecordError(code string) {
	ErrorCounter.With(prometheus.Labels{"code": code}).Inc()
}

// RecordSchedulerRun records a preventive scheduler run
func RecordSchedulerRun(outcome string, spawned int) {
	SchedulerRunCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
	SchedulerSpawnedGauge.Set(float64(spawned))
}
