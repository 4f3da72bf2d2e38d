package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "soar"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Incident metrics
	incidentsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "incident",
			Name:      "processed_total",
			Help:      "Total number of processed incidents",
		},
		[]string{"severity", "status"},
	)

	incidentMTTR = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "incident",
			Name:      "mttr_minutes",
			Help:      "Realized mean time to respond in minutes",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5, 10, 15, 30, 60},
		},
	)

	// Playbook metrics
	playbookSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playbook",
			Name:      "selections_total",
			Help:      "Total number of playbook selections",
		},
		[]string{"playbook"},
	)

	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playbook",
			Name:      "actions_total",
			Help:      "Total number of scheduled playbook actions by outcome",
		},
		[]string{"status"},
	)

	actionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "playbook",
			Name:      "action_duration_seconds",
			Help:      "Duration of executed playbook actions in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	actionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playbook",
			Name:      "actions_in_flight",
			Help:      "Number of playbook actions currently executing",
		},
	)

	// Isolation metrics
	isolationMethodsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "isolation",
			Name:      "methods_total",
			Help:      "Total number of executed isolation methods",
		},
		[]string{"method", "status"},
	)

	// Threat intel metrics
	intelLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intel",
			Name:      "lookups_total",
			Help:      "Total number of threat intel source lookups",
		},
		[]string{"source", "status"},
	)

	intelCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intel",
			Name:      "cache_hits_total",
			Help:      "Total number of threat intel cache hits",
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)

	retentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "deleted_total",
			Help:      "Total number of incident records pruned by retention",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordIncident records a processed incident and its realized MTTR
func RecordIncident(severity, status string, mttrMinutes float64) {
	incidentsProcessedTotal.WithLabelValues(severity, status).Inc()
	incidentMTTR.Observe(mttrMinutes)
}

// RecordPlaybookSelection records a selected playbook
func RecordPlaybookSelection(playbook string) {
	playbookSelectionsTotal.WithLabelValues(playbook).Inc()
}

// RecordAction records a scheduled action outcome
func RecordAction(status string, duration time.Duration) {
	actionsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		actionDuration.Observe(duration.Seconds())
	}
}

// ActionStarted tracks an action entering execution and returns its completion callback
func ActionStarted() func() {
	actionsInFlight.Inc()
	return actionsInFlight.Dec
}

// RecordIsolation records an executed isolation method
func RecordIsolation(method, status string) {
	isolationMethodsTotal.WithLabelValues(method, status).Inc()
}

// RecordIntelLookup records a threat intel source lookup
func RecordIntelLookup(source, status string) {
	intelLookupsTotal.WithLabelValues(source, status).Inc()
}

// RecordIntelCacheHit records an enrichment served from cache
func RecordIntelCacheHit() {
	intelCacheHits.Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordRetention records pruned incident records
func RecordRetention(deleted int64) {
	retentionDeletedTotal.Add(float64(deleted))
}
