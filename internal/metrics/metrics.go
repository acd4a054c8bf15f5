package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eopgo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eopgo_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	eopLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eopgo_loads_total",
			Help: "Total number of EOP table loads, by source type.",
		},
		[]string{"source"},
	)

	eopLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eopgo_load_errors_total",
			Help: "Total number of failed EOP table loads.",
		},
	)

	eopRecordsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eopgo_records_loaded",
			Help: "Number of records in the currently installed EOP table.",
		},
	)

	eopDataAgeDays = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eopgo_data_age_days",
			Help: "Days between now and the last epoch of the installed EOP table.",
		},
	)

	eopDataMJDMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eopgo_data_mjd_max",
			Help: "Last epoch (Modified Julian Date) of the installed EOP table.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(eopLoadsTotal)
	prometheus.MustRegister(eopLoadErrorsTotal)
	prometheus.MustRegister(eopRecordsLoaded)
	prometheus.MustRegister(eopDataAgeDays)
	prometheus.MustRegister(eopDataMJDMax)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncLoad records a successful EOP table load.
func IncLoad(source string) {
	eopLoadsTotal.WithLabelValues(source).Inc()
}

// IncLoadError records a failed EOP table load.
func IncLoadError() {
	eopLoadErrorsTotal.Inc()
}

// SetRecordsLoaded updates the installed record count gauge.
func SetRecordsLoaded(n int) {
	eopRecordsLoaded.Set(float64(n))
}

// SetDataAgeDays updates the data age gauge.
func SetDataAgeDays(days float64) {
	eopDataAgeDays.Set(days)
}

// SetDataMJDMax updates the last-epoch gauge.
func SetDataMJDMax(mjd float64) {
	eopDataMJDMax.Set(mjd)
}

// knownRoutes are the exact paths served by the API; anything else is
// collapsed to "other" to bound label cardinality against bot traffic.
var knownRoutes = map[string]bool{
	"/healthz":       true,
	"/readyz":        true,
	"/metrics":       true,
	"/api/v1/eop":    true,
	"/api/v1/status": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
