package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	authDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_decisions_total",
			Help: "Request gate decisions by outcome and rejection reason.",
		},
		[]string{"outcome", "reason"},
	)

	authCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_cache_lookups_total",
			Help: "Authorization cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		authDecisionsTotal,
		authCacheLookups,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AuthDecision records one request gate verdict. reason is empty for
// allows.
func AuthDecision(allowed bool, reason string) {
	outcome := "allow"
	if !allowed {
		outcome = "deny"
	}
	authDecisionsTotal.WithLabelValues(outcome, reason).Inc()
}

// AuthCacheHit counts a served-from-cache authorization lookup.
func AuthCacheHit() { authCacheLookups.WithLabelValues("hit").Inc() }

// AuthCacheMiss counts an authorization lookup that went to the store.
func AuthCacheMiss() { authCacheLookups.WithLabelValues("miss").Inc() }

// CanonicalPath collapses resource ids out of admin paths so the path
// label stays low-cardinality. Query strings are stripped.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/api/admin/") {
		return p
	}
	segs := strings.Split(p[1:], "/")
	for i := 1; i < len(segs); i++ {
		if segs[i] == "" || fixedAdminSegment(segs[i]) {
			continue
		}
		if segs[i-1] == "users" || segs[i-1] == "roles" {
			segs[i] = ":id"
		}
	}
	return "/" + strings.Join(segs, "/")
}

func fixedAdminSegment(s string) bool {
	switch s {
	case "roles", "status", "permissions":
		return true
	}
	return false
}

// Instrument wraps a handler with request count, latency and in-flight
// tracking.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for labeling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
