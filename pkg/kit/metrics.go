package kit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelService = "service"
	labelMethod  = "method"
	labelPath    = "path"
	labelStatus  = "status"

	defaultStatusCode = http.StatusOK
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{labelService, labelMethod, labelPath, labelStatus},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP latency",
			},
			[]string{labelService, labelMethod, labelPath},
		),
	}

	reg.MustRegister(m.Requests, m.Latency)
	return m
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (m *Metrics) Middleware(service string, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{
				ResponseWriter: w,
				status:         defaultStatusCode,
			}

			start := time.Now()
			next.ServeHTTP(sw, r)

			path := pathLabel(r)
			m.Latency.WithLabelValues(service, r.Method, path).
				Observe(time.Since(start).Seconds())

			m.Requests.WithLabelValues(service, r.Method, path, strconv.Itoa(sw.status)).
				Inc()
		})
	}
}

// ChiRoutePatternOrPath keeps the path label cardinality bounded by
// preferring the matched route pattern over the raw URL.
func ChiRoutePatternOrPath(r *http.Request) string {
	if rp := chi.RouteContext(r.Context()).RoutePattern(); rp != "" {
		return rp
	}
	return r.URL.Path
}

// MetricsAuth protects the metrics endpoint with a static bearer token.
// An empty token disables access entirely.
func MetricsAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if strings.TrimPrefix(authz, "Bearer ") != token {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
