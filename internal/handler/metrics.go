package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcr",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests broken down by route, method and status class.",
	}, []string{"route", "method", "result"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dcr",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "HTTP request latency by route.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.025, 0.05,
			0.1, 0.25, 0.5, 1, 2.5, 5, 10,
		},
	}, []string{"route", "method", "result"})
)

// Metrics records request count and latency per chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		res := strconv.Itoa(status/100) + "xx"
		httpRequests.WithLabelValues(route, r.Method, res).Inc()
		httpLatency.WithLabelValues(route, r.Method, res).Observe(time.Since(start).Seconds())
	})
}
