package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loan_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "route"})

	adapterCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_backend_calls_total",
		Help: "Outbound backend calls by service and result",
	}, []string{"service", "result"})

	adapterLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loan_backend_call_duration_seconds",
		Help:    "Outbound backend call latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
	}, []string{"service"})

	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_submissions_total",
		Help: "Loan submissions by outcome",
	}, []string{"outcome"})

	callbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_callbacks_total",
		Help: "Cheque verdict callbacks by result",
	}, []string{"result"})
)

func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveBackendCall records one adapter call; result is "ok" or the error kind.
func ObserveBackendCall(service, result string, d time.Duration) {
	adapterCalls.WithLabelValues(service, result).Inc()
	adapterLatency.WithLabelValues(service).Observe(d.Seconds())
}

func CountSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

func CountCallback(result string) {
	callbacks.WithLabelValues(result).Inc()
}
