package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(completionRequestsTotal, completionLatencyMs) }

var (
	completionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatui_completion_requests_total",
			Help: "Completion requests by model and result.",
		},
		[]string{"model", "result"},
	)

	completionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatui_completion_latency_ms",
			Help:    "Completion latency distribution in milliseconds.",
			Buckets: []float64{10, 50, 100, 300, 600, 1000, 1500, 2000, 3000, 5000},
		},
		[]string{"model"},
	)
)

// ObserveCompletion records the outcome and latency of one completion call
func ObserveCompletion(model string, latency time.Duration, ok bool) {
	completionRequestsTotal.WithLabelValues(norm(model), result(ok)).Inc()
	completionLatencyMs.WithLabelValues(norm(model)).Observe(float64(latency.Milliseconds()))
}

// CompletionCount returns the request counter for model and result.
func CompletionCount(model string, ok bool) prometheus.Counter {
	return completionRequestsTotal.WithLabelValues(norm(model), result(ok))
}
