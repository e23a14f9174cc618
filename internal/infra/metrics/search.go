package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(searchRequestsTotal, searchLatencyMs, searchResultsKept)
}

var (
	searchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Outbound web-search calls by outcome (ok/error/empty).",
		},
		[]string{"outcome"},
	)

	searchLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_latency_ms",
			Help:    "Web-search call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"success"},
	)

	searchResultsKept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_results_kept_total",
			Help: "Sum of grounding results kept after truncation.",
		},
	)
)

func ObserveSearch(outcome string, latencyMs int, kept int) {
	searchRequestsTotal.WithLabelValues(norm(outcome)).Inc()
	searchLatencyMs.WithLabelValues(strconv.FormatBool(outcome != "error")).
		Observe(float64(latencyMs))
	if kept > 0 {
		searchResultsKept.Add(float64(kept))
	}
}
