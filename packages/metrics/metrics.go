// Package metrics
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serptrack_api_requests_total",
			Help: "Total number of requests sent to the SERP provider, labeled by status code.",
		},
		[]string{"status_code"},
	)
	Tasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serptrack_tasks_total",
			Help: "Total number of completed (keyword, page) tasks, labeled by outcome.",
		},
		[]string{"outcome"},
	)
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serptrack_fetch_duration_seconds",
			Help:    "Duration of individual SERP fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	RunSuccessRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "serptrack_run_success_rate",
			Help: "Success rate of the most recent tracking run (0..1).",
		},
	)
	RunsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "serptrack_runs_total",
			Help: "Total number of tracking runs completed.",
		},
	)
)

func init() {
	prometheus.MustRegister(APIRequests)
	prometheus.MustRegister(Tasks)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(RunSuccessRate)
	prometheus.MustRegister(RunsCompleted)
}

func ExposeMetrics(addr string) {
	slog.Info("Exposing Prometheus metrics", "address", addr)
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("Failed to start Prometheus metrics server", "error", err)
	}
}
