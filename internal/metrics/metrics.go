package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics

	JobPickupLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agenda",
		Name:      "job_pickup_latency_seconds",
		Help:      "Time from a job's scheduled run time to a worker starting it.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	JobExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agenda",
		Name:      "job_execution_duration_seconds",
		Help:      "Duration of a handler invocation, by outcome.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agenda",
		Name:      "worker_jobs_in_flight",
		Help:      "Number of jobs currently executing.",
	})

	JobsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agenda",
		Name:      "jobs_completed_total",
		Help:      "Total jobs finished, by outcome.",
	}, []string{"outcome"})

	// Monitor metrics

	StaleLocks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agenda",
		Name:      "stale_locks",
		Help:      "Documents currently holding a lease that expired before the last monitor tick.",
	})

	// Poller/dispatcher metrics

	ClaimedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agenda",
		Name:      "claimed_total",
		Help:      "Total documents claimed by this node's poller.",
	}, []string{"name"})

	BacklogCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agenda",
		Name:      "poller_backlog_cycles_total",
		Help:      "Poll cycles that found the in-flight budget saturated.",
	})

	// Engine lifecycle

	EngineStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agenda",
		Name:      "engine_start_time_seconds",
		Help:      "Unix timestamp when the engine started.",
	})

	EngineStopsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agenda",
		Name:      "engine_stops_total",
		Help:      "Number of times the engine has stopped.",
	})

	// HTTP metrics for the admin surface

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agenda",
		Name:      "http_request_duration_seconds",
		Help:      "Admin HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agenda",
		Name:      "http_requests_total",
		Help:      "Total admin HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		JobPickupLatency,
		JobExecutionDuration,
		JobsInFlight,
		JobsCompletedTotal,
		StaleLocks,
		ClaimedTotal,
		BacklogCycles,
		EngineStartTime,
		EngineStopsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
