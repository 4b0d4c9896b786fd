package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checksTotal,
		checkLatencyMs,
		checksInflight,
		probeBreakerState,
	)
}

var (
	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "username_checks_total",
			Help: "Total username checks performed, labeled by verdict and source.",
		},
		[]string{"status", "source"}, // e.g., status="available", source="api"
	)

	checkLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "username_check_latency_ms",
			Help:    "Availability check latency distribution in milliseconds.",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000},
		},
		[]string{"source"},
	)

	checksInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "username_checks_inflight",
			Help: "Number of availability probes currently in flight.",
		},
	)

	probeBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "probe_breaker_state",
			Help: "Probe circuit breaker state: 0=closed, 1=half-open, 2=open.",
		},
	)
)

func IncCheck(status, source string) {
	checksTotal.WithLabelValues(norm(status), norm(source)).Inc()
}

func ObserveCheckLatency(source string, latencyMs float64) {
	checkLatencyMs.WithLabelValues(norm(source)).Observe(latencyMs)
}

func IncChecksInflight() { checksInflight.Inc() }

func DecChecksInflight() { checksInflight.Dec() }

func SetBreakerState(state int) {
	probeBreakerState.Set(float64(state))
}
