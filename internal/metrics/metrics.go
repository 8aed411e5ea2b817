package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filmscout",
		Name:      "updates_total",
		Help:      "Telegram updates handled by kind and outcome.",
	}, []string{"kind", "outcome"})

	UpdateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "filmscout",
		Name:      "update_duration_seconds",
		Help:      "Time spent handling one Telegram update.",
		Buckets:   []float64{0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"kind"})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filmscout",
		Name:      "provider_requests_total",
		Help:      "Outbound API requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "filmscout",
		Name:      "provider_request_duration_seconds",
		Help:      "Outbound API request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filmscout",
		Name:      "cache_lookups_total",
		Help:      "Metadata cache lookups by result.",
	}, []string{"result"})

	CacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filmscout",
		Name:      "cache_entries",
		Help:      "Entries currently held by the in-memory metadata cache.",
	})

	CandidatesReturned = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "filmscout",
		Name:      "candidates_returned",
		Help:      "Title candidates produced per analysis.",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	}, []string{"media"})

	SchedulerRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filmscout",
		Name:      "scheduler_runs_total",
		Help:      "Scheduled task executions by task and outcome.",
	}, []string{"task", "outcome"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filmscout",
		Name:      "http_requests_total",
		Help:      "Total HTTP API requests by method, path and status code.",
	}, []string{"method", "path", "status"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		UpdatesTotal,
		UpdateDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		CacheLookupsTotal,
		CacheEntries,
		CandidatesReturned,
		SchedulerRunsTotal,
		HTTPRequestsTotal,
	)
}

// Outcome maps an error to the outcome label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveProvider records one outbound request to provider.
func ObserveProvider(provider string, start time.Time, err error) {
	ProviderRequestsTotal.WithLabelValues(provider, Outcome(err)).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}
