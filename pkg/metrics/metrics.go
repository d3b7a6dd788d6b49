package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Job metrics
	JobsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_jobs_started_total",
			Help: "Total number of deployment jobs started by action",
		},
		[]string{"action"},
	)

	JobsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_jobs_finished_total",
			Help: "Total number of deployment jobs finished by terminal status",
		},
		[]string{"status"},
	)

	JobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deckhand_job_duration_seconds",
			Help:    "Deployment job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Hub metrics
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "deckhand_connections_active",
			Help: "Number of currently connected viewers",
		},
	)

	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_broadcasts_total",
			Help: "Total number of events broadcast to viewers by event type",
		},
		[]string{"event"},
	)

	PublishErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_publish_errors_total",
			Help: "Total number of skipped publish ticks by loop",
		},
		[]string{"loop"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(JobsStarted)
	prometheus.MustRegister(JobsCompleted)
	prometheus.MustRegister(JobDuration)
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(BroadcastsTotal)
	prometheus.MustRegister(PublishErrors)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
