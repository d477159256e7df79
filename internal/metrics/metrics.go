// Package metrics registers the Prometheus collectors shared across the
// three services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SensorConsensusOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ews_sensor_consensus_outcomes_total",
		Help: "Sensor-value consensus outcomes by method and validity.",
	}, []string{"method", "valid"})

	ScoreConsensusOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ews_score_consensus_outcomes_total",
		Help: "Score consensus outcomes by method and validity.",
	}, []string{"method", "valid"})

	ScoreEventsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ews_score_events_persisted_total",
		Help: "ScoreEvents appended to the event store.",
	})

	ReadModelUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ews_read_model_updates_total",
		Help: "PatientReadModel upserts applied by the projector.",
	})

	ReadModelIdempotentSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ews_read_model_idempotent_skips_total",
		Help: "ScoreConsensus re-applications skipped because consensusId was already projected.",
	})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ews_alerts_raised_total",
		Help: "Alerts raised by type and severity.",
	}, []string{"alert_type", "severity"})

	NotificationsByStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ews_notifications_total",
		Help: "Notifications by terminal status.",
	}, []string{"status", "channel"})

	BusPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ews_bus_publish_failures_total",
		Help: "Best-effort publish failures by routing key.",
	}, []string{"routing_key"})
)

// Handler returns the /metrics HTTP handler (explicitly out of the core per
// §1, but carried as ambient infrastructure).
func Handler() http.Handler {
	return promhttp.Handler()
}
