package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores the Prometheus collectors used across the service.
type Metrics struct {
	SyncRuns      *prometheus.CounterVec
	SyncDuration  *prometheus.HistogramVec
	RecordsSynced *prometheus.CounterVec
	WebhookEvents *prometheus.CounterVec
	RemoteFetches *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with an optional
// namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Total reconciliation runs by mode and outcome.",
			}, []string{"mode", "status"}),
			SyncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration distribution of reconciliation runs.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"mode"}),
			RecordsSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_synced_total",
				Help:      "Mirrored records written by entity and outcome.",
			}, []string{"entity", "outcome"}),
			WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Inbound webhook events by topic and outcome.",
			}, []string{"topic", "status"}),
			RemoteFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_fetches_total",
				Help:      "Shopify Admin API fetches by resource and outcome.",
			}, []string{"resource", "status"}),
		}

		prometheus.MustRegister(
			metricsInstance.SyncRuns,
			metricsInstance.SyncDuration,
			metricsInstance.RecordsSynced,
			metricsInstance.WebhookEvents,
			metricsInstance.RemoteFetches,
		)
	})
	return metricsInstance
}
