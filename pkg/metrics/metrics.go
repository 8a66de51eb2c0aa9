package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_ingested_total",
			Help: "Inbound messages handled during ingestion, by outcome",
		},
		[]string{"outcome"}, // stored, duplicate, failed
	)

	TasksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Tasks generated from messages, by priority",
		},
		[]string{"priority"},
	)

	ClassificationsDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classifications_degraded_total",
			Help: "Classifications that fell back to the silent tier because the agent response was unusable",
		},
	)

	AgentCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_call_latency_ms",
			Help:    "Agent service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of one per-user ingestion run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"trigger"}, // periodic, manual
	)

	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Database queries slower than the configured threshold",
		},
	)
)

func IncrementMessageIngested(outcome string) {
	MessagesIngested.WithLabelValues(outcome).Inc()
}

func IncrementTaskCreated(priority string) {
	TasksCreated.WithLabelValues(priority).Inc()
}

func RecordAgentCallLatency(status string, duration time.Duration) {
	AgentCallLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func RecordSyncRunDuration(trigger string, duration time.Duration) {
	SyncRunDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}
