// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal tracks finished retry-wrapped operations by outcome (success, failure)
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_operations_total",
			Help: "Total number of remote operations completed by the retry executor",
		},
		[]string{"operation", "outcome"},
	)

	// AttemptFailuresTotal tracks failed attempts per operation and failure kind
	AttemptFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_attempt_failures_total",
			Help: "Total number of failed attempts, labelled by failure kind",
		},
		[]string{"operation", "kind"},
	)

	// RetriesTotal tracks scheduled retries
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_retries_total",
			Help: "Total number of retries scheduled after a transient failure",
		},
		[]string{"operation"},
	)

	// RetryBackoffSeconds tracks the backoff inserted before each retry
	RetryBackoffSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusconnect_retry_backoff_seconds",
			Help:    "Backoff delay before a retry in seconds",
			Buckets: []float64{0.5, 1, 2, 4, 8, 10},
		},
		[]string{"operation"},
	)

	// DeadlineTimeoutsTotal tracks operations abandoned by WithDeadline
	DeadlineTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_deadline_timeouts_total",
			Help: "Total number of operations that exceeded their deadline",
		},
		[]string{"operation"},
	)

	// CacheRequestsTotal tracks local cache lookups (hit, miss, bypass, error)
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_cache_requests_total",
			Help: "Total number of local cache lookups",
		},
		[]string{"result"},
	)

	// NotificationsPrunedTotal tracks notifications deleted by the pruner
	NotificationsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusconnect_notifications_pruned_total",
			Help: "Total number of read notifications removed by retention",
		},
	)

	// DBConnectionPoolUsage tracks the percentage of used connections
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campusconnect_db_connection_pool_usage_percent",
			Help: "Percentage of database connection pool in use",
		},
	)

	// PushOutboxPending tracks queued push notifications awaiting delivery
	PushOutboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campusconnect_push_outbox_pending",
			Help: "Number of push notifications waiting in the outbox stream",
		},
	)
)
