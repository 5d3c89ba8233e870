package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProfileOperations tracks profile mutations by operation and outcome
	ProfileOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrain_profile_operations_total",
			Help: "Total number of alarm profile operations",
		},
		[]string{"operation", "outcome"},
	)

	// LogAppends tracks log append operations by log kind
	LogAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrain_log_appends_total",
			Help: "Total number of log entries appended",
		},
		[]string{"log"},
	)

	// LogEvictions tracks entries evicted by bounded rotation
	LogEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrain_log_evictions_total",
			Help: "Total number of log entries evicted by rotation",
		},
		[]string{"log"},
	)

	// DispatchJobsPublished tracks jobs handed to the push dispatcher
	DispatchJobsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrain_dispatch_jobs_published_total",
			Help: "Total number of dispatch jobs published to the broker",
		},
		[]string{"kind"},
	)

	// DeliveryOutcomes tracks outcome events applied to the notification log
	DeliveryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrain_delivery_outcomes_total",
			Help: "Total number of delivery outcome events processed",
		},
		[]string{"status"},
	)

	// TransactionConflicts tracks write conflicts surfaced to callers
	TransactionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindtrain_transaction_conflicts_total",
			Help: "Total number of transactions aborted by write conflicts",
		},
	)

	// RateLimitExceeded tracks rate limit violations per user
	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindtrain_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
	)

	// QueryDuration tracks sync-window query latency
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindtrain_query_duration_seconds",
			Help:    "Sync-window query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)
)
