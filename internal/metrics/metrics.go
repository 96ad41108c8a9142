package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeltasApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwatch_deltas_applied_total",
		Help: "Total number of accepted occupancy mutations, labelled by kind.",
	}, []string{"kind"})

	DeltasRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwatch_deltas_rejected_total",
		Help: "Total number of rejected occupancy mutations, labelled by reason.",
	}, []string{"reason"})

	StoreFaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_store_faults_total",
		Help: "Total number of store operations that failed outright.",
	})

	EventsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_activity_events_recorded_total",
		Help: "Total number of activity events appended to the log.",
	})

	EventRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_activity_record_failures_total",
		Help: "Total number of activity appends that failed after an accepted ledger write.",
	})

	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parkwatch_feed_subscribers",
		Help: "Current number of live activity feed subscribers.",
	})
)
