package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksClaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidmore_worker_tasks_claimed_total",
			Help: "Tasks claimed from the queue.",
		},
		[]string{"action"},
	)

	TasksRequeued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidmore_worker_tasks_requeued_total",
			Help: "Tasks returned to the queue by the lease sweep.",
		},
	)

	TaskOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidmore_worker_task_outcomes_total",
			Help: "Terminal task outcomes by status.",
		},
		[]string{"status"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidmore_worker_fetch_duration_seconds",
			Help:    "Wall time of video fetches.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)
