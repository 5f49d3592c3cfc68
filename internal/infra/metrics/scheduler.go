package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		postsDispatchedTotal,
		schedulerTickDuration,
	)
}

var (
	postsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_dispatched_total",
			Help: "Due posts processed by the scheduler, labeled by outcome.",
		},
		[]string{"status"}, // 'sent', 'failed', 'aborted'
	)

	schedulerTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Wall time of one scheduler tick.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

func IncPostDispatched(status string) {
	postsDispatchedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveSchedulerTick(d time.Duration) {
	schedulerTickDuration.Observe(d.Seconds())
}
