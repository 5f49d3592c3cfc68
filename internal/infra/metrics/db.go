package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolStats, dbAcquireTotal) }

var (
	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Current state of the database connection pool.",
		},
		[]string{"state"}, // 'total', 'idle', 'in_use'
	)

	dbAcquireTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_acquire_count",
			Help: "Cumulative successful connection acquires reported by the pool.",
		},
	)
)

func SetDBPoolStats(total, idle, inUse int32, acquired int64) {
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	dbAcquireTotal.Set(float64(acquired))
}
