package metrics

import (
	"telegram-channel-bot/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		premiumGrantedTotal,
		dailyLimitReachedTotal,
		subscriptionsTotal,
	)
}

var (
	premiumGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_granted_total",
			Help: "Premium grants by plan.",
		},
		[]string{"plan"},
	)

	dailyLimitReachedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "daily_limit_reached_total",
			Help: "Actions refused because the free daily quota is used up.",
		},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of active subscriptions by plan.",
		},
		[]string{"plan"},
	)
)

func IncPremiumGranted(plan string) {
	premiumGrantedTotal.WithLabelValues(norm(plan)).Inc()
}

func IncDailyLimitReached() {
	dailyLimitReachedTotal.Inc()
}

func SetSubscriptionsTotal(counts map[model.Plan]int) {
	for _, p := range []model.Plan{model.PlanFree, model.PlanWeekly, model.PlanMonthly, model.PlanYearly} {
		subscriptionsTotal.WithLabelValues(string(p)).Set(float64(counts[p]))
	}
}
