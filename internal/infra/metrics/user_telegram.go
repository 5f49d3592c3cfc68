package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		usersRegisteredTotal,
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
		rateLimitTrackedUsers,
		telegramSendTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	rateLimitTrackedUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limit_tracked_users",
			Help: "Users currently holding a sliding window in memory.",
		},
	)

	telegramSendTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_send_total",
			Help: "Outbound Telegram API calls by method and result.",
		},
		[]string{"method", "result"},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func SetRateLimitTrackedUsers(n int) {
	rateLimitTrackedUsers.Set(float64(n))
}

func IncTelegramSend(method string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	telegramSendTotal.WithLabelValues(norm(method), result).Inc()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
