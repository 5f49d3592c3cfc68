package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiCallsLatencyMs,
		contentGenerationTotal,
	)
}

var (
	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 15000},
		},
		[]string{"provider", "model", "success"},
	)

	contentGenerationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_generation_total",
			Help: "Content requests by outcome (generated/fallback).",
		},
		[]string{"result"},
	)
)

func ObserveAICall(provider, model string, latencyMs int64, success bool) {
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncContentGeneration(result string) {
	contentGenerationTotal.WithLabelValues(norm(result)).Inc()
}
