package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/usecase"
)

// StatsWorker periodically refreshes the user and subscription gauges.
type StatsWorker struct {
	interval time.Duration
	stats    usecase.StatsUseCase
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, stats usecase.StatsUseCase, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	statsLog := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		stats:    stats,
		log:      &statsLog,
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	st, err := w.stats.Totals(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("stats refresh failed")
		return
	}
	w.log.Debug().Int("users", st.Users).Msg("stats refreshed")
}
