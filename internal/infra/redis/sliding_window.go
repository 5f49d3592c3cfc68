package redis

import (
	"context"
	"time"

	"telegram-channel-bot/internal/domain/ports/adapter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ adapter.FloodGuard = (*SlidingWindowLimiter)(nil)

// SlidingWindowLimiter is the shared-state variant of the anti-flood limiter.
// Each user owns a sorted set of message timestamps. Redis errors admit the
// message so the limiter never blocks traffic on its own failure.
type SlidingWindowLimiter struct {
	client   RedisClient
	limit    int
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

func NewSlidingWindowLimiter(client RedisClient, limit int, interval time.Duration, logger *zerolog.Logger) *SlidingWindowLimiter {
	if limit <= 0 {
		limit = 5
	}
	if interval <= 0 {
		interval = time.Minute
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "RedisFloodGuard").Logger()
	}
	return &SlidingWindowLimiter{
		client:   client,
		limit:    limit,
		interval: interval,
		timeout:  2 * time.Second,
		log:      l,
	}
}

func (s *SlidingWindowLimiter) Admit(userID int64, now time.Time) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	score := float64(now.UnixMicro())
	minScore := float64(now.Add(-s.interval).UnixMicro())

	n, err := s.client.SlideWindow(ctx, floodKey(userID), uuid.NewString(), score, minScore,
		int64(s.limit+1), 3*s.interval)
	if err != nil {
		s.log.Warn().Err(err).Int64("tg_id", userID).Msg("flood window unavailable, admitting")
		return true
	}
	return n <= int64(s.limit)
}
