// File: internal/infra/antiflood/limiter.go
package antiflood

import (
	"context"
	"sync"
	"time"

	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const (
	DefaultLimit    = 5
	DefaultInterval = 60 * time.Second
)

var _ adapter.FloodGuard = (*Limiter)(nil)

type Config struct {
	Limit         int
	Interval      time.Duration
	EvictAfter    time.Duration // idle time before a user's window is dropped; default 3*Interval
	SweepInterval time.Duration // period of Run; default Interval
}

// window holds the timestamps still inside the trailing interval, oldest first.
type window struct {
	mu      sync.Mutex
	stamp   []time.Time
	last    time.Time
	evicted bool // set by Sweep once the window is no longer in the map
}

// Limiter is a per-user sliding-window message throttle.
// A call is denied when more than Limit calls, the current one included,
// fall within the trailing Interval. Denied calls still occupy the window.
type Limiter struct {
	cfg Config
	log zerolog.Logger

	mu      sync.RWMutex
	windows map[int64]*window
}

func New(cfg Config, logger *zerolog.Logger) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.EvictAfter < cfg.Interval {
		cfg.EvictAfter = 3 * cfg.Interval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.Interval
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "AntiFlood").Logger()
	}
	return &Limiter{
		cfg:     cfg,
		log:     l,
		windows: make(map[int64]*window),
	}
}

// Admit records a message from userID at now and reports whether it may be processed.
func (l *Limiter) Admit(userID int64, now time.Time) bool {
	w := l.windowFor(userID)
	w.mu.Lock()
	for w.evicted {
		w.mu.Unlock()
		w = l.windowFor(userID)
		w.mu.Lock()
	}
	defer w.mu.Unlock()

	w.stamp = append(w.stamp, now)
	for i := len(w.stamp) - 1; i > 0 && w.stamp[i-1].After(w.stamp[i]); i-- {
		w.stamp[i-1], w.stamp[i] = w.stamp[i], w.stamp[i-1]
	}
	if now.After(w.last) {
		w.last = now
	}

	cutoff := now.Add(-l.cfg.Interval)
	drop := 0
	for drop < len(w.stamp) && w.stamp[drop].Before(cutoff) {
		drop++
	}
	// Only the newest Limit+1 entries can influence a decision.
	if keep := len(w.stamp) - drop; keep > l.cfg.Limit+1 {
		drop = len(w.stamp) - (l.cfg.Limit + 1)
	}
	if drop > 0 {
		w.stamp = append(w.stamp[:0], w.stamp[drop:]...)
	}

	return len(w.stamp) <= l.cfg.Limit
}

func (l *Limiter) windowFor(userID int64) *window {
	l.mu.RLock()
	w, ok := l.windows[userID]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.windows[userID]; ok {
		return w
	}
	w = &window{}
	l.windows[userID] = w
	return w
}

// Sweep drops the windows of users whose newest message is older than EvictAfter.
// It returns the number of evicted users.
func (l *Limiter) Sweep(now time.Time) int {
	cutoff := now.Add(-l.cfg.EvictAfter)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for id, w := range l.windows {
		w.mu.Lock()
		if w.last.Before(cutoff) {
			w.evicted = true
			delete(l.windows, id)
			evicted++
		}
		w.mu.Unlock()
	}
	metrics.SetRateLimitTrackedUsers(len(l.windows))
	return evicted
}

// Len returns the number of users currently tracked.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// Run sweeps idle windows until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	l.log.Info().
		Int("limit", l.cfg.Limit).
		Dur("interval", l.cfg.Interval).
		Dur("evict_after", l.cfg.EvictAfter).
		Msg("anti-flood sweeper started")

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("anti-flood sweeper stopped")
			return
		case now := <-ticker.C:
			if n := l.Sweep(now); n > 0 {
				l.log.Debug().Int("evicted", n).Int("tracked", l.Len()).Msg("evicted idle windows")
			}
		}
	}
}
