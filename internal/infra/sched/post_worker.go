package sched

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	red "telegram-channel-bot/internal/infra/redis"
	"telegram-channel-bot/internal/usecase"
)

const (
	dispatchLockKey = "lock:post_dispatch"
	minLockTTL      = 3 * time.Second
)

// DueDispatcher runs one dispatch pass.
type DueDispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (usecase.TickReport, error)
}

// PostWorker runs DispatchDue on a single ticker. With a Locker, only the
// instance holding the tick lock dispatches.
type PostWorker struct {
	interval time.Duration
	uc       DueDispatcher
	locker   red.Locker
	lockTTL  time.Duration // refreshed at a third while a tick runs
	now      func() time.Time
	log      *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPostWorker builds the worker. locker may be nil for a single instance.
// If interval <= 0 it defaults to 1 minute.
func NewPostWorker(interval time.Duration, uc DueDispatcher, locker red.Locker, logger *zerolog.Logger) *PostWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	ttl := interval
	if ttl < minLockTTL {
		ttl = minLockTTL
	}
	l := logger.With().Str("component", "PostWorker").Logger()
	return &PostWorker{
		interval: interval,
		uc:       uc,
		locker:   locker,
		lockTTL:  ttl,
		now:      time.Now,
		log:      &l,
	}
}

// Start begins the loop in a background goroutine. Calling Start twice has no effect.
func (w *PostWorker) Start(parent context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
}

func (w *PostWorker) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	w.log.Info().Dur("interval", w.interval).Msg("post worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("post worker stopping")
			return
		case <-ticker.C:
			// A fire buffered during the previous tick must not start a new one after Stop.
			if ctx.Err() != nil {
				w.log.Info().Msg("post worker stopping")
				return
			}
			// An in-flight tick is not cut short by Stop; per-call timeouts bound it.
			w.tick(context.WithoutCancel(ctx))
		}
	}
}

func (w *PostWorker) tick(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, dispatchLockKey, w.lockTTL)
		if errors.Is(err, red.ErrLockHeld) {
			w.log.Debug().Msg("another instance holds the dispatch lock")
			return
		}
		if err != nil {
			w.log.Warn().Err(err).Msg("dispatch lock unavailable, skipping tick")
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		kept := make(chan struct{})
		go func() {
			defer close(kept)
			w.keepLock(ctx, token, cancel)
		}()
		defer func() {
			cancel()
			<-kept
			if err := w.locker.Unlock(context.WithoutCancel(ctx), dispatchLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("release dispatch lock failed")
			}
		}()
	}

	rep, err := w.uc.DispatchDue(ctx, w.now())
	if err != nil {
		w.log.Error().Err(err).Msg("dispatch tick failed")
		return
	}
	if rep.Failed > 0 || rep.Aborted > 0 {
		w.log.Warn().Int("failed", rep.Failed).Int("aborted", rep.Aborted).Msg("dispatch tick had failures")
	}
}

// keepLock extends the dispatch lock at a third of its TTL until ctx is done.
// It cancels the tick once ownership is lost, so no post is sent without the lock.
func (w *PostWorker) keepLock(ctx context.Context, token string, lost context.CancelFunc) {
	ttl := w.lockTTL
	t := time.NewTicker(ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ok, err := w.locker.Refresh(ctx, dispatchLockKey, token, ttl)
			if ctx.Err() != nil {
				return
			}
			if err != nil || !ok {
				w.log.Error().Err(err).Bool("owned", ok).Msg("dispatch lock lost, aborting tick")
				lost()
				return
			}
		}
	}
}

// Stop cancels the loop and waits for an in-flight tick to finish. It is idempotent.
func (w *PostWorker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.log.Info().Msg("post worker stopped")
}
