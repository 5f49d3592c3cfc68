package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// UpdateHandler processes a single update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Dispatcher fans updates out to a fixed pool of workers. Polling and the
// webhook both feed it.
type Dispatcher struct {
	handler UpdateHandler
	workers int
	queue   chan tgbotapi.Update

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	log    *zerolog.Logger
}

func NewDispatcher(handler UpdateHandler, workers int, logger *zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 5
	}
	l := logger.With().Str("component", "UpdateDispatcher").Logger()
	return &Dispatcher{
		handler: handler,
		workers: workers,
		queue:   make(chan tgbotapi.Update, workers*16),
		log:     &l,
	}
}

// Start launches the workers. Handlers get ctx's values but not its
// cancellation, so updates still queued at shutdown are handled by Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			for up := range d.queue {
				if err := d.handler.HandleUpdate(ctx, up); err != nil {
					d.log.Warn().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update handling failed")
				}
			}
		}(i)
	}
}

// Submit queues an update, blocking while the queue is full. It reports false
// once the dispatcher is stopped or ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, up tgbotapi.Update) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- up:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop rejects new updates, then waits for queued ones to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}
