package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Poll feeds long-polled updates into d until ctx is done.
func Poll(ctx context.Context, src UpdateSource, d *Dispatcher) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := src.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			src.StopReceivingUpdates()
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if !d.Submit(ctx, up) {
				src.StopReceivingUpdates()
				return nil
			}
		}
	}
}
