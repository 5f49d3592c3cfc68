package telegram

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/domain/ports/adapter"
)

var (
	_ adapter.Messenger    = (*NoopMessenger)(nil)
	_ adapter.ChatNotifier = (*NoopMessenger)(nil)
	_ Replier              = (*NoopMessenger)(nil)
)

// NoopMessenger logs outbound messages instead of calling Telegram.
// Used in dev mode when no bot token is configured.
type NoopMessenger struct {
	nextID int64
	log    *zerolog.Logger
}

func NewNoopMessenger(logger *zerolog.Logger) *NoopMessenger {
	l := logger.With().Str("component", "NoopTelegram").Logger()
	return &NoopMessenger{log: &l}
}

func (n *NoopMessenger) SendMessage(ctx context.Context, channelID string, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := atomic.AddInt64(&n.nextID, 1)
	n.log.Info().Str("channel_id", channelID).Int64("message_id", id).Str("text", text).Msg("noop send")
	return int(id), nil
}

func (n *NoopMessenger) GetChannelMemberCount(ctx context.Context, channelID string) (int, error) {
	return 0, ctx.Err()
}

func (n *NoopMessenger) Notify(ctx context.Context, tgID int64, text string) error {
	n.log.Info().Int64("tg_id", tgID).Str("text", text).Msg("noop notify")
	return ctx.Err()
}

func (n *NoopMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]Button) error {
	n.log.Info().Int64("tg_id", chatID).Str("text", text).Int("rows", len(rows)).Msg("noop buttons")
	return ctx.Err()
}
