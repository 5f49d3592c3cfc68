// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Messenger delivers posts to channels. Errors wrap domain.ErrPlatform;
// callers do not distinguish sub-kinds.
type Messenger interface {
	SendMessage(ctx context.Context, channelID string, text string) (messageID int, err error)
	GetChannelMemberCount(ctx context.Context, channelID string) (int, error)
}

// ChatNotifier replies to a user in a private chat.
type ChatNotifier interface {
	Notify(ctx context.Context, telegramID int64, text string) error
}
