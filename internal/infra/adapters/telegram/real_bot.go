package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/infra/metrics"
)

// BotAPI is the subset of *tgbotapi.BotAPI the adapters call.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetChatMembersCount(config tgbotapi.ChatMemberCountConfig) (int, error)
}

// UpdateSource is the long-polling side of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// PollTimeout is the client timeout for a BotAPI used for long polling.
const PollTimeout = 75 * time.Second

// NewBotAPI connects to Telegram. timeout bounds every HTTP round trip, so
// sending and long polling use separate instances.
func NewBotAPI(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: bot token is empty", domain.ErrConfiguration)
	}
	client := &http.Client{Timeout: timeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("%w: connect bot: %v", domain.ErrPlatform, err)
	}
	return bot, nil
}

// Button is an inline keyboard button. URL wins over Data.
type Button struct {
	Text string
	URL  string
	Data string
}

var (
	_ adapter.Messenger    = (*RealMessenger)(nil)
	_ adapter.ChatNotifier = (*RealMessenger)(nil)
)

// RealMessenger sends through the Bot API, paced by a shared token bucket.
type RealMessenger struct {
	api     BotAPI
	limiter *rate.Limiter
	log     *zerolog.Logger
}

func NewRealMessenger(api BotAPI, perSecond float64, burst int, logger *zerolog.Logger) *RealMessenger {
	if perSecond <= 0 {
		perSecond = 25
	}
	if burst <= 0 {
		burst = 1
	}
	l := logger.With().Str("component", "TelegramMessenger").Logger()
	return &RealMessenger{api: api, limiter: rate.NewLimiter(rate.Limit(perSecond), burst), log: &l}
}

// SendMessage posts text to a channel given as a numeric chat id or @username.
func (m *RealMessenger) SendMessage(ctx context.Context, channelID string, text string) (int, error) {
	chatID, username, err := parseChannel(channelID)
	if err != nil {
		return 0, err
	}
	var msg tgbotapi.MessageConfig
	if username != "" {
		msg = tgbotapi.NewMessageToChannel(username, text)
	} else {
		msg = tgbotapi.NewMessage(chatID, text)
	}
	sent, err := m.send(ctx, "sendMessage", msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (m *RealMessenger) GetChannelMemberCount(ctx context.Context, channelID string) (int, error) {
	chatID, username, err := parseChannel(channelID)
	if err != nil {
		return 0, err
	}
	if err := m.wait(ctx); err != nil {
		return 0, err
	}
	cfg := tgbotapi.ChatMemberCountConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID, SuperGroupUsername: username}}
	n, err := m.api.GetChatMembersCount(cfg)
	metrics.IncTelegramSend("getChatMemberCount", err == nil)
	if err != nil {
		return 0, fmt.Errorf("%w: member count %s: %v", domain.ErrPlatform, channelID, err)
	}
	return n, nil
}

// Notify replies to a user in the private chat.
func (m *RealMessenger) Notify(ctx context.Context, tgID int64, text string) error {
	_, err := m.send(ctx, "sendMessage", tgbotapi.NewMessage(tgID, text))
	return err
}

// SendButtons sends a message with inline buttons.
func (m *RealMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]Button) error {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if len(kbRows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	}
	_, err := m.send(ctx, "sendMessage", msg)
	return err
}

func (m *RealMessenger) send(ctx context.Context, method string, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := m.wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	sent, err := m.api.Send(c)
	metrics.IncTelegramSend(method, err == nil)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("%w: %s: %v", domain.ErrPlatform, method, err)
	}
	return sent, nil
}

func (m *RealMessenger) wait(ctx context.Context) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: send pacing: %v", domain.ErrPlatform, err)
	}
	return nil
}

// parseChannel splits a channel reference into a numeric chat id or an @username.
func parseChannel(channelID string) (int64, string, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return 0, "", fmt.Errorf("%w: empty channel id", domain.ErrConfiguration)
	}
	if strings.HasPrefix(channelID, "@") {
		return 0, channelID, nil
	}
	id, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: channel id %q is neither numeric nor @username", domain.ErrConfiguration, channelID)
	}
	return id, "", nil
}
