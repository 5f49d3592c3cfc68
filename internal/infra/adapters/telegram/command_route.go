package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/config"
	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/infra/logging"
	"telegram-channel-bot/internal/infra/metrics"
	"telegram-channel-bot/internal/usecase"
)

// Replier sends replies into private chats.
type Replier interface {
	adapter.ChatNotifier
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]Button) error
}

// Deps are the collaborators of the command router.
type Deps struct {
	Users   usecase.UserUseCase
	Subs    usecase.SubscriptionUseCase
	Reports usecase.ReportUseCase
	Content usecase.ContentProvider
	Guard   adapter.FloodGuard
	Tr      usecase.Translator
	Out     Replier
}

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// Router turns inbound updates into use case calls.
type Router struct {
	d           Deps
	adminIDsMap map[int64]struct{}
	miniAppURL  string
	now         func() time.Time
	log         *zerolog.Logger
}

func NewRouter(d Deps, cfg *config.BotConfig, logger *zerolog.Logger) *Router {
	adminMap := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	l := logger.With().Str("component", "TelegramRouter").Logger()
	return &Router{
		d:           d,
		adminIDsMap: adminMap,
		miniAppURL:  cfg.MiniAppURL,
		now:         time.Now,
		log:         &l,
	}
}

// commandRoutes defines all available bot commands and their handlers.
func (r *Router) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   r.handleStartCommand,
		"eco":     r.handleEcoCommand,
		"status":  r.handleStatusCommand,
		"report":  r.handleReportCommand,
		"miniapp": r.handleMiniAppCommand,

		"grant": r.adminOnly(r.handleGrantCommand),
	}
}

func (r *Router) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}

func (r *Router) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.isAdmin(message.From.ID) {
			r.log.Warn().Int64("tg_id", message.From.ID).Str("command", message.Command()).Msg("unauthorized admin command")
			return r.reply(ctx, message, "admin_unauthorized")
		}
		return next(ctx, message)
	}
}

// HandleUpdate applies the flood guard to every message before any command runs.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, message.From.ID)

	if !r.d.Guard.Admit(message.From.ID, r.now()) {
		metrics.IncRateLimitTriggered()
		return r.reply(ctx, message, "flood_notice")
	}
	if !message.IsCommand() {
		return nil
	}

	cmd := strings.ToLower(message.Command())
	handler, ok := r.commandRoutes()[cmd]
	if !ok {
		metrics.IncTelegramCommand("unknown")
		return r.reply(ctx, message, "unknown_command")
	}
	metrics.IncTelegramCommand("/" + cmd)
	return handler(ctx, message)
}

func (r *Router) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	user, created, err := r.d.Users.RegisterOrFetch(ctx, message.From.ID, message.From.LanguageCode)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("register user failed")
		return r.reply(ctx, message, "generic_error")
	}
	if created {
		return r.reply(ctx, message, "start_welcome", user.DailyLimit)
	}
	return r.reply(ctx, message, "start_back")
}

// handleEcoCommand replies with generated content. A daily action is spent
// only when the generator produced the text; the fallback is free.
func (r *Router) handleEcoCommand(ctx context.Context, message *tgbotapi.Message) error {
	user, _, err := r.d.Users.RegisterOrFetch(ctx, message.From.ID, message.From.LanguageCode)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("load user failed")
		return r.reply(ctx, message, "generic_error")
	}
	st, err := r.d.Subs.Status(ctx, message.From.ID, r.now())
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("status failed")
		return r.reply(ctx, message, "generic_error")
	}
	if st.Remaining == 0 {
		return r.reply(ctx, message, "daily_limit_reached")
	}

	text, generated := r.d.Content.TryGenerate(ctx, "Eco", "Sustainability", r.lang(message))
	if generated {
		if _, err := r.d.Subs.ConsumeDailyAction(ctx, user, r.now()); err != nil {
			if errors.Is(err, domain.ErrDailyLimitReached) {
				return r.reply(ctx, message, "daily_limit_reached")
			}
			logging.With(ctx, r.log).Error().Err(err).Msg("consume daily action failed")
			return r.reply(ctx, message, "generic_error")
		}
	}
	return r.d.Out.Notify(ctx, chatID(message), text)
}

func (r *Router) handleStatusCommand(ctx context.Context, message *tgbotapi.Message) error {
	if _, _, err := r.d.Users.RegisterOrFetch(ctx, message.From.ID, message.From.LanguageCode); err != nil {
		return r.reply(ctx, message, "generic_error")
	}
	st, err := r.d.Subs.Status(ctx, message.From.ID, r.now())
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("status failed")
		return r.reply(ctx, message, "generic_error")
	}
	if st.Premium && st.PremiumUntil != nil {
		plan := string(st.Plan)
		if !st.Plan.IsPaid() {
			plan = "premium" // granted by days, no plan row
		}
		return r.reply(ctx, message, "status_premium", plan, st.PremiumUntil.Format("2006-01-02"))
	}
	return r.reply(ctx, message, "status_free", st.Remaining)
}

func (r *Router) handleReportCommand(ctx context.Context, message *tgbotapi.Message) error {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		return r.reply(ctx, message, "report_usage")
	}
	if _, _, err := r.d.Users.RegisterOrFetch(ctx, message.From.ID, message.From.LanguageCode); err != nil {
		return r.reply(ctx, message, "generic_error")
	}
	if _, err := r.d.Reports.Submit(ctx, message.From.ID, text, ""); err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("submit report failed")
		return r.reply(ctx, message, "generic_error")
	}
	return r.reply(ctx, message, "report_saved")
}

func (r *Router) handleMiniAppCommand(ctx context.Context, message *tgbotapi.Message) error {
	if r.miniAppURL == "" {
		logging.With(ctx, r.log).Warn().Msg("miniapp requested but bot.miniapp_url is not set")
		return r.reply(ctx, message, "generic_error")
	}
	lang := r.lang(message)
	prompt := r.d.Tr.T(lang, "miniapp_prompt")
	rows := [][]Button{{{Text: r.d.Tr.T(lang, "miniapp_button"), URL: r.miniAppURL}}}
	return r.d.Out.SendButtons(ctx, chatID(message), prompt, rows)
}

// handleGrantCommand handles "/grant <telegram_id> <days|plan>".
// A plan name records the subscription row as well as extending premium.
func (r *Router) handleGrantCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		return r.reply(ctx, message, "grant_usage")
	}
	tgID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return r.reply(ctx, message, "grant_usage")
	}

	var (
		user  *model.User
		label = args[1]
	)
	if days, convErr := strconv.Atoi(args[1]); convErr == nil {
		if days <= 0 {
			return r.reply(ctx, message, "grant_usage")
		}
		user, err = r.d.Subs.GrantPremiumByTelegramID(ctx, tgID, days, r.now())
	} else {
		plan, parseErr := model.ParsePlan(args[1])
		if parseErr != nil || !plan.IsPaid() {
			return r.reply(ctx, message, "grant_usage")
		}
		label = string(plan)
		_, user, err = r.d.Subs.ActivatePlanByTelegramID(ctx, tgID, plan, r.now())
	}
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Int64("target_tg_id", tgID).Msg("grant premium failed")
		return r.reply(ctx, message, "generic_error")
	}
	r.log.Info().Int64("admin_tg_id", message.From.ID).Int64("target_tg_id", tgID).Str("grant", label).Msg("premium granted by admin")
	return r.reply(ctx, message, "grant_done", tgID, premiumDate(user))
}

func (r *Router) reply(ctx context.Context, message *tgbotapi.Message, key string, args ...interface{}) error {
	return r.d.Out.Notify(ctx, chatID(message), r.d.Tr.T(r.lang(message), key, args...))
}

// lang is empty for clients that send no language code; the bundle falls back then.
func (r *Router) lang(message *tgbotapi.Message) string {
	return message.From.LanguageCode
}

func chatID(message *tgbotapi.Message) int64 {
	if message.Chat != nil && message.Chat.ID != 0 {
		return message.Chat.ID
	}
	return message.From.ID
}

func premiumDate(u *model.User) string {
	if u == nil || u.PremiumUntil == nil {
		return "-"
	}
	return u.PremiumUntil.Format("2006-01-02")
}
