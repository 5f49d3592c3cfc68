package telegram

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/usecase"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fakeAPI records every Chattable sent.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	raw      []rawRequest
	counts   []tgbotapi.ChatMemberCountConfig

	sendErr  error
	countErr error
	members  int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type rawRequest struct {
	endpoint string
	params   tgbotapi.Params
}

func (f *fakeAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = append(f.raw, rawRequest{endpoint: endpoint, params: params})
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMembersCount(cfg tgbotapi.ChatMemberCountConfig) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, cfg)
	return f.members, f.countErr
}

// fakeReplier captures replies by chat.
type fakeReplier struct {
	mu      sync.Mutex
	texts   []string
	buttons [][][]Button
}

func (f *fakeReplier) Notify(ctx context.Context, tgID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeReplier) SendButtons(ctx context.Context, chatID int64, text string, rows [][]Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.buttons = append(f.buttons, rows)
	return nil
}

func (f *fakeReplier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type guardFunc func(int64, time.Time) bool

func (g guardFunc) Admit(id int64, now time.Time) bool { return g(id, now) }

func allowAll() guardFunc { return func(int64, time.Time) bool { return true } }

// ---- use case fakes ----

type fakeUsers struct {
	users map[int64]*model.User
	err   error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[int64]*model.User{}} }

func (f *fakeUsers) RegisterOrFetch(ctx context.Context, tgID int64, lang string) (*model.User, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if u, ok := f.users[tgID]; ok {
		return u, false, nil
	}
	u, err := model.NewUser("", tgID, lang, 5)
	if err != nil {
		return nil, false, err
	}
	f.users[tgID] = u
	return u, true, nil
}

func (f *fakeUsers) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	if u, ok := f.users[tgID]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) Count(ctx context.Context) (int, error) { return len(f.users), nil }

type fakeSubs struct {
	consumeErr error
	consumed   int
	status     *usecase.SubscriptionStatus
	granted    map[int64]int
	plans      map[int64]*usecase.SubscriptionStatus
}

func (f *fakeSubs) GrantPremium(ctx context.Context, userID string, days int, now time.Time) (*model.User, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeSubs) GrantPremiumByTelegramID(ctx context.Context, tgID int64, days int, now time.Time) (*model.User, error) {
	if f.granted == nil {
		f.granted = map[int64]int{}
	}
	f.granted[tgID] += days
	until := now.Add(time.Duration(days) * 24 * time.Hour)
	return &model.User{TelegramID: tgID, PremiumUntil: &until}, nil
}

func (f *fakeSubs) ActivatePlan(ctx context.Context, userID string, plan model.Plan, now time.Time) (*model.Subscription, error) {
	return nil, nil
}

func (f *fakeSubs) ActivatePlanByTelegramID(ctx context.Context, tgID int64, plan model.Plan, now time.Time) (*model.Subscription, *model.User, error) {
	if f.plans == nil {
		f.plans = map[int64]*usecase.SubscriptionStatus{}
	}
	until := now.Add(plan.Duration())
	u := &model.User{TelegramID: tgID, PremiumUntil: &until}
	f.plans[tgID] = &usecase.SubscriptionStatus{User: u, Plan: plan, Premium: true, PremiumUntil: &until, Remaining: usecase.Unlimited}
	return &model.Subscription{Plan: plan, ExpiresAt: &until}, u, nil
}

func (f *fakeSubs) ConsumeDailyAction(ctx context.Context, u *model.User, now time.Time) (int, error) {
	if f.consumeErr != nil {
		return 0, f.consumeErr
	}
	f.consumed++
	return 5 - f.consumed, nil
}

// Status reports the configured status, or a free tier derived from consume calls.
func (f *fakeSubs) Status(ctx context.Context, tgID int64, now time.Time) (*usecase.SubscriptionStatus, error) {
	if st, ok := f.plans[tgID]; ok {
		return st, nil
	}
	if f.status != nil {
		return f.status, nil
	}
	remaining := 5 - f.consumed
	if errors.Is(f.consumeErr, domain.ErrDailyLimitReached) {
		remaining = 0
	}
	return &usecase.SubscriptionStatus{Plan: model.PlanFree, Remaining: remaining}, nil
}

type fakeReports struct {
	texts []string
}

func (f *fakeReports) Submit(ctx context.Context, tgID int64, text, category string) (*model.ProblemReport, error) {
	f.texts = append(f.texts, text)
	return model.NewProblemReport("u", text, category)
}

func (f *fakeReports) ListByTelegramID(ctx context.Context, tgID int64, limit int) ([]*model.ProblemReport, error) {
	return nil, nil
}

type fakeContent struct {
	calls []string
	fail  bool // answer with the fallback
}

func (f *fakeContent) Generate(ctx context.Context, category, subcategory, lang string) string {
	text, _ := f.TryGenerate(ctx, category, subcategory, lang)
	return text
}

func (f *fakeContent) TryGenerate(ctx context.Context, category, subcategory, lang string) (string, bool) {
	f.calls = append(f.calls, category+"/"+subcategory)
	if f.fail {
		return "Kontent yaratishda xato.", false
	}
	return "content for " + category, true
}

func (f *fakeContent) ForCategory(ctx context.Context, categoryID int64, lang string) string {
	return "content"
}

// ---- update builders ----

func commandUpdate(tgID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: tgID, LanguageCode: "uz"},
			Chat:      &tgbotapi.Chat{ID: tgID, Type: "private"},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
		},
	}
}

func textUpdate(tgID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: tgID, LanguageCode: "uz"},
			Chat: &tgbotapi.Chat{ID: tgID, Type: "private"},
			Text: text,
		},
	}
}
