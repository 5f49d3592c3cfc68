//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/domain/ports/repository"
	"telegram-channel-bot/internal/infra/i18n"
)

var errBoom = errors.New("boom")

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Bundle { return i18n.MustDefault() }

// =============================
// Adapters
// =============================

// MockMessenger records every delivery attempt in order.
type MockMessenger struct {
	mu       sync.Mutex
	Sent     []string // channel:text
	Attempts []string // channel ids in attempt order

	SendMessageFunc           func(ctx context.Context, channelID, text string) (int, error)
	GetChannelMemberCountFunc func(ctx context.Context, channelID string) (int, error)
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) SendMessage(ctx context.Context, channelID, text string) (int, error) {
	m.mu.Lock()
	m.Attempts = append(m.Attempts, channelID)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, channelID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, channelID+":"+text)
	return len(m.Sent), nil
}

func (m *MockMessenger) GetChannelMemberCount(ctx context.Context, channelID string) (int, error) {
	if m.GetChannelMemberCountFunc != nil {
		return m.GetChannelMemberCountFunc(ctx, channelID)
	}
	return 100, nil
}

type MockGenerator struct {
	mu      sync.Mutex
	Prompts []string

	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

var _ adapter.TextGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "generated: " + prompt, nil
}

// =============================
// Repositories
// =============================

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	SaveFunc     func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
}

func NewMockUserRepo() *MockUserRepo { return &MockUserRepo{users: map[string]*model.User{}} }

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TelegramID == tgID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

type MockSubscriptionRepo struct {
	mu     sync.Mutex
	byUser map[string]*model.Subscription

	UpsertFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{byUser: map[string]*model.Subscription{}}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.byUser[s.UserID]; ok {
		s.ID = prev.ID
	}
	cp := *s
	m.byUser[s.UserID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byUser[userID]
	if !ok || !s.IsActive(time.Now()) {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[model.Plan]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.Plan]int{}
	for _, s := range m.byUser {
		out[s.Plan]++
	}
	return out, nil
}

type MockPostRepo struct {
	mu      sync.Mutex
	posts   map[string]*model.Post
	Saved   []model.Post // snapshots of every Save
	Deleted []string

	ListDueFunc func(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Post, error)
	SaveFunc    func(ctx context.Context, tx repository.Tx, p *model.Post) error
	DeleteFunc  func(ctx context.Context, tx repository.Tx, id string) error
}

func NewMockPostRepo(ps ...*model.Post) *MockPostRepo {
	m := &MockPostRepo{posts: map[string]*model.Post{}}
	for _, p := range ps {
		cp := *p
		m.posts[p.ID] = &cp
	}
	return m
}

var _ repository.PostRepository = (*MockPostRepo)(nil)

func (m *MockPostRepo) Save(ctx context.Context, tx repository.Tx, p *model.Post) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.posts[p.ID] = &cp
	m.Saved = append(m.Saved, cp)
	return nil
}

func (m *MockPostRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListDue returns due posts in map order; the dispatcher must sort them itself.
func (m *MockPostRepo) ListDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Post, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, tx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Post
	for _, p := range m.posts {
		if p.IsDue(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPostRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(ctx, tx, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.posts, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockPostRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

type MockCategoryRepo struct {
	cats map[int64]*model.Category

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id int64) (*model.Category, error)
}

func NewMockCategoryRepo(cs ...*model.Category) *MockCategoryRepo {
	m := &MockCategoryRepo{cats: map[int64]*model.Category{}}
	for _, c := range cs {
		m.cats[c.ID] = c
	}
	return m
}

var _ repository.CategoryRepository = (*MockCategoryRepo)(nil)

func (m *MockCategoryRepo) Save(ctx context.Context, tx repository.Tx, c *model.Category) error {
	if c.ID == 0 {
		c.ID = int64(len(m.cats) + 1)
	}
	m.cats[c.ID] = c
	return nil
}

func (m *MockCategoryRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Category, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	c, ok := m.cats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *MockCategoryRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Category, error) {
	out := make([]*model.Category, 0, len(m.cats))
	for _, c := range m.cats {
		out = append(out, c)
	}
	return out, nil
}

type MockReportRepo struct {
	mu      sync.Mutex
	reports []*model.ProblemReport
}

var _ repository.ProblemReportRepository = (*MockReportRepo)(nil)

func (m *MockReportRepo) Append(ctx context.Context, tx repository.Tx, r *model.ProblemReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func (m *MockReportRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.ProblemReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ProblemReport
	for _, r := range m.reports {
		if r.UserID == userID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockUsage is an in-memory daily counter keyed like the redis adapter.
type MockUsage struct {
	mu     sync.Mutex
	counts map[string]int

	UsedTodayFunc func(ctx context.Context, userID string, now time.Time) (int, error)
}

func NewMockUsage() *MockUsage { return &MockUsage{counts: map[string]int{}} }

var _ repository.UsageCounter = (*MockUsage)(nil)

func usageKey(userID string, now time.Time) string {
	return fmt.Sprintf("%s:%s", userID, now.UTC().Format("20060102"))
}

func (m *MockUsage) UsedToday(ctx context.Context, userID string, now time.Time) (int, error) {
	if m.UsedTodayFunc != nil {
		return m.UsedTodayFunc(ctx, userID, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[usageKey(userID, now)], nil
}

func (m *MockUsage) Increment(ctx context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[usageKey(userID, now)]++
	return m.counts[usageKey(userID, now)], nil
}

// ---- MockTxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately without a real transaction unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}
