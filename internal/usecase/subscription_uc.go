package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
	"telegram-channel-bot/internal/infra/logging"
	"telegram-channel-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Unlimited is returned by RemainingDailyActions for premium users.
const Unlimited = -1

// IsPremium reports whether u holds a premium expiry strictly after now.
func IsPremium(u *model.User, now time.Time) bool {
	return u.IsPremium(now)
}

// RemainingDailyActions is a pure function of the user and today's usage.
func RemainingDailyActions(u *model.User, usedToday int, now time.Time) int {
	if IsPremium(u, now) {
		return Unlimited
	}
	if rem := u.DailyLimit - usedToday; rem > 0 {
		return rem
	}
	return 0
}

// ExtendPremium stacks days onto the later of now and the current expiry.
func ExtendPremium(current *time.Time, days int, now time.Time) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.Add(time.Duration(days) * 24 * time.Hour)
}

// SubscriptionStatus is what /status renders.
type SubscriptionStatus struct {
	User         *model.User
	Plan         model.Plan
	Premium      bool
	PremiumUntil *time.Time
	Remaining    int
}

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	GrantPremium(ctx context.Context, userID string, days int, now time.Time) (*model.User, error)
	GrantPremiumByTelegramID(ctx context.Context, tgID int64, days int, now time.Time) (*model.User, error)
	ActivatePlan(ctx context.Context, userID string, plan model.Plan, now time.Time) (*model.Subscription, error)
	ActivatePlanByTelegramID(ctx context.Context, tgID int64, plan model.Plan, now time.Time) (*model.Subscription, *model.User, error)
	ConsumeDailyAction(ctx context.Context, u *model.User, now time.Time) (int, error)
	Status(ctx context.Context, tgID int64, now time.Time) (*SubscriptionStatus, error)
}

type subscriptionUC struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
	usage repository.UsageCounter
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	usage repository.UsageCounter,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{users: users, subs: subs, usage: usage, tm: tm, log: &l}
}

func (s *subscriptionUC) GrantPremium(ctx context.Context, userID string, days int, now time.Time) (*model.User, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.GrantPremium")()
	if days <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	var out *model.User
	err := s.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(ctx context.Context, tx repository.Tx) error {
		u, err := s.users.FindByID(ctx, tx, userID)
		if err != nil {
			return storageErr("find user", err)
		}
		out, err = s.grant(ctx, tx, u, days, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPremiumGranted("manual")
	return out, nil
}

func (s *subscriptionUC) GrantPremiumByTelegramID(ctx context.Context, tgID int64, days int, now time.Time) (*model.User, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.GrantPremiumByTelegramID")()
	u, err := s.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	return s.GrantPremium(ctx, u.ID, days, now)
}

func (s *subscriptionUC) grant(ctx context.Context, tx repository.Tx, u *model.User, days int, now time.Time) (*model.User, error) {
	until := ExtendPremium(u.PremiumUntil, days, now)
	u.PremiumUntil = &until
	if err := s.users.Save(ctx, tx, u); err != nil {
		return nil, storageErr("save user", err)
	}
	s.log.Info().Str("user_id", u.ID).Int("days", days).Time("premium_until", until).Msg("premium granted")
	return u, nil
}

// ActivatePlan grants the plan duration and records the plan as the user's single subscription row.
func (s *subscriptionUC) ActivatePlan(ctx context.Context, userID string, plan model.Plan, now time.Time) (*model.Subscription, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.ActivatePlan")()
	if _, err := model.ParsePlan(string(plan)); err != nil {
		return nil, err
	}

	var out *model.Subscription
	err := s.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(ctx context.Context, tx repository.Tx) error {
		u, err := s.users.FindByID(ctx, tx, userID)
		if err != nil {
			return storageErr("find user", err)
		}

		var expires *time.Time
		if plan.IsPaid() {
			if u, err = s.grant(ctx, tx, u, plan.DurationDays(), now); err != nil {
				return err
			}
			expires = u.PremiumUntil
		}

		sub, err := model.NewSubscription(u.ID, plan, now, expires)
		if err != nil {
			return err
		}
		if err := s.subs.Upsert(ctx, tx, sub); err != nil {
			return storageErr("upsert subscription", err)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPremiumGranted(string(plan))
	return out, nil
}

// ActivatePlanByTelegramID is ActivatePlan for admin surfaces that only know the chat id.
// It also returns the user as stored after the grant.
func (s *subscriptionUC) ActivatePlanByTelegramID(ctx context.Context, tgID int64, plan model.Plan, now time.Time) (*model.Subscription, *model.User, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.ActivatePlanByTelegramID")()
	u, err := s.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, nil, storageErr("find user", err)
	}
	sub, err := s.ActivatePlan(ctx, u.ID, plan, now)
	if err != nil {
		return nil, nil, err
	}
	u, err = s.users.FindByID(ctx, repository.NoTX, u.ID)
	if err != nil {
		return nil, nil, storageErr("find user", err)
	}
	return sub, u, nil
}

// ConsumeDailyAction spends one free action and returns what is left.
// Premium users are not counted and get Unlimited.
func (s *subscriptionUC) ConsumeDailyAction(ctx context.Context, u *model.User, now time.Time) (int, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.ConsumeDailyAction")()
	if IsPremium(u, now) {
		return Unlimited, nil
	}

	used, err := s.usage.UsedToday(ctx, u.ID, now)
	if err != nil {
		return 0, storageErr("usage", err)
	}
	if RemainingDailyActions(u, used, now) == 0 {
		metrics.IncDailyLimitReached()
		return 0, domain.ErrDailyLimitReached
	}

	// The increment is the authoritative count under concurrent requests.
	n, err := s.usage.Increment(ctx, u.ID, now)
	if err != nil {
		return 0, storageErr("usage", err)
	}
	if n > u.DailyLimit {
		metrics.IncDailyLimitReached()
		return 0, domain.ErrDailyLimitReached
	}
	return RemainingDailyActions(u, n, now), nil
}

func (s *subscriptionUC) Status(ctx context.Context, tgID int64, now time.Time) (*SubscriptionStatus, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.Status")()
	u, err := s.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, storageErr("find user", err)
	}

	st := &SubscriptionStatus{User: u, Plan: model.PlanFree, Premium: IsPremium(u, now), PremiumUntil: u.PremiumUntil}
	sub, err := s.subs.FindActiveByUser(ctx, repository.NoTX, u.ID)
	switch {
	case err == nil:
		st.Plan = sub.Plan
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, storageErr("find subscription", err)
	}

	if st.Premium {
		st.Remaining = Unlimited
		return st, nil
	}
	used, err := s.usage.UsedToday(ctx, u.ID, now)
	if err != nil {
		return nil, storageErr("usage", err)
	}
	st.Remaining = RemainingDailyActions(u, used, now)
	return st, nil
}
