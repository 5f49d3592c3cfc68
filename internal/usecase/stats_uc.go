package usecase

import (
	"context"

	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
	"telegram-channel-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ StatsUseCase = (*statsUC)(nil)

type Stats struct {
	Users  int                `json:"users"`
	ByPlan map[model.Plan]int `json:"subscriptions_by_plan"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
	log   *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, subs repository.SubscriptionRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, subs: subs, log: logger}
}

// Totals also refreshes the subscriptions gauge.
func (s *statsUC) Totals(ctx context.Context) (*Stats, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return nil, storageErr("count users", err)
	}
	byPlan, err := s.subs.CountByPlan(ctx, repository.NoTX)
	if err != nil {
		return nil, storageErr("count subscriptions", err)
	}
	metrics.SetSubscriptionsTotal(byPlan)
	return &Stats{Users: users, ByPlan: byPlan}, nil
}
