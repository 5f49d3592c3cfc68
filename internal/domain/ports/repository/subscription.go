package repository

import (
	"context"

	"telegram-channel-bot/internal/domain/model"
)

// SubscriptionRepository stores at most one active row per user.
type SubscriptionRepository interface {
	// Upsert replaces the user's active subscription row.
	Upsert(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	CountByPlan(ctx context.Context, tx Tx) (map[model.Plan]int, error)
}
