package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

// Upsert keeps a single row per user; the unique user_id column enforces it.
func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, user_id, plan, started_at, expires_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id) DO UPDATE SET
  plan=EXCLUDED.plan, started_at=EXCLUDED.started_at, expires_at=EXCLUDED.expires_at
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, s.ID, s.UserID, string(s.Plan), s.StartedAt, s.ExpiresAt)
	if err != nil {
		return mapErr("upsert subscription", err)
	}
	return mapErr("upsert subscription", row.Scan(&s.ID))
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT id, user_id, plan, started_at, expires_at
  FROM subscriptions
 WHERE user_id=$1 AND (expires_at IS NULL OR expires_at > now())
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapErr("find subscription", err)
	}
	var (
		s    model.Subscription
		plan string
	)
	if err := row.Scan(&s.ID, &s.UserID, &plan, &s.StartedAt, &s.ExpiresAt); err != nil {
		return nil, mapErr("find subscription", err)
	}
	s.Plan = model.Plan(plan)
	return &s, nil
}

func (r *subscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[model.Plan]int, error) {
	const q = `
SELECT plan, COUNT(*)
  FROM subscriptions
 WHERE expires_at IS NULL OR expires_at > now()
 GROUP BY plan;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, mapErr("count subscriptions", err)
	}
	defer rows.Close()

	out := make(map[model.Plan]int)
	for rows.Next() {
		var (
			plan string
			n    int
		)
		if err := rows.Scan(&plan, &n); err != nil {
			return nil, mapErr("count subscriptions", err)
		}
		out[model.Plan(plan)] = n
	}
	return out, mapErr("count subscriptions", rows.Err())
}
