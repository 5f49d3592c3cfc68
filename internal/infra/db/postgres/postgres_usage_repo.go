package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-channel-bot/internal/domain/ports/repository"
)

var _ repository.UsageCounter = (*usageRepo)(nil)

// usageRepo keeps one row per user per UTC day. Used when no redis is configured.
type usageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *usageRepo {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) UsedToday(ctx context.Context, userID string, now time.Time) (int, error) {
	const q = `SELECT COALESCE((SELECT used FROM daily_usage WHERE user_id=$1 AND day=$2), 0);`
	row, err := pickRow(ctx, r.pool, nil, q, userID, utcDay(now))
	if err != nil {
		return 0, mapErr("used today", err)
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapErr("used today", err)
	}
	return n, nil
}

func (r *usageRepo) Increment(ctx context.Context, userID string, now time.Time) (int, error) {
	const q = `
INSERT INTO daily_usage (user_id, day, used) VALUES ($1,$2,1)
ON CONFLICT (user_id, day) DO UPDATE SET used = daily_usage.used + 1
RETURNING used;`
	row, err := pickRow(ctx, r.pool, nil, q, userID, utcDay(now))
	if err != nil {
		return 0, mapErr("increment usage", err)
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapErr("increment usage", err)
	}
	return n, nil
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
