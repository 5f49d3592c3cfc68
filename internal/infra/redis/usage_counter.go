package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/ports/repository"
)

var _ repository.UsageCounter = (*UsageCounter)(nil)

const usageTTL = 48 * time.Hour

// UsageCounter counts daily actions per user, one key per UTC day.
type UsageCounter struct {
	client RedisClient
}

func NewUsageCounter(client RedisClient) *UsageCounter {
	return &UsageCounter{client: client}
}

func (u *UsageCounter) UsedToday(ctx context.Context, userID string, now time.Time) (int, error) {
	v, err := u.client.Get(ctx, usageKey(userID, now))
	if IsNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: usage get: %v", domain.ErrStorage, err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: usage value %q: %v", domain.ErrStorage, v, err)
	}
	return n, nil
}

func (u *UsageCounter) Increment(ctx context.Context, userID string, now time.Time) (int, error) {
	n, err := u.client.IncrExpire(ctx, usageKey(userID, now), usageTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: usage incr: %v", domain.ErrStorage, err)
	}
	return int(n), nil
}
