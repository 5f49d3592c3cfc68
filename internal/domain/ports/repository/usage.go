package repository

import (
	"context"
	"time"
)

// UsageCounter tracks free-tier actions per user per calendar day.
type UsageCounter interface {
	UsedToday(ctx context.Context, userID string, now time.Time) (int, error)
	Increment(ctx context.Context, userID string, now time.Time) (int, error)
}
