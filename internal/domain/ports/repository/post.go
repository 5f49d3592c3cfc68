package repository

import (
	"context"
	"time"

	"telegram-channel-bot/internal/domain/model"
)

// PostRepository is owned by the scheduler; other components only read posts.
type PostRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Post) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Post, error)
	// ListDue returns pending posts with scheduled_time <= now ordered by (scheduled_time, id).
	ListDue(ctx context.Context, tx Tx, now time.Time) ([]*model.Post, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
