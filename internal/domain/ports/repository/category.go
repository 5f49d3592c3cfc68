package repository

import (
	"context"

	"telegram-channel-bot/internal/domain/model"
)

type CategoryRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Category) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Category, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Category, error)
}
