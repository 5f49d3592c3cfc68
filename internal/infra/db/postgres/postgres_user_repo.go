package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, telegram_id, language_code, categories, daily_limit, premium_until,
       invite_count, coins, registered_at`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, language_code=$3, categories=$4, daily_limit=$5, premium_until=$6,
  invite_count=$7, coins=$8;`

	cats := u.Categories
	if cats == nil {
		cats = []int64{}
	}
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.TelegramID, u.LanguageCode, cats, u.DailyLimit,
		u.PremiumUntil, u.InviteCount, u.Coins, u.RegisteredAt)
	return mapErr("save user", err)
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE telegram_id=$1;`, tgID)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, mapErr("count users", err)
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapErr("count users", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapErr("find user", err)
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.LanguageCode, &u.Categories, &u.DailyLimit,
		&u.PremiumUntil, &u.InviteCount, &u.Coins, &u.RegisteredAt); err != nil {
		return nil, mapErr("find user", err)
	}
	return &u, nil
}
