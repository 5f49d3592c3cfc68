package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
)

var _ repository.CategoryRepository = (*categoryRepo)(nil)

type categoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *categoryRepo {
	return &categoryRepo{pool: pool}
}

// Save inserts when c.ID is zero and assigns the generated id; otherwise it updates by id.
func (r *categoryRepo) Save(ctx context.Context, tx repository.Tx, c *model.Category) error {
	subs := c.Subcategories
	if subs == nil {
		subs = []string{}
	}
	if c.ID == 0 {
		row, err := pickRow(ctx, r.pool, tx,
			`INSERT INTO categories (name, subcategories) VALUES ($1,$2) RETURNING id;`, c.Name, subs)
		if err != nil {
			return mapErr("insert category", err)
		}
		return mapErr("insert category", row.Scan(&c.ID))
	}
	const q = `
INSERT INTO categories (id, name, subcategories) VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET name=$2, subcategories=$3;`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Name, subs)
	return mapErr("save category", err)
}

func (r *categoryRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Category, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, name, subcategories FROM categories WHERE id=$1;`, id)
	if err != nil {
		return nil, mapErr("find category", err)
	}
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Subcategories); err != nil {
		return nil, mapErr("find category", err)
	}
	return &c, nil
}

func (r *categoryRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Category, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT id, name, subcategories FROM categories ORDER BY id;`)
	if err != nil {
		return nil, mapErr("list categories", err)
	}
	defer rows.Close()

	var out []*model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Subcategories); err != nil {
			return nil, mapErr("list categories", err)
		}
		out = append(out, &c)
	}
	return out, mapErr("list categories", rows.Err())
}
