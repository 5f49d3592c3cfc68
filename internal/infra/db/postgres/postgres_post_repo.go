package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
)

var _ repository.PostRepository = (*postRepo)(nil)

type postRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *postRepo {
	return &postRepo{pool: pool}
}

const postColumns = `id, content, category_id, channel_id, scheduled_time, views, status`

func (r *postRepo) Save(ctx context.Context, tx repository.Tx, p *model.Post) error {
	const q = `
INSERT INTO posts (` + postColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  content=$2, category_id=$3, channel_id=$4, scheduled_time=$5, views=$6, status=$7;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Content, p.CategoryID, p.ChannelID,
		p.ScheduledTime, p.Views, string(p.Status))
	return mapErr("save post", err)
}

func (r *postRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Post, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+postColumns+` FROM posts WHERE id=$1;`, id)
	if err != nil {
		return nil, mapErr("find post", err)
	}
	return scanPost(row)
}

func (r *postRepo) ListDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Post, error) {
	const q = `
SELECT ` + postColumns + `
  FROM posts
 WHERE status='pending' AND scheduled_time <= $1
 ORDER BY scheduled_time ASC, id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, mapErr("list due posts", err)
	}
	defer rows.Close()

	var out []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapErr("list due posts", rows.Err())
}

func (r *postRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM posts WHERE id=$1;`, id)
	if err != nil {
		return mapErr("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		p      model.Post
		status string
	)
	if err := row.Scan(&p.ID, &p.Content, &p.CategoryID, &p.ChannelID, &p.ScheduledTime, &p.Views, &status); err != nil {
		return nil, mapErr("scan post", err)
	}
	p.Status = model.PostStatus(status)
	return &p, nil
}
