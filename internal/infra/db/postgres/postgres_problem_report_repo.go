package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
)

var _ repository.ProblemReportRepository = (*problemReportRepo)(nil)

type problemReportRepo struct {
	pool *pgxpool.Pool
}

func NewProblemReportRepo(pool *pgxpool.Pool) *problemReportRepo {
	return &problemReportRepo{pool: pool}
}

func (r *problemReportRepo) Append(ctx context.Context, tx repository.Tx, rep *model.ProblemReport) error {
	const q = `
INSERT INTO problem_reports (id, user_id, text, category, created_at)
VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, tx, q, rep.ID, rep.UserID, rep.Text, rep.Category, rep.CreatedAt)
	return mapErr("append problem report", err)
}

func (r *problemReportRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.ProblemReport, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, text, category, created_at
  FROM problem_reports
 WHERE user_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, mapErr("list problem reports", err)
	}
	defer rows.Close()

	var out []*model.ProblemReport
	for rows.Next() {
		var rep model.ProblemReport
		if err := rows.Scan(&rep.ID, &rep.UserID, &rep.Text, &rep.Category, &rep.CreatedAt); err != nil {
			return nil, mapErr("list problem reports", err)
		}
		out = append(out, &rep)
	}
	return out, mapErr("list problem reports", rows.Err())
}
