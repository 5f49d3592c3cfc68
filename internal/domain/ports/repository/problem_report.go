package repository

import (
	"context"

	"telegram-channel-bot/internal/domain/model"
)

// ProblemReportRepository is append-only.
type ProblemReportRepository interface {
	Append(ctx context.Context, tx Tx, r *model.ProblemReport) error
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.ProblemReport, error)
}
