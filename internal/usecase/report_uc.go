package usecase

import (
	"context"

	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
	"telegram-channel-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

var _ ReportUseCase = (*reportUC)(nil)

type ReportUseCase interface {
	Submit(ctx context.Context, tgID int64, text, category string) (*model.ProblemReport, error)
	ListByTelegramID(ctx context.Context, tgID int64, limit int) ([]*model.ProblemReport, error)
}

type reportUC struct {
	users   repository.UserRepository
	reports repository.ProblemReportRepository
	log     *zerolog.Logger
}

func NewReportUseCase(users repository.UserRepository, reports repository.ProblemReportRepository, logger *zerolog.Logger) *reportUC {
	l := logger.With().Str("component", "ReportUC").Logger()
	return &reportUC{users: users, reports: reports, log: &l}
}

func (r *reportUC) Submit(ctx context.Context, tgID int64, text, category string) (*model.ProblemReport, error) {
	defer logging.TraceDuration(r.log, "ReportUC.Submit")()
	u, err := r.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	rep, err := model.NewProblemReport(u.ID, text, category)
	if err != nil {
		return nil, err
	}
	if err := r.reports.Append(ctx, repository.NoTX, rep); err != nil {
		return nil, storageErr("append report", err)
	}
	r.log.Info().Str("report_id", rep.ID).Str("user_id", u.ID).Str("category", rep.Category).Msg("problem report stored")
	return rep, nil
}

func (r *reportUC) ListByTelegramID(ctx context.Context, tgID int64, limit int) ([]*model.ProblemReport, error) {
	defer logging.TraceDuration(r.log, "ReportUC.ListByTelegramID")()
	u, err := r.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	out, err := r.reports.ListByUser(ctx, repository.NoTX, u.ID, limit)
	if err != nil {
		return nil, storageErr("list reports", err)
	}
	return out, nil
}
