package usecase

import (
	"context"
	"errors"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/repository"
	"telegram-channel-bot/internal/infra/logging"
	"telegram-channel-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user operations used by the bot and admin flows.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, lang string) (user *model.User, created bool, err error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users      repository.UserRepository
	tm         repository.TransactionManager
	dailyLimit int
	log        *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, dailyLimit int, logger *zerolog.Logger) *userUC {
	if dailyLimit <= 0 {
		dailyLimit = model.DefaultDailyLimit
	}
	l := logger.With().Str("component", "UserUC").Logger()
	return &userUC{users: users, tm: tm, dailyLimit: dailyLimit, log: &l}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, lang string) (*model.User, bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var (
		user    *model.User
		created bool
	)
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.users.FindByTelegramID(ctx, tx, tgID)
		switch {
		case err == nil:
			user = existing
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return storageErr("find user", err)
		}

		nu, err := model.NewUser("", tgID, lang, u.dailyLimit)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return storageErr("save user", err)
		}
		user, created = nu, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		metrics.IncUsersRegistered()
		u.log.Info().Str("user_id", user.ID).Int64("tg_id", tgID).Str("lang", user.LanguageCode).Msg("user registered")
	}
	return user, created, nil
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	usr, err := u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	return usr, nil
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	n, err := u.users.CountUsers(ctx, repository.NoTX)
	return n, storageErr("count users", err)
}
