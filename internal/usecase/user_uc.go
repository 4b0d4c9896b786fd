package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/repository"
	"telegram-tiktok-checker/internal/infra/logging"
	"telegram-tiktok-checker/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot/admin flows.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	SetLanguage(ctx context.Context, tgID int64, lang string) error
	Count(ctx context.Context) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		tm:    tm,
		log:   logger,
	}
}

// RegisterOrFetch looks the Telegram account up and creates a row on first
// contact. Find and save run in one serializable transaction so two updates
// racing for the same new user cannot both insert.
func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var user *model.User
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		switch {
		case err == nil:
			if username != "" && usr.Username != username {
				usr.Username = username
			}
			usr.Touch()
			if err := u.users.Save(ctx, tx, usr); err != nil {
				return err
			}
			user = usr
			return nil
		case errors.Is(err, domain.ErrNotFound):
			nu, err := model.NewUser("", tgID, username)
			if err != nil {
				return err
			}
			if err := u.users.Save(ctx, tx, nu); err != nil {
				return err
			}
			u.log.Info().Int64("tg_id", tgID).Str("user_id", nu.ID).Msg("new user registered")
			metrics.IncUsersRegistered()
			user = nu
			return nil
		default:
			return err
		}
	})

	return user, err
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

// SetLanguage persists the user's locale choice.
func (u *userUC) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	defer logging.TraceDuration(u.log, "UserUC.SetLanguage")()

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		usr.Language = lang
		usr.Touch()
		return u.users.Save(ctx, tx, usr)
	})
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}

func (u *userUC) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.CountActiveSince")()
	return u.users.CountActiveSince(ctx, repository.NoTX, since)
}
