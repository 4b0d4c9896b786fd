package repository

import (
	"context"
	"time"

	"telegram-tiktok-checker/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	CountActiveSince(ctx context.Context, tx Tx, since time.Time) (int, error)
}
